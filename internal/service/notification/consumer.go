// internal/service/notification/consumer.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"commerce/internal/pkg/logger"
	"commerce/internal/pkg/mq"
)

const consumerGroupID = "notification-group"

// orderCreatedEvent 是订单服务发出的事件里本服务关心的字段。
type orderCreatedEvent struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	TotalAmount int64  `json:"totalAmount"`
	Currency    string `json:"currency"`
}

// pushPayload 是推给客户端的通知体。
type pushPayload struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

// Consumer 消费订单创建事件并向在线用户推送。
type Consumer struct {
	reader *kafka.Reader
	hub    *Hub
	tracer trace.Tracer
}

// NewConsumer 创建消费者。topic 与订单服务的 outbox 发布端约定一致。
func NewConsumer(brokers []string, topic string, hub *Hub) *Consumer {
	return &Consumer{
		reader: mq.NewKafkaReader(brokers, topic, consumerGroupID),
		hub:    hub,
		tracer: otel.Tracer("notification-service"),
	}
}

// Run 循环消费，直到 ctx 取消。
func (c *Consumer) Run(ctx context.Context) {
	logger.Ctx(ctx).Info().Msg("notification consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("notification consumer stopped")
				return
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not read message")
			continue
		}
		c.process(msg)
	}
}

// Close 释放底层 reader。
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) process(msg kafka.Message) {
	// 从消息头恢复上游的追踪链路
	ctx := mq.ExtractTraceContext(context.Background(), msg.Headers)
	ctx, span := c.tracer.Start(ctx, "notification.ProcessOrderCreated",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	var event orderCreatedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal event")
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal order created event")
		return
	}
	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("user.id", event.UserID),
	)

	payload, err := json.Marshal(pushPayload{
		Type:    "ORDER_CREATED",
		OrderID: event.OrderID,
		Message: fmt.Sprintf("Your order %s has been placed, total %d %s (minor units).", event.OrderID, event.TotalAmount, event.Currency),
	})
	if err != nil {
		span.RecordError(err)
		return
	}

	if c.hub.Push(event.UserID, payload) {
		span.AddEvent("Notification pushed over websocket.")
		logger.Ctx(ctx).Info().Str("order_id", event.OrderID).Str("user_id", event.UserID).Msg("order notification pushed")
		return
	}

	// 用户不在线：降级为记日志，邮件通道是后续扩展点
	logger.Ctx(ctx).Info().
		Str("order_id", event.OrderID).
		Str("user_id", event.UserID).
		Str("email", event.Email).
		Msg("user offline, notification skipped")
}
