// internal/service/order/infrastructure/outbox/dispatcher.go

// Package outbox 负责把 READY 状态的事件行投递到消息层。
// PENDING 和 ABORTED 的行在这里是不可见的：投递与否只由状态机决定。
package outbox

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"commerce/internal/pkg/logger"
	"commerce/internal/pkg/metrics"
	"commerce/internal/service/order/domain"
)

// EventPublisher 把一条事件载荷交给消息层。
type EventPublisher interface {
	Publish(ctx context.Context, orderID string, payload []byte) error
}

// Dispatcher 周期性轮询 READY 行并投递。
// 至少一次语义：MarkSent 失败时行会被重投，消费端需要幂等。
type Dispatcher struct {
	outbox    domain.OutboxRepository
	publisher EventPublisher
	tracer    trace.Tracer
	batchSize int
}

// NewDispatcher 创建投递器。
func NewDispatcher(outbox domain.OutboxRepository, publisher EventPublisher, batchSize int) *Dispatcher {
	return &Dispatcher{
		outbox:    outbox,
		publisher: publisher,
		tracer:    otel.Tracer("outbox-dispatcher"),
		batchSize: batchSize,
	}
}

// Run 按 interval 轮询，直到 ctx 取消。
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Ctx(ctx).Info().Dur("interval", interval).Msg("outbox dispatcher started")
	for {
		select {
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("outbox dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

// Tick 处理一批 READY 行。
func (d *Dispatcher) Tick(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "outbox.Tick")
	defer span.End()

	rows, err := d.outbox.FetchReady(ctx, d.batchSize)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))

	for _, row := range rows {
		if err := d.publisher.Publish(ctx, row.OrderID, row.Payload); err != nil {
			metrics.OutboxPublishFailures.Inc()
			logger.Ctx(ctx).Warn().Err(err).
				Str("order_id", row.OrderID).
				Int("attempts", row.Attempts+1).
				Msg("outbox publish failed, row stays READY")
			if markErr := d.outbox.MarkAttemptFailed(ctx, row.ID); markErr != nil {
				logger.Ctx(ctx).Error().Err(markErr).Uint("row_id", row.ID).Msg("failed to record publish attempt")
			}
			continue
		}

		if err := d.outbox.MarkSent(ctx, row.ID); err != nil {
			// 行保持 READY，下一轮会重投：至少一次
			logger.Ctx(ctx).Error().Err(err).Uint("row_id", row.ID).
				Msg("event published but row not marked SENT, duplicate delivery possible")
			continue
		}
		metrics.OutboxPublished.Inc()
	}
	return nil
}
