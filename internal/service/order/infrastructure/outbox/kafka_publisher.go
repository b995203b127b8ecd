// internal/service/order/infrastructure/outbox/kafka_publisher.go
package outbox

import (
	"context"

	"github.com/segmentio/kafka-go"

	"commerce/internal/pkg/mq"
)

// TopicOrderCreated 是订单创建事件的 topic。
const TopicOrderCreated = "order-created"

// KafkaPublisher 把事件写入 kafka，key 用 orderID 保证同单消息同分区。
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 创建发布器。
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: mq.NewKafkaWriter(brokers, TopicOrderCreated)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, orderID string, payload []byte) error {
	return mq.ProduceMessage(ctx, p.writer, []byte(orderID), payload)
}

// Close 释放底层连接。
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
