// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	// Create 持久化订单、明细快照，以及状态为 PENDING 的 outbox 行，
	// 三者在同一个本地事务中提交 —— 这就是下单流程的持久化边界。
	Create(ctx context.Context, order *Order) error

	// FindByID 加载订单聚合（含明细）。
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateState 只更新状态字段。
	UpdateState(ctx context.Context, id string, state State) error

	// FindStaleCreated 找出创建时间早于 before、仍处于 CREATED 的订单，
	// 供对账任务判断预占是否落空。
	FindStaleCreated(ctx context.Context, before time.Time, limit int) ([]*Order, error)
}

// OutboxStatus 是 outbox 行的生命周期。
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "PENDING" // 随订单一起提交，尚不允许投递
	OutboxReady   OutboxStatus = "READY"   // 预占成功，等待 dispatcher 投递
	OutboxAborted OutboxStatus = "ABORTED" // 订单已取消，永不投递
	OutboxSent    OutboxStatus = "SENT"    // 已交给消息层
)

// OutboxMessage 是一条待投递的事件行。
type OutboxMessage struct {
	ID       uint
	OrderID  string
	Payload  []byte
	Status   OutboxStatus
	Attempts int
}

// OutboxRepository 管理事件行的状态流转。
// 投递的判定只看 READY：PENDING/ABORTED 的行绝不会被发布。
type OutboxRepository interface {
	// MarkReady 把 PENDING 行置为 READY（幂等：已 READY/SENT 不变）。
	MarkReady(ctx context.Context, orderID string) error

	// MarkAborted 把 PENDING 行置为 ABORTED。
	MarkAborted(ctx context.Context, orderID string) error

	// FetchReady 取出最多 limit 条 READY 行。
	FetchReady(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkSent 投递成功。
	MarkSent(ctx context.Context, id uint) error

	// MarkAttemptFailed 投递失败：attempts+1，行保持 READY 等待下一轮。
	MarkAttemptFailed(ctx context.Context, id uint) error
}
