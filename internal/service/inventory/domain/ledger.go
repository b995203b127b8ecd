// internal/service/inventory/domain/ledger.go
package domain

import "context"

// Ledger 是库存的唯一事实来源。
// 每个操作对单个商品是原子且可线性化的；跨商品没有原子性保证，
// 批量预占的 all-or-nothing 语义由上层协调器通过补偿实现。
type Ledger interface {
	// Lock 为 (orderID, productID) 预占 quantity 件库存。
	// 可用量不足时返回 *InsufficientStockError，台账不发生任何变化。
	Lock(ctx context.Context, orderID, productID string, quantity int) error

	// Confirm 消耗一笔预占：reserved 和 total 同时扣减，库存被永久占用。
	// 没有足量的未结预占时返回 ErrNoSuchReservation，绝不静默接受。
	Confirm(ctx context.Context, orderID, productID string, quantity int) error

	// Release 归还一笔预占：reserved 扣减，库存重新可用。
	// 对同一预占的第二次 Release 返回 ErrNoSuchReservation，不会重复入账。
	Release(ctx context.Context, orderID, productID string, quantity int) error

	// Adjust 管理接口：调整总库存。不能把总量压到低于已预占量。
	Adjust(ctx context.Context, productID string, delta int) error

	// Get 返回商品台账快照。
	Get(ctx context.Context, productID string) (Record, error)

	// ReservationsForOrder 返回某订单所有未结预占，供对账任务使用。
	ReservationsForOrder(ctx context.Context, orderID string) (map[string]int, error)
}
