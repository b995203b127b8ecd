// internal/service/order/domain/port/inventory.go
package port

import "context"

// InventoryService 是库存台账的出站端口。
// 每个调用对单个商品原子；跨商品的 all-or-nothing 由预占协调器负责。
// 库存不足时返回 domain.KindInsufficientStock 类别的错误。
type InventoryService interface {
	// Lock 为订单预占一个商品的库存。
	Lock(ctx context.Context, orderID, productID string, quantity int) error

	// Release 归还一笔预占，是 Lock 的补偿操作。
	Release(ctx context.Context, orderID, productID string, quantity int) error

	// Confirm 消耗一笔预占（发货/支付完成后的永久扣减）。
	Confirm(ctx context.Context, orderID, productID string, quantity int) error

	// ReservationsForOrder 返回订单当前的未结预占，供对账任务使用。
	ReservationsForOrder(ctx context.Context, orderID string) (map[string]int, error)
}
