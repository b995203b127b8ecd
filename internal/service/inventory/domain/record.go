// internal/service/inventory/domain/record.go
package domain

import (
	"errors"
	"fmt"
)

// Record 是某个商品的库存台账。
// 不变式：0 <= ReservedStock <= TotalStock，且所有未结预占量之和 == ReservedStock。
// 只能通过 Lock/Confirm/Release/Adjust 修改，禁止直接读改写字段。
type Record struct {
	ProductID     string `json:"productId"`
	TotalStock    int    `json:"totalStock"`
	ReservedStock int    `json:"reservedStock"`
}

// AvailableStock 是新订单可以预占的数量，永远不为负。
func (r Record) AvailableStock() int {
	return r.TotalStock - r.ReservedStock
}

// Reservation 记录一笔 (订单, 商品) 维度的预占量。
// 它的存在使 release/confirm 可以精确、幂等地撤销一次批量锁定。
type Reservation struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ErrNoSuchReservation 表示没有匹配的未结预占：
// 未 lock 就 confirm，或对同一预占重复 release，都会收到它。
var ErrNoSuchReservation = errors.New("inventory: no such reservation")

// ErrInvalidQuantity 表示数量不是正数。
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// InsufficientStockError 携带具体商品，方便调用方定位第一条失败的明细。
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// IsInsufficientStock 判断 err 是否为库存不足，并返回涉及的商品。
func IsInsufficientStock(err error) (string, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise.ProductID, true
	}
	return "", false
}
