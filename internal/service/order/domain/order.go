// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"time"
)

// 金额一律使用最小货币单位（美分）的整数，彻底避开二进制浮点舍入。

// OrderItem 是下单时刻一条购物车明细的价格快照。
// 创建后不再变化：商品后续调价、改名都不影响已生成的订单项。
type OrderItem struct {
	ProductID           string
	ProductName         string
	UnitPrice           int64 // 单价，美分
	Discount            int64 // 单件折扣，美分
	Image               string
	Quantity            int
	OrderedProductPrice int64 // 快照价 = UnitPrice × Quantity
}

// NewOrderItem 生成一条价格快照。
func NewOrderItem(productID, productName string, unitPrice, discount int64, image string, quantity int) OrderItem {
	return OrderItem{
		ProductID:           productID,
		ProductName:         productName,
		UnitPrice:           unitPrice,
		Discount:            discount,
		Image:               image,
		Quantity:            quantity,
		OrderedProductPrice: unitPrice * int64(quantity),
	}
}

// Order 是订单聚合根。提交后除状态流转外不可变。
type Order struct {
	ID          string
	UserID      string
	Email       string
	State       State
	TotalAmount int64 // Σ (UnitPrice − Discount) × Quantity，美分
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []OrderItem
}

// NewOrder 用明细快照创建订单，初始状态 CREATED，总额在这里一次算定。
func NewOrder(id, userID, email string, items []OrderItem) (*Order, error) {
	if id == "" || userID == "" || len(items) == 0 {
		return nil, errors.New("cannot create order with empty required fields")
	}

	var total int64
	for _, item := range items {
		total += (item.UnitPrice - item.Discount) * int64(item.Quantity)
	}

	now := time.Now()
	return &Order{
		ID:          id,
		UserID:      userID,
		Email:       email,
		State:       StateCreated,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       items,
	}, nil
}

// MarkCancelled 预占失败后的状态流转。订单保留，不删除。
func (o *Order) MarkCancelled() error {
	if o.State != StateCreated {
		return errors.New("only CREATED orders can be cancelled")
	}
	o.State = StateCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPaid 由支付结果驱动的状态流转（扩展点）。
func (o *Order) MarkPaid() error {
	if o.State != StateCreated {
		return errors.New("only CREATED orders can be paid")
	}
	o.State = StatePaid
	o.UpdatedAt = time.Now()
	return nil
}

// MarkFailed 处理异常终止。
func (o *Order) MarkFailed() {
	o.State = StateFailed
	o.UpdatedAt = time.Now()
}
