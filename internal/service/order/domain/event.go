// internal/service/order/domain/event.go
package domain

import "time"

// OrderCreatedEvent 是订单创建成功后发往消息层的不可变载荷。
// 只有订单本地提交且库存预占成功后才会被投递（见 outbox）。
type OrderCreatedEvent struct {
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	Email       string             `json:"email"`
	TotalAmount int64              `json:"totalAmount"` // 美分
	Currency    string             `json:"currency"`
	Items       []OrderItemPayload `json:"items"`
	CreatedAt   time.Time          `json:"createdAt"`
	EventTime   time.Time          `json:"eventTime"`
}

// OrderItemPayload 是事件中的明细摘要。
type OrderItemPayload struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
}

// NewOrderCreatedEvent 从订单聚合构建事件载荷。
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	items := make([]OrderItemPayload, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return &OrderCreatedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Email:       o.Email,
		TotalAmount: o.TotalAmount,
		Currency:    "USD",
		Items:       items,
		CreatedAt:   o.CreatedAt,
		EventTime:   time.Now(),
	}
}
