// internal/service/order/application/dto.go
package application

import (
	"time"

	"commerce/internal/service/order/domain"
)

// CreateOrderRequest 是下单请求体。
type CreateOrderRequest struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// OrderItemResponse 是订单明细的对外表示。
type OrderItemResponse struct {
	ProductID           string `json:"productId"`
	ProductName         string `json:"productName"`
	UnitPrice           int64  `json:"unitPrice"`
	Discount            int64  `json:"discount"`
	Quantity            int    `json:"quantity"`
	OrderedProductPrice int64  `json:"orderedProductPrice"`
}

// OrderResponse 是订单的对外表示，金额为美分。
type OrderResponse struct {
	OrderID     string              `json:"orderId"`
	UserID      string              `json:"userId"`
	State       string              `json:"state"`
	TotalAmount int64               `json:"totalAmount"`
	Currency    string              `json:"currency"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       []OrderItemResponse `json:"items"`
}

// NewOrderResponse 从聚合构建响应。
func NewOrderResponse(o *domain.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:           item.ProductID,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			Discount:            item.Discount,
			Quantity:            item.Quantity,
			OrderedProductPrice: item.OrderedProductPrice,
		})
	}
	return &OrderResponse{
		OrderID:     o.ID,
		UserID:      o.UserID,
		State:       string(o.State),
		TotalAmount: o.TotalAmount,
		Currency:    "USD",
		CreatedAt:   o.CreatedAt,
		Items:       items,
	}
}
