// internal/service/order/infrastructure/gorm_model.go

// Package infrastructure 提供订单聚合与 outbox 的 MySQL 实现。
package infrastructure

import (
	"time"

	"commerce/internal/service/order/domain"
)

// OrderModel 对应 orders 表。
type OrderModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	UserID      string `gorm:"size:64;index"`
	Email       string `gorm:"size:128"`
	State       string `gorm:"size:16;index:idx_state_created"`
	TotalAmount int64  `gorm:"not null"` // 美分
	CreatedAt   time.Time `gorm:"index:idx_state_created"`
	UpdatedAt   time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应 order_item 表，每行是一条下单时刻的价格快照。
type OrderItemModel struct {
	ID                  uint   `gorm:"primaryKey"`
	OrderID             string `gorm:"size:64;index"`
	ProductID           string `gorm:"size:64"`
	ProductName         string `gorm:"size:128"`
	UnitPrice           int64  `gorm:"not null"`
	Discount            int64  `gorm:"not null"`
	Image               string `gorm:"size:256"`
	Quantity            int    `gorm:"not null"`
	OrderedProductPrice int64  `gorm:"not null"`
}

func (OrderItemModel) TableName() string {
	return "order_item"
}

// OutboxModel 对应 order_outbox 表。
// 行随订单同事务写入，status 驱动投递：只有 READY 会被 dispatcher 取走。
type OutboxModel struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"size:64;uniqueIndex"`
	Payload   []byte `gorm:"type:blob"`
	Status    string `gorm:"size:16;index"`
	Attempts  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OutboxModel) TableName() string {
	return "order_outbox"
}

func toOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		Email:       o.Email,
		State:       string(o.State),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toItemModels(o *domain.Order) []OrderItemModel {
	items := make([]OrderItemModel, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemModel{
			OrderID:             o.ID,
			ProductID:           item.ProductID,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			Discount:            item.Discount,
			Image:               item.Image,
			Quantity:            item.Quantity,
			OrderedProductPrice: item.OrderedProductPrice,
		})
	}
	return items
}

func toDomainOrder(m *OrderModel, items []OrderItemModel) *domain.Order {
	domainItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		domainItems = append(domainItems, domain.OrderItem{
			ProductID:           item.ProductID,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			Discount:            item.Discount,
			Image:               item.Image,
			Quantity:            item.Quantity,
			OrderedProductPrice: item.OrderedProductPrice,
		})
	}
	return &domain.Order{
		ID:          m.ID,
		UserID:      m.UserID,
		Email:       m.Email,
		State:       domain.State(m.State),
		TotalAmount: m.TotalAmount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Items:       domainItems,
	}
}
