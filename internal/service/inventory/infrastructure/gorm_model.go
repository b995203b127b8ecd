// internal/service/inventory/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"commerce/internal/service/inventory/domain"
)

// InventoryRecordModel 对应 inventory_record 表。
// Version 用于乐观并发控制：每次变更 +1，更新语句带版本条件。
type InventoryRecordModel struct {
	ProductID     string `gorm:"primaryKey;size:64"`
	TotalStock    int    `gorm:"not null"`
	ReservedStock int    `gorm:"not null"`
	Version       int64  `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}

func (InventoryRecordModel) TableName() string {
	return "inventory_record"
}

// StockReservationModel 对应 stock_reservation 表，
// (order_id, product_id) 唯一，保证每笔预占只有一行。
type StockReservationModel struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"size:64;uniqueIndex:idx_order_product"`
	ProductID string `gorm:"size:64;uniqueIndex:idx_order_product"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StockReservationModel) TableName() string {
	return "stock_reservation"
}

func toDomainRecord(m *InventoryRecordModel) domain.Record {
	return domain.Record{
		ProductID:     m.ProductID,
		TotalStock:    m.TotalStock,
		ReservedStock: m.ReservedStock,
	}
}
