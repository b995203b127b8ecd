// internal/service/inventory/infrastructure/gorm_ledger.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"commerce/internal/service/inventory/domain"
)

// 乐观锁冲突的重试上限。冲突意味着同一商品的并发写，
// 重读重算即可，冲突本身不是错误。
const maxOCCRetries = 5

var errVersionConflict = pkgerrors.New("inventory: optimistic version conflict")

// GormLedger 是 domain.Ledger 的 MySQL 实现。
// 每个商品一行带版本号的台账记录，更新都以 version 为条件，
// 丢失更新在这里被转成冲突重试。
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger 创建台账仓储并迁移表结构。
func NewGormLedger(db *gorm.DB) (*GormLedger, error) {
	if err := db.AutoMigrate(&InventoryRecordModel{}, &StockReservationModel{}); err != nil {
		return nil, pkgerrors.Wrap(err, "migrate inventory tables")
	}
	return &GormLedger{db: db}, nil
}

func (l *GormLedger) withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < maxOCCRetries; attempt++ {
		if err = op(); !pkgerrors.Is(err, errVersionConflict) {
			return err
		}
	}
	return pkgerrors.Wrap(err, "retries exhausted")
}

// bumpRecord 以乐观版本条件更新一行台账。
func bumpRecord(tx *gorm.DB, rec *InventoryRecordModel, totalDelta, reservedDelta int) error {
	res := tx.Model(&InventoryRecordModel{}).
		Where("product_id = ? AND version = ?", rec.ProductID, rec.Version).
		Updates(map[string]interface{}{
			"total_stock":    rec.TotalStock + totalDelta,
			"reserved_stock": rec.ReservedStock + reservedDelta,
			"version":        rec.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

// Lock 预占库存。
func (l *GormLedger) Lock(ctx context.Context, orderID, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return l.withRetry(func() error {
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rec InventoryRecordModel
			if err := tx.Where("product_id = ?", productID).First(&rec).Error; err != nil {
				if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
					// 没有台账记录 == 可用量为 0
					return &domain.InsufficientStockError{ProductID: productID, Requested: quantity}
				}
				return err
			}

			available := rec.TotalStock - rec.ReservedStock
			if quantity > available {
				return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
			}
			if err := bumpRecord(tx, &rec, 0, quantity); err != nil {
				return err
			}

			var res StockReservationModel
			err := tx.Where("order_id = ? AND product_id = ?", orderID, productID).First(&res).Error
			switch {
			case pkgerrors.Is(err, gorm.ErrRecordNotFound):
				return tx.Create(&StockReservationModel{OrderID: orderID, ProductID: productID, Quantity: quantity}).Error
			case err != nil:
				return err
			default:
				return tx.Model(&res).Update("quantity", res.Quantity+quantity).Error
			}
		})
	})
}

// Confirm 消耗预占，total 和 reserved 同时扣减。
func (l *GormLedger) Confirm(ctx context.Context, orderID, productID string, quantity int) error {
	return l.settle(ctx, orderID, productID, quantity, true)
}

// Release 归还预占，只扣减 reserved。
func (l *GormLedger) Release(ctx context.Context, orderID, productID string, quantity int) error {
	return l.settle(ctx, orderID, productID, quantity, false)
}

func (l *GormLedger) settle(ctx context.Context, orderID, productID string, quantity int, consume bool) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return l.withRetry(func() error {
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var res StockReservationModel
			if err := tx.Where("order_id = ? AND product_id = ?", orderID, productID).First(&res).Error; err != nil {
				if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNoSuchReservation
				}
				return err
			}
			if res.Quantity < quantity {
				return domain.ErrNoSuchReservation
			}

			var rec InventoryRecordModel
			if err := tx.Where("product_id = ?", productID).First(&rec).Error; err != nil {
				return err
			}
			totalDelta := 0
			if consume {
				totalDelta = -quantity
			}
			if err := bumpRecord(tx, &rec, totalDelta, -quantity); err != nil {
				return err
			}

			if res.Quantity == quantity {
				return tx.Delete(&res).Error
			}
			return tx.Model(&res).Update("quantity", res.Quantity-quantity).Error
		})
	})
}

// Adjust 管理接口：调整总库存。
func (l *GormLedger) Adjust(ctx context.Context, productID string, delta int) error {
	return l.withRetry(func() error {
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rec InventoryRecordModel
			err := tx.Where("product_id = ?", productID).First(&rec).Error
			if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
				if delta < 0 {
					return &domain.InsufficientStockError{ProductID: productID, Requested: -delta}
				}
				return tx.Create(&InventoryRecordModel{ProductID: productID, TotalStock: delta}).Error
			}
			if err != nil {
				return err
			}
			if rec.TotalStock+delta < rec.ReservedStock {
				return &domain.InsufficientStockError{
					ProductID: productID,
					Requested: -delta,
					Available: rec.TotalStock - rec.ReservedStock,
				}
			}
			return bumpRecord(tx, &rec, delta, 0)
		})
	})
}

// Get 返回台账快照。
func (l *GormLedger) Get(ctx context.Context, productID string) (domain.Record, error) {
	var rec InventoryRecordModel
	err := l.db.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Record{ProductID: productID}, nil
	}
	if err != nil {
		return domain.Record{}, pkgerrors.Wrap(err, "get inventory record")
	}
	return toDomainRecord(&rec), nil
}

// ReservationsForOrder 返回某订单全部未结预占。
func (l *GormLedger) ReservationsForOrder(ctx context.Context, orderID string) (map[string]int, error) {
	var rows []StockReservationModel
	if err := l.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list reservations")
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.ProductID] = r.Quantity
	}
	return out, nil
}
