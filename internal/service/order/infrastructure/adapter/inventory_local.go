// internal/service/order/infrastructure/adapter/inventory_local.go
package adapter

import (
	"context"

	"github.com/pkg/errors"

	invdomain "commerce/internal/service/inventory/domain"
	"commerce/internal/service/order/domain"
)

// InventoryLocalAdapter 直接调用同进程内的库存台账，
// 用于单体部署和测试，错误翻译与 HTTP 适配器保持一致。
type InventoryLocalAdapter struct {
	ledger invdomain.Ledger
}

// NewInventoryLocalAdapter 创建进程内库存适配器。
func NewInventoryLocalAdapter(ledger invdomain.Ledger) *InventoryLocalAdapter {
	return &InventoryLocalAdapter{ledger: ledger}
}

func (a *InventoryLocalAdapter) Lock(ctx context.Context, orderID, productID string, quantity int) error {
	return translateLedgerError(a.ledger.Lock(ctx, orderID, productID, quantity), productID)
}

func (a *InventoryLocalAdapter) Release(ctx context.Context, orderID, productID string, quantity int) error {
	return translateLedgerError(a.ledger.Release(ctx, orderID, productID, quantity), productID)
}

func (a *InventoryLocalAdapter) Confirm(ctx context.Context, orderID, productID string, quantity int) error {
	return translateLedgerError(a.ledger.Confirm(ctx, orderID, productID, quantity), productID)
}

func (a *InventoryLocalAdapter) ReservationsForOrder(ctx context.Context, orderID string) (map[string]int, error) {
	return a.ledger.ReservationsForOrder(ctx, orderID)
}

func translateLedgerError(err error, productID string) error {
	if err == nil {
		return nil
	}
	if failedProduct, ok := invdomain.IsInsufficientStock(err); ok {
		if failedProduct == "" {
			failedProduct = productID
		}
		return &domain.Error{Kind: domain.KindInsufficientStock, ProductID: failedProduct, Message: err.Error()}
	}
	if errors.Is(err, invdomain.ErrNoSuchReservation) {
		return domain.NewNoSuchReservation(productID)
	}
	return err
}
