// internal/service/inventory/infrastructure/memory/ledger.go

// Package memory 提供库存台账的内存实现。
// 每个商品一把锁（single-writer per key），对单个商品的操作天然线性化。
package memory

import (
	"context"
	"sync"

	"commerce/internal/service/inventory/domain"
)

type entry struct {
	mu           sync.Mutex
	total        int
	reserved     int
	reservations map[string]int // orderID -> 未结预占量
}

// Ledger 实现 domain.Ledger。
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewLedger 创建一个空台账。
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*entry)}
}

func (l *Ledger) entryFor(productID string, create bool) *entry {
	l.mu.RLock()
	e := l.entries[productID]
	l.mu.RUnlock()
	if e != nil || !create {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e = l.entries[productID]; e == nil {
		e = &entry{reservations: make(map[string]int)}
		l.entries[productID] = e
	}
	return e
}

// Lock 预占库存。
func (l *Ledger) Lock(ctx context.Context, orderID, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	e := l.entryFor(productID, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	available := e.total - e.reserved
	if quantity > available {
		return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	}
	e.reserved += quantity
	e.reservations[orderID] += quantity
	return nil
}

// Confirm 消耗预占，永久扣减库存。
func (l *Ledger) Confirm(ctx context.Context, orderID, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	e := l.entryFor(productID, false)
	if e == nil {
		return domain.ErrNoSuchReservation
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	held := e.reservations[orderID]
	if held < quantity {
		return domain.ErrNoSuchReservation
	}
	e.reserved -= quantity
	e.total -= quantity
	l.shrinkReservation(e, orderID, held, quantity)
	return nil
}

// Release 归还预占，对同一预占重复调用会失败而不是重复入账。
func (l *Ledger) Release(ctx context.Context, orderID, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	e := l.entryFor(productID, false)
	if e == nil {
		return domain.ErrNoSuchReservation
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	held := e.reservations[orderID]
	if held < quantity {
		return domain.ErrNoSuchReservation
	}
	e.reserved -= quantity
	l.shrinkReservation(e, orderID, held, quantity)
	return nil
}

func (l *Ledger) shrinkReservation(e *entry, orderID string, held, quantity int) {
	if held == quantity {
		delete(e.reservations, orderID)
		return
	}
	e.reservations[orderID] = held - quantity
}

// Adjust 管理接口：调整总库存，不能压到低于已预占量。
func (l *Ledger) Adjust(ctx context.Context, productID string, delta int) error {
	e := l.entryFor(productID, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.total+delta < e.reserved {
		return &domain.InsufficientStockError{ProductID: productID, Requested: -delta, Available: e.total - e.reserved}
	}
	e.total += delta
	return nil
}

// Get 返回台账快照。
func (l *Ledger) Get(ctx context.Context, productID string) (domain.Record, error) {
	e := l.entryFor(productID, false)
	if e == nil {
		return domain.Record{ProductID: productID}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Record{ProductID: productID, TotalStock: e.total, ReservedStock: e.reserved}, nil
}

// ReservationsForOrder 扫描全部商品，汇总某订单的未结预占。
func (l *Ledger) ReservationsForOrder(ctx context.Context, orderID string) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]int)
	for productID, e := range l.entries {
		e.mu.Lock()
		if qty, ok := e.reservations[orderID]; ok {
			out[productID] = qty
		}
		e.mu.Unlock()
	}
	return out, nil
}
