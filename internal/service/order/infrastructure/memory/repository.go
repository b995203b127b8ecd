// internal/service/order/infrastructure/memory/repository.go

// Package memory 提供订单仓储和 outbox 的内存实现，语义与 MySQL 版一致，
// 供单进程部署和测试使用。
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"commerce/internal/service/order/domain"
)

// Repository 同时实现 OrderRepository 和 OutboxRepository。
type Repository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	outbox map[string]*domain.OutboxMessage // orderID -> row
	nextID uint
}

// NewRepository 创建空仓储。
func NewRepository() *Repository {
	return &Repository{
		orders: make(map[string]*domain.Order),
		outbox: make(map[string]*domain.OutboxMessage),
		nextID: 1,
	}
}

// Create 模拟同事务写入：订单和 PENDING outbox 行一起出现。
func (r *Repository) Create(_ context.Context, order *domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(order))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return errors.Errorf("order %s already exists", order.ID)
	}

	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &stored
	r.outbox[order.ID] = &domain.OutboxMessage{
		ID:      r.nextID,
		OrderID: order.ID,
		Payload: payload,
		Status:  domain.OutboxPending,
	}
	r.nextID++
	return nil
}

func (r *Repository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, errors.Errorf("order %s not found", id)
	}
	copied := *order
	copied.Items = append([]domain.OrderItem(nil), order.Items...)
	return &copied, nil
}

func (r *Repository) UpdateState(_ context.Context, id string, state domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return errors.Errorf("order %s not found", id)
	}
	order.State = state
	order.UpdatedAt = time.Now()
	return nil
}

func (r *Repository) FindStaleCreated(_ context.Context, before time.Time, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []*domain.Order
	for _, order := range r.orders {
		if order.State == domain.StateCreated && order.CreatedAt.Before(before) {
			copied := *order
			copied.Items = append([]domain.OrderItem(nil), order.Items...)
			stale = append(stale, &copied)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (r *Repository) MarkReady(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.outbox[orderID]
	if !ok {
		return errors.Errorf("no outbox row for order %s", orderID)
	}
	if row.Status == domain.OutboxPending {
		row.Status = domain.OutboxReady
	}
	return nil
}

func (r *Repository) MarkAborted(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.outbox[orderID]
	if !ok {
		return errors.Errorf("no outbox row for order %s", orderID)
	}
	if row.Status == domain.OutboxPending {
		row.Status = domain.OutboxAborted
	}
	return nil
}

func (r *Repository) FetchReady(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ready []domain.OutboxMessage
	for _, row := range r.outbox {
		if row.Status == domain.OutboxReady {
			ready = append(ready, *row)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].ID < ready[j].ID })
	if len(ready) > limit {
		ready = ready[:limit]
	}
	return ready, nil
}

func (r *Repository) MarkSent(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.outbox {
		if row.ID == id {
			row.Status = domain.OutboxSent
			return nil
		}
	}
	return errors.Errorf("outbox row %d not found", id)
}

func (r *Repository) MarkAttemptFailed(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.outbox {
		if row.ID == id {
			row.Attempts++
			return nil
		}
	}
	return errors.Errorf("outbox row %d not found", id)
}

// AllOrders 返回全部订单的快照，测试用。
func (r *Repository) AllOrders() []*domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		copied := *order
		copied.Items = append([]domain.OrderItem(nil), order.Items...)
		out = append(out, &copied)
	}
	return out
}

// OutboxRow 返回某订单 outbox 行的快照，测试用。
func (r *Repository) OutboxRow(orderID string) (domain.OutboxMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.outbox[orderID]
	if !ok {
		return domain.OutboxMessage{}, false
	}
	return *row, true
}
