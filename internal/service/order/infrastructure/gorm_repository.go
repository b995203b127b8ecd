// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"commerce/internal/service/order/domain"
)

// GormOrderRepository 同时实现 OrderRepository 和 OutboxRepository：
// 两者共享同一个数据库连接，Create 里订单和 outbox 行必须同事务提交。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建仓储并迁移表结构。
func NewGormOrderRepository(db *gorm.DB) (*GormOrderRepository, error) {
	if err := db.AutoMigrate(&OrderModel{}, &OrderItemModel{}, &OutboxModel{}); err != nil {
		return nil, pkgerrors.Wrap(err, "migrate order tables")
	}
	return &GormOrderRepository{db: db}, nil
}

// Create 在一个本地事务里写入订单、明细快照和 PENDING outbox 行。
// 事务提交即越过持久化边界：订单从此要么走向 CREATED+事件，要么 CANCELLED 留档。
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(order))
	if err != nil {
		return pkgerrors.Wrap(err, "marshal order created event")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toOrderModel(order)).Error; err != nil {
			return pkgerrors.Wrap(err, "insert order")
		}
		items := toItemModels(order)
		if err := tx.Create(&items).Error; err != nil {
			return pkgerrors.Wrap(err, "insert order items")
		}
		outboxRow := &OutboxModel{
			OrderID: order.ID,
			Payload: payload,
			Status:  string(domain.OutboxPending),
		}
		if err := tx.Create(outboxRow).Error; err != nil {
			return pkgerrors.Wrap(err, "insert outbox row")
		}
		return nil
	})
}

// FindByID 加载订单聚合。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var m OrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "find order %s", id)
	}
	var items []OrderItemModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Find(&items).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "find items of order %s", id)
	}
	return toDomainOrder(&m, items), nil
}

// UpdateState 只更新状态字段。
func (r *GormOrderRepository) UpdateState(ctx context.Context, id string, state domain.State) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Update("state", string(state))
	if res.Error != nil {
		return pkgerrors.Wrapf(res.Error, "update state of order %s", id)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.Errorf("order %s not found", id)
	}
	return nil
}

// FindStaleCreated 找出卡在 CREATED 的老订单，按创建时间升序。
func (r *GormOrderRepository) FindStaleCreated(ctx context.Context, before time.Time, limit int) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).
		Where("state = ? AND created_at < ?", string(domain.StateCreated), before).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find stale created orders")
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		var items []OrderItemModel
		if err := r.db.WithContext(ctx).Where("order_id = ?", models[i].ID).Find(&items).Error; err != nil {
			return nil, pkgerrors.Wrapf(err, "find items of order %s", models[i].ID)
		}
		orders = append(orders, toDomainOrder(&models[i], items))
	}
	return orders, nil
}

// MarkReady 放行 outbox 行。只有 PENDING 会被改动，重复调用无副作用。
func (r *GormOrderRepository) MarkReady(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&OutboxModel{}).
		Where("order_id = ? AND status = ?", orderID, string(domain.OutboxPending)).
		Update("status", string(domain.OutboxReady)).Error
}

// MarkAborted 终止 outbox 行。
func (r *GormOrderRepository) MarkAborted(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&OutboxModel{}).
		Where("order_id = ? AND status = ?", orderID, string(domain.OutboxPending)).
		Update("status", string(domain.OutboxAborted)).Error
}

// FetchReady 取一批待投递的行，按写入顺序。
func (r *GormOrderRepository) FetchReady(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	var rows []OutboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.OutboxReady)).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "fetch ready outbox rows")
	}

	out := make([]domain.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.OutboxMessage{
			ID:       row.ID,
			OrderID:  row.OrderID,
			Payload:  row.Payload,
			Status:   domain.OutboxStatus(row.Status),
			Attempts: row.Attempts,
		})
	}
	return out, nil
}

// MarkSent 投递成功。
func (r *GormOrderRepository) MarkSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&OutboxModel{}).
		Where("id = ?", id).
		Update("status", string(domain.OutboxSent)).Error
}

// MarkAttemptFailed 投递失败计数，行保持 READY。
func (r *GormOrderRepository) MarkAttemptFailed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&OutboxModel{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}
