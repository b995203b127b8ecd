// internal/service/order/application/saga/persist.go
package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"commerce/internal/service/order/domain"
)

// PersistOrderHandler 是持久化边界：订单、明细快照和 PENDING outbox 行
// 在同一个本地事务中落库。越过这里之后的失败不再简单返回，
// 而是由应用服务把订单转成 CANCELLED 留档。
type PersistOrderHandler struct {
	NextHandler
}

func (h *PersistOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.PersistOrder")
	defer span.End()

	items := make([]domain.OrderItem, 0, len(orderCtx.CartLines))
	for _, line := range orderCtx.CartLines {
		snap := orderCtx.Snapshots[line.ProductID]
		items = append(items, domain.NewOrderItem(
			snap.ProductID, snap.Name, snap.Price, snap.Discount, snap.Image, line.Quantity,
		))
	}

	order, err := domain.NewOrder(orderCtx.OrderID, orderCtx.UserID, orderCtx.Email, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid order")
		return err
	}

	if err := orderCtx.Repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		return err
	}

	orderCtx.Order = order
	orderCtx.Persisted = true
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int64("order.total_amount", order.TotalAmount),
	)
	return h.executeNext(orderCtx)
}
