// internal/service/order/application/saga/publish.go
package saga

import (
	"commerce/internal/pkg/logger"
)

// ReleaseEventHandler 把 outbox 行从 PENDING 置为 READY，放行事件投递。
// 置位失败不致命：订单和预占都已成立，对账任务会补上这次放行。
type ReleaseEventHandler struct {
	NextHandler
}

func (h *ReleaseEventHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReleaseEvent")
	defer span.End()

	if err := orderCtx.Outbox.MarkReady(ctx, orderCtx.OrderID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", orderCtx.OrderID).
			Msg("failed to mark outbox row READY, reconciler will retry")
	}

	span.AddEvent("Order created event released for dispatch.")
	return h.executeNext(orderCtx)
}
