// internal/service/order/application/saga/reserve.go
package saga

import (
	"go.opentelemetry.io/otel/codes"
)

// ReserveStockHandler 把整批明细交给预占协调器。
// 协调器保证逻辑上的 all-or-nothing：部分失败时已锁的明细会被补偿释放，
// 这里只会看到整批成功或整批失败。
type ReserveStockHandler struct {
	NextHandler
}

func (h *ReserveStockHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReserveStock")
	defer span.End()

	if err := orderCtx.Reserver.Reserve(ctx, orderCtx.OrderID, orderCtx.Lines()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock reservation failed")
		return err
	}

	span.AddEvent("Stock reserved for all order lines.")
	return h.executeNext(orderCtx)
}
