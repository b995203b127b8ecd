// internal/service/order/application/saga/clear_cart.go
package saga

import (
	"commerce/internal/pkg/logger"
	"commerce/internal/pkg/metrics"
)

// ClearCartHandler 在订单成立后清空购物车。
// 这是尽力而为的收尾动作：失败只记日志和计数，不影响订单结果。
type ClearCartHandler struct {
	NextHandler
}

func (h *ClearCartHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ClearCart")
	defer span.End()

	if err := orderCtx.Cart.ClearCart(ctx, orderCtx.UserID); err != nil {
		metrics.CartClearFailures.Inc()
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", orderCtx.OrderID).
			Str("user_id", orderCtx.UserID).
			Msg("failed to clear cart after order placement, continuing")
	}

	return h.executeNext(orderCtx)
}
