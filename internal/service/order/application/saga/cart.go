// internal/service/order/application/saga/cart.go
package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"commerce/internal/service/order/domain"
)

// FetchCartHandler 是流程第一步：取出用户购物车。
type FetchCartHandler struct {
	NextHandler
}

func (h *FetchCartHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.FetchCart")
	defer span.End()

	lines, err := orderCtx.Cart.GetCart(ctx, orderCtx.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch cart")
		return err
	}
	if len(lines) == 0 {
		err := domain.NewEmptyCart(orderCtx.UserID)
		span.SetStatus(codes.Error, err.Message)
		return err
	}

	orderCtx.CartLines = lines
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))
	return h.executeNext(orderCtx)
}
