// internal/service/order/application/saga/handler.go

// Package saga 用责任链组织下单流程：每个步骤一个 Handler，
// 持久化边界之前的失败直接中断，之后的失败由应用服务决定如何收场。
package saga

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"commerce/internal/service/order/application/reservation"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
)

// OrderContext 在链上传递本次下单的所有状态和依赖。
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	// 请求输入
	OrderID string
	UserID  string
	Email   string

	// 步骤间传递的中间结果
	CartLines []port.CartLine
	Snapshots map[string]port.ProductSnapshot
	Order     *domain.Order

	// Persisted 标记是否已越过持久化边界；
	// 应用服务据此决定失败时是直接返回还是转 CANCELLED。
	Persisted bool

	// 出站端口
	Cart     port.CartGateway
	Catalog  port.CatalogGateway
	Reserver *reservation.Coordinator
	Repo     domain.OrderRepository
	Outbox   domain.OutboxRepository
}

// Lines 把购物车明细转成协调器需要的形式。
func (c *OrderContext) Lines() []reservation.Line {
	lines := make([]reservation.Line, 0, len(c.CartLines))
	for _, l := range c.CartLines {
		lines = append(lines, reservation.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return lines
}

// Handler 是链上的一个步骤。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

// NextHandler 提供链的推进逻辑，嵌入到每个具体步骤中。
type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
