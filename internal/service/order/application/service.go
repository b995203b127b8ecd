// internal/service/order/application/service.go

// Package application 编排下单流程：组装责任链、划定持久化边界之后的
// 失败处理策略，以及后台对账。
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"commerce/internal/pkg/logger"
	"commerce/internal/pkg/metrics"
	"commerce/internal/service/order/application/reservation"
	"commerce/internal/service/order/application/saga"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
)

// OrderApplicationService 是订单服务的应用层入口。
type OrderApplicationService struct {
	cart     port.CartGateway
	catalog  port.CatalogGateway
	reserver *reservation.Coordinator
	repo     domain.OrderRepository
	outbox   domain.OutboxRepository
	tracer   trace.Tracer

	processingTimeout time.Duration
}

// NewOrderApplicationService 组装应用服务。
func NewOrderApplicationService(
	cart port.CartGateway,
	catalog port.CatalogGateway,
	reserver *reservation.Coordinator,
	repo domain.OrderRepository,
	outbox domain.OutboxRepository,
	processingTimeout time.Duration,
) *OrderApplicationService {
	return &OrderApplicationService{
		cart:              cart,
		catalog:           catalog,
		reserver:          reserver,
		repo:              repo,
		outbox:            outbox,
		tracer:            otel.Tracer("order-application-service"),
		processingTimeout: processingTimeout,
	}
}

// CreateOrder 执行完整下单流程。
//
// 持久化边界之前的失败（空购物车、商品缺失、预检不过）直接返回错误，
// 库里不会留下任何痕迹；之后的失败（预占失败）把订单转成 CANCELLED
// 留档，outbox 行置 ABORTED，事件永不发出。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.processingTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "application.CreateOrder")
	defer span.End()

	orderID := uuid.NewString()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("user.id", req.UserID),
	)

	orderCtx := &saga.OrderContext{
		Ctx:      ctx,
		Tracer:   s.tracer,
		OrderID:  orderID,
		UserID:   req.UserID,
		Email:    req.UserEmail,
		Cart:     s.cart,
		Catalog:  s.catalog,
		Reserver: s.reserver,
		Repo:     s.repo,
		Outbox:   s.outbox,
	}

	chain := s.buildChain()
	if err := chain.Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order placement failed")

		if orderCtx.Persisted {
			s.cancelPersistedOrder(ctx, orderCtx.Order)
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", orderID).
		Str("user_id", req.UserID).
		Int64("total_amount", orderCtx.Order.TotalAmount).
		Msg("order placed")
	return NewOrderResponse(orderCtx.Order), nil
}

// GetOrder 查询订单详情。
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "application.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return NewOrderResponse(order), nil
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	fetchCart := &saga.FetchCartHandler{}
	fetchCart.
		SetNext(&saga.SnapshotHandler{}).
		SetNext(&saga.PersistOrderHandler{}).
		SetNext(&saga.ReserveStockHandler{}).
		SetNext(&saga.ClearCartHandler{}).
		SetNext(&saga.ReleaseEventHandler{})
	return fetchCart
}

// cancelPersistedOrder 把已落库但预占失败的订单转成 CANCELLED 留档。
// 订单不删除：取消记录本身是有价值的业务事实。
func (s *OrderApplicationService) cancelPersistedOrder(ctx context.Context, order *domain.Order) {
	// 剥离请求超时：善后必须跑完
	spanContext := trace.SpanContextFromContext(ctx)
	ctx = trace.ContextWithRemoteSpanContext(context.WithoutCancel(ctx), spanContext)

	ctx, span := s.tracer.Start(ctx, "application.CancelPersistedOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := order.MarkCancelled(); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("cannot cancel order")
		return
	}
	if err := s.repo.UpdateState(ctx, order.ID, domain.StateCancelled); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("failed to persist CANCELLED state, reconciler will pick the order up")
		return
	}
	if err := s.outbox.MarkAborted(ctx, order.ID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("failed to abort outbox row")
	}

	metrics.OrdersCancelled.Inc()
	logger.Ctx(ctx).Warn().Str("order_id", order.ID).Msg("order cancelled after failed reservation")
}
