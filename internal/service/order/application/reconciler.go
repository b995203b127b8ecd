// internal/service/order/application/reconciler.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"commerce/internal/pkg/logger"
	"commerce/internal/pkg/metrics"
	"commerce/internal/service/order/application/reservation"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
)

// Reconciler 兜住下单流程的缝隙：进程在"订单已落库、预占结果未落定"
// 的窗口里崩掉时，CREATED 订单会卡在没有 READY outbox 行的状态。
// 对账任务定期扫出这些订单，查台账补齐结论。
type Reconciler struct {
	repo      domain.OrderRepository
	outbox    domain.OutboxRepository
	inventory port.InventoryService
	reserver  *reservation.Coordinator
	tracer    trace.Tracer

	staleAfter time.Duration
	batchSize  int
}

// NewReconciler 创建对账任务。staleAfter 决定 CREATED 订单多久算"卡住"。
func NewReconciler(
	repo domain.OrderRepository,
	outbox domain.OutboxRepository,
	inventory port.InventoryService,
	reserver *reservation.Coordinator,
	staleAfter time.Duration,
) *Reconciler {
	return &Reconciler{
		repo:       repo,
		outbox:     outbox,
		inventory:  inventory,
		reserver:   reserver,
		tracer:     otel.Tracer("order-reconciler"),
		staleAfter: staleAfter,
		batchSize:  32,
	}
}

// Run 周期性执行 Sweep，直到 ctx 取消。
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Ctx(ctx).Info().Dur("interval", interval).Msg("order reconciler started")
	for {
		select {
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("order reconciler stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("reconcile sweep failed")
			}
		}
	}
}

// Sweep 处理一批卡住的 CREATED 订单。
func (r *Reconciler) Sweep(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "reconciler.Sweep")
	defer span.End()

	stale, err := r.repo.FindStaleCreated(ctx, time.Now().Add(-r.staleAfter), r.batchSize)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("stale_orders", len(stale)))

	for _, order := range stale {
		r.reconcileOrder(ctx, order)
	}
	return nil
}

// reconcileOrder 给一条卡住的订单补结论：
//   - 台账里有预占 → 预占其实成功了，放行事件；
//   - 没有预占 → 重试一次整批预占，成功放行，失败转 CANCELLED。
func (r *Reconciler) reconcileOrder(ctx context.Context, order *domain.Order) {
	ctx, span := r.tracer.Start(ctx, "reconciler.ReconcileOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", order.ID))

	reservations, err := r.inventory.ReservationsForOrder(ctx, order.ID)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("cannot query reservations, skipping order this sweep")
		return
	}

	if len(reservations) > 0 {
		if err := r.outbox.MarkReady(ctx, order.ID); err != nil {
			span.RecordError(err)
			logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
				Msg("failed to release outbox row during reconciliation")
			return
		}
		logger.Ctx(ctx).Info().Str("order_id", order.ID).
			Msg("reconciled: reservation exists, event released")
		return
	}

	lines := make([]reservation.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, reservation.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if err := r.reserver.Reserve(ctx, order.ID, lines); err == nil {
		if err := r.outbox.MarkReady(ctx, order.ID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
				Msg("reservation recovered but outbox release failed")
			return
		}
		logger.Ctx(ctx).Info().Str("order_id", order.ID).
			Msg("reconciled: reservation retried successfully, event released")
		return
	}

	if err := order.MarkCancelled(); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("cannot cancel stale order")
		return
	}
	if err := r.repo.UpdateState(ctx, order.ID, domain.StateCancelled); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).
			Msg("failed to persist CANCELLED state during reconciliation")
		return
	}
	if err := r.outbox.MarkAborted(ctx, order.ID); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to abort outbox row")
	}
	metrics.OrdersCancelled.Inc()
	logger.Ctx(ctx).Warn().Str("order_id", order.ID).
		Msg("reconciled: reservation unrecoverable, order cancelled")
}
