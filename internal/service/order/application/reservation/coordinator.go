// internal/service/order/application/reservation/coordinator.go

// Package reservation 把一组购物车明细变成一次逻辑上 all-or-nothing 的库存预占。
// 台账只保证单商品原子性，跨商品的一致性靠这里的补偿协议实现。
package reservation

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"commerce/internal/pkg/logger"
	"commerce/internal/pkg/metrics"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
)

// Line 是一条待预占的明细。
type Line struct {
	ProductID string
	Quantity  int
}

// Coordinator 按固定顺序逐条加锁，任何一条失败就回滚整批。
type Coordinator struct {
	inventory port.InventoryService
	tracer    trace.Tracer

	maxReleaseAttempts int
	releaseBackoff     time.Duration
}

// NewCoordinator 创建协调器。补偿释放最多重试 maxReleaseAttempts 次，
// 初始间隔 releaseBackoff，逐次翻倍。
func NewCoordinator(inventory port.InventoryService, tracer trace.Tracer) *Coordinator {
	return &Coordinator{
		inventory:          inventory,
		tracer:             tracer,
		maxReleaseAttempts: 4,
		releaseBackoff:     100 * time.Millisecond,
	}
}

// WithReleaseRetry 调整补偿重试参数，测试用。
func (c *Coordinator) WithReleaseRetry(attempts int, backoff time.Duration) *Coordinator {
	c.maxReleaseAttempts = attempts
	c.releaseBackoff = backoff
	return c
}

// Reserve 依次锁定所有明细。
// 按 productID 升序加锁：台账未来若改成悲观锁实现，固定顺序可以避免互相等锁。
// 任何一条失败，先释放本批已锁的明细，再返回指向第一条失败明细的 RESERVATION_FAILED。
func (c *Coordinator) Reserve(ctx context.Context, orderID string, lines []Line) error {
	ctx, span := c.tracer.Start(ctx, "reservation.Reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("lines", len(lines)),
	)

	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var locked []Line
	for _, line := range sorted {
		if err := c.inventory.Lock(ctx, orderID, line.ProductID, line.Quantity); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch reservation failed, compensating")

			c.releaseAll(ctx, orderID, locked)

			failing := domain.ProductOf(err)
			if failing == "" {
				failing = line.ProductID
			}
			return domain.NewReservationFailed(failing, err)
		}
		locked = append(locked, line)
	}

	span.AddEvent("All lines reserved.")
	return nil
}

// Release 释放一批明细，对账和补偿共用。
func (c *Coordinator) Release(ctx context.Context, orderID string, lines []Line) {
	c.releaseAll(ctx, orderID, lines)
}

// releaseAll 逐条归还已锁明细，顺序无关紧要。
// 预占失败的结论已经定了，这里的任何故障都不再抛给调用方：
// 重试耗尽的明细记为 UnreleasedReservation 告警，留给人工对账。
func (c *Coordinator) releaseAll(ctx context.Context, orderID string, locked []Line) {
	if len(locked) == 0 {
		return
	}

	// 剥离调用方的超时：补偿必须在请求被放弃后也能继续跑完。
	spanContext := trace.SpanContextFromContext(ctx)
	compCtx := trace.ContextWithRemoteSpanContext(context.WithoutCancel(ctx), spanContext)

	compCtx, span := c.tracer.Start(compCtx, "reservation.compensation.ReleaseAll")
	defer span.End()

	for _, line := range locked {
		if err := c.releaseWithRetry(compCtx, orderID, line); err != nil {
			metrics.UnreleasedReservations.Inc()
			span.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Str("order_id", orderID).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("UNRELEASED RESERVATION: compensating release exhausted retries, manual reconciliation required")
		}
	}
}

func (c *Coordinator) releaseWithRetry(ctx context.Context, orderID string, line Line) error {
	backoff := c.releaseBackoff
	var err error
	for attempt := 0; attempt < c.maxReleaseAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		if err = c.inventory.Release(ctx, orderID, line.ProductID, line.Quantity); err == nil {
			return nil
		}
		// 预占已经不存在说明没有东西可还（比如上一次释放其实成功了），不算失败
		if domain.KindOf(err) == domain.KindNoSuchReservation {
			return nil
		}
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", orderID).
			Str("product_id", line.ProductID).
			Int("attempt", attempt+1).
			Msg("compensating release failed, will retry")
	}
	return err
}
