// internal/service/order/application/saga/snapshot.go
package saga

import (
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
)

// SnapshotHandler 为每条明细拉取新鲜的目录快照并做库存预检。
// 所有校验都发生在持久化边界之前：注定失败的请求不会写下任何订单行。
type SnapshotHandler struct {
	NextHandler
}

func (h *SnapshotHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CatalogSnapshot")
	defer span.End()

	var mu sync.Mutex
	snapshots := make(map[string]port.ProductSnapshot, len(orderCtx.CartLines))

	// 明细之间互不依赖，目录查询并发执行
	g, gctx := errgroup.WithContext(ctx)
	for _, line := range orderCtx.CartLines {
		line := line
		g.Go(func() error {
			snapshot, err := orderCtx.Catalog.GetProduct(gctx, line.ProductID)
			if err != nil {
				return err
			}
			if snapshot.AvailableStock < line.Quantity {
				return domain.NewInsufficientStock(line.ProductID, line.Quantity, snapshot.AvailableStock)
			}
			mu.Lock()
			snapshots[line.ProductID] = snapshot
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog snapshot validation failed")
		return err
	}

	orderCtx.Snapshots = snapshots
	span.SetAttributes(attribute.Int("snapshots", len(snapshots)))
	span.AddEvent("All cart lines validated against fresh catalog snapshots.")
	return h.executeNext(orderCtx)
}
