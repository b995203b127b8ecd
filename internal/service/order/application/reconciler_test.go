// internal/service/order/application/reconciler_test.go
package application

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	invmemory "commerce/internal/service/inventory/infrastructure/memory"
	"commerce/internal/service/order/application/reservation"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/infrastructure/adapter"
	ordermemory "commerce/internal/service/order/infrastructure/memory"
)

// stuckOrder 造一个卡在"已落库、outbox 仍 PENDING"状态的订单，
// 模拟进程在预占结果落定之前崩掉的现场。
func stuckOrder(t *testing.T, repo *ordermemory.Repository, id string, quantity int) *domain.Order {
	t.Helper()
	item := domain.NewOrderItem("p1", "Keyboard", 1000, 0, "", quantity)
	order, err := domain.NewOrder(id, "u1", "u1@example.com", []domain.OrderItem{item})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(time.Millisecond) // 保证 CreatedAt 落在对账截止线之前
	return order
}

func newReconcilerEnv(t *testing.T, stock int) (*Reconciler, *ordermemory.Repository, *invmemory.Ledger, *adapter.InventoryLocalAdapter) {
	t.Helper()
	ledger := invmemory.NewLedger()
	if stock > 0 {
		if err := ledger.Adjust(context.Background(), "p1", stock); err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}
	inv := adapter.NewInventoryLocalAdapter(ledger)
	coord := reservation.NewCoordinator(inv, otel.Tracer("test")).WithReleaseRetry(2, time.Millisecond)
	repo := ordermemory.NewRepository()
	return NewReconciler(repo, repo, inv, coord, 0), repo, ledger, inv
}

func TestSweepReleasesEventWhenReservationExists(t *testing.T) {
	ctx := context.Background()
	rec, repo, _, inv := newReconcilerEnv(t, 5)

	order := stuckOrder(t, repo, "o1", 2)
	// 崩溃前预占其实已经成功
	if err := inv.Lock(ctx, order.ID, "p1", 2); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	row, _ := repo.OutboxRow(order.ID)
	if row.Status != domain.OutboxReady {
		t.Errorf("outbox status = %s, want READY", row.Status)
	}
	got, _ := repo.FindByID(ctx, order.ID)
	if got.State != domain.StateCreated {
		t.Errorf("State = %s, want %s", got.State, domain.StateCreated)
	}
}

func TestSweepRetriesMissingReservation(t *testing.T) {
	ctx := context.Background()
	rec, repo, ledger, _ := newReconcilerEnv(t, 5)

	order := stuckOrder(t, repo, "o1", 2)

	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	record, _ := ledger.Get(ctx, "p1")
	if record.ReservedStock != 2 {
		t.Errorf("reserved stock = %d, want 2 after retried reservation", record.ReservedStock)
	}
	row, _ := repo.OutboxRow(order.ID)
	if row.Status != domain.OutboxReady {
		t.Errorf("outbox status = %s, want READY", row.Status)
	}
}

func TestSweepCancelsUnrecoverableOrder(t *testing.T) {
	ctx := context.Background()
	rec, repo, ledger, _ := newReconcilerEnv(t, 1)

	order := stuckOrder(t, repo, "o1", 2) // 要 2 件，只剩 1 件

	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	got, _ := repo.FindByID(ctx, order.ID)
	if got.State != domain.StateCancelled {
		t.Errorf("State = %s, want %s", got.State, domain.StateCancelled)
	}
	row, _ := repo.OutboxRow(order.ID)
	if row.Status != domain.OutboxAborted {
		t.Errorf("outbox status = %s, want ABORTED", row.Status)
	}
	record, _ := ledger.Get(ctx, "p1")
	if record.ReservedStock != 0 {
		t.Errorf("reserved stock = %d, want 0", record.ReservedStock)
	}
}

func TestSweepIgnoresFreshAndSettledOrders(t *testing.T) {
	ctx := context.Background()
	ledger := invmemory.NewLedger()
	if err := ledger.Adjust(ctx, "p1", 5); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	inv := adapter.NewInventoryLocalAdapter(ledger)
	coord := reservation.NewCoordinator(inv, otel.Tracer("test")).WithReleaseRetry(2, time.Millisecond)
	repo := ordermemory.NewRepository()
	// 截止线在很久以前：刚创建的订单不算卡住
	rec := NewReconciler(repo, repo, inv, coord, time.Hour)

	order := stuckOrder(t, repo, "o1", 2)

	if err := rec.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	row, _ := repo.OutboxRow(order.ID)
	if row.Status != domain.OutboxPending {
		t.Errorf("outbox status = %s, want untouched PENDING", row.Status)
	}
}
