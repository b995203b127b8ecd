// internal/service/order/infrastructure/outbox/dispatcher_test.go
package outbox

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/infrastructure/memory"
)

// capturingPublisher 记录所有投递，可注入失败次数。
type capturingPublisher struct {
	mu        sync.Mutex
	published []string // orderIDs
	failures  int
}

func (p *capturingPublisher) Publish(_ context.Context, orderID string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, orderID)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func mustCreateOrder(t *testing.T, repo *memory.Repository, id string) {
	t.Helper()
	item := domain.NewOrderItem("p1", "Keyboard", 1000, 0, "", 1)
	order, err := domain.NewOrder(id, "u1", "u1@example.com", []domain.OrderItem{item})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestTickPublishesOnlyReadyRows(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	pub := &capturingPublisher{}
	d := NewDispatcher(repo, pub, 10)

	mustCreateOrder(t, repo, "o-pending")
	mustCreateOrder(t, repo, "o-ready")
	mustCreateOrder(t, repo, "o-aborted")
	if err := repo.MarkReady(ctx, "o-ready"); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if err := repo.MarkAborted(ctx, "o-aborted"); err != nil {
		t.Fatalf("MarkAborted: %v", err)
	}

	if err := d.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if pub.count() != 1 || pub.published[0] != "o-ready" {
		t.Fatalf("published = %v, want [o-ready]", pub.published)
	}

	row, _ := repo.OutboxRow("o-ready")
	if row.Status != domain.OutboxSent {
		t.Errorf("o-ready status = %s, want %s", row.Status, domain.OutboxSent)
	}
	row, _ = repo.OutboxRow("o-pending")
	if row.Status != domain.OutboxPending {
		t.Errorf("o-pending status = %s, want %s", row.Status, domain.OutboxPending)
	}
	row, _ = repo.OutboxRow("o-aborted")
	if row.Status != domain.OutboxAborted {
		t.Errorf("o-aborted status = %s, want %s", row.Status, domain.OutboxAborted)
	}
}

func TestTickLeavesFailedRowForRetry(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	pub := &capturingPublisher{failures: 1}
	d := NewDispatcher(repo, pub, 10)

	mustCreateOrder(t, repo, "o1")
	if err := repo.MarkReady(ctx, "o1"); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}

	if err := d.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if pub.count() != 0 {
		t.Fatalf("published = %v, want none after failed attempt", pub.published)
	}
	row, _ := repo.OutboxRow("o1")
	if row.Status != domain.OutboxReady || row.Attempts != 1 {
		t.Fatalf("row = %+v, want READY with 1 attempt", row)
	}

	// 下一轮重投成功
	if err := d.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("published count = %d, want 1", pub.count())
	}
	row, _ = repo.OutboxRow("o1")
	if row.Status != domain.OutboxSent {
		t.Errorf("status = %s, want %s", row.Status, domain.OutboxSent)
	}
}

func TestTickIsIdempotentWhenNothingReady(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	pub := &capturingPublisher{}
	d := NewDispatcher(repo, pub, 10)

	mustCreateOrder(t, repo, "o1")

	for i := 0; i < 3; i++ {
		if err := d.Tick(ctx); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if pub.count() != 0 {
		t.Fatalf("published = %v, want none for PENDING-only outbox", pub.published)
	}
}
