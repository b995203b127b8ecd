// internal/service/order/application/reservation/coordinator_test.go
package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"commerce/internal/service/order/domain"
)

// fakeInventory 记录调用顺序，可按商品注入失败。
type fakeInventory struct {
	mu          sync.Mutex
	stock       map[string]int
	reserved    map[string]map[string]int // orderID -> productID -> qty
	lockOrder   []string
	releaseErrs map[string]int // productID -> 剩余失败次数
	releases    map[string]int // productID -> release 调用次数
}

func newFakeInventory(stock map[string]int) *fakeInventory {
	return &fakeInventory{
		stock:       stock,
		reserved:    make(map[string]map[string]int),
		releaseErrs: make(map[string]int),
		releases:    make(map[string]int),
	}
}

func (f *fakeInventory) Lock(_ context.Context, orderID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockOrder = append(f.lockOrder, productID)
	if f.stock[productID] < quantity {
		return domain.NewInsufficientStock(productID, quantity, f.stock[productID])
	}
	f.stock[productID] -= quantity
	if f.reserved[orderID] == nil {
		f.reserved[orderID] = make(map[string]int)
	}
	f.reserved[orderID][productID] += quantity
	return nil
}

func (f *fakeInventory) Release(_ context.Context, orderID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases[productID]++
	if f.releaseErrs[productID] > 0 {
		f.releaseErrs[productID]--
		return domain.NewReservationFailed(productID, context.DeadlineExceeded)
	}
	if f.reserved[orderID][productID] < quantity {
		return domain.NewNoSuchReservation(productID)
	}
	f.stock[productID] += quantity
	f.reserved[orderID][productID] -= quantity
	return nil
}

func (f *fakeInventory) Confirm(_ context.Context, orderID, productID string, quantity int) error {
	return nil
}

func (f *fakeInventory) ReservationsForOrder(_ context.Context, orderID string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for productID, qty := range f.reserved[orderID] {
		if qty > 0 {
			out[productID] = qty
		}
	}
	return out, nil
}

func (f *fakeInventory) stockOf(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[productID]
}

func (f *fakeInventory) releasesOf(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases[productID]
}

func newTestCoordinator(inv *fakeInventory) *Coordinator {
	return NewCoordinator(inv, otel.Tracer("test")).WithReleaseRetry(3, time.Millisecond)
}

func TestReserveAllLines(t *testing.T) {
	inv := newFakeInventory(map[string]int{"A": 5, "B": 3})
	c := newTestCoordinator(inv)

	err := c.Reserve(context.Background(), "o1", []Line{{"B", 3}, {"A", 5}})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if inv.stockOf("A") != 0 || inv.stockOf("B") != 0 {
		t.Errorf("stock after reserve: A=%d B=%d, want 0/0", inv.stockOf("A"), inv.stockOf("B"))
	}
}

func TestReserveLocksInAscendingProductOrder(t *testing.T) {
	inv := newFakeInventory(map[string]int{"A": 1, "B": 1, "C": 1})
	c := newTestCoordinator(inv)

	if err := c.Reserve(context.Background(), "o1", []Line{{"C", 1}, {"A", 1}, {"B", 1}}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	want := []string{"A", "B", "C"}
	for i, p := range want {
		if inv.lockOrder[i] != p {
			t.Fatalf("lock order = %v, want %v", inv.lockOrder, want)
		}
	}
}

func TestReserveIsAllOrNothing(t *testing.T) {
	// B 短缺：A 先锁成功，必须被补偿释放
	inv := newFakeInventory(map[string]int{"A": 5, "B": 1})
	c := newTestCoordinator(inv)

	err := c.Reserve(context.Background(), "o1", []Line{{"A", 5}, {"B", 3}})
	if err == nil {
		t.Fatal("expected reservation failure")
	}
	if domain.KindOf(err) != domain.KindReservationFailed {
		t.Errorf("KindOf = %s, want %s", domain.KindOf(err), domain.KindReservationFailed)
	}
	if domain.ProductOf(err) != "B" {
		t.Errorf("ProductOf = %s, want B", domain.ProductOf(err))
	}
	if inv.stockOf("A") != 5 {
		t.Errorf("stock of A = %d, want 5 (compensated)", inv.stockOf("A"))
	}

	held, _ := inv.ReservationsForOrder(context.Background(), "o1")
	if len(held) != 0 {
		t.Errorf("outstanding reservations = %v, want none", held)
	}
}

func TestCompensatingReleaseRetriesUntilSuccess(t *testing.T) {
	inv := newFakeInventory(map[string]int{"A": 5, "B": 1})
	inv.releaseErrs["A"] = 2 // 前两次释放失败
	c := newTestCoordinator(inv)

	if err := c.Reserve(context.Background(), "o1", []Line{{"A", 5}, {"B", 3}}); err == nil {
		t.Fatal("expected reservation failure")
	}
	if got := inv.releasesOf("A"); got != 3 {
		t.Errorf("release attempts = %d, want 3", got)
	}
	if inv.stockOf("A") != 5 {
		t.Errorf("stock of A = %d, want 5", inv.stockOf("A"))
	}
}

func TestCompensatingReleaseGivesUpAfterRetries(t *testing.T) {
	inv := newFakeInventory(map[string]int{"A": 5, "B": 1})
	inv.releaseErrs["A"] = 100 // 永远释放不掉
	c := newTestCoordinator(inv)

	// Reserve 必须正常返回：释放耗尽只告警，不影响预占失败的结论
	err := c.Reserve(context.Background(), "o1", []Line{{"A", 5}, {"B", 3}})
	if domain.KindOf(err) != domain.KindReservationFailed {
		t.Fatalf("KindOf = %s, want %s", domain.KindOf(err), domain.KindReservationFailed)
	}
	if got := inv.releasesOf("A"); got != 3 {
		t.Errorf("release attempts = %d, want 3 (bounded)", got)
	}
}

func TestCompensatingReleaseStopsOnMissingReservation(t *testing.T) {
	inv := newFakeInventory(map[string]int{"A": 5, "B": 1})
	c := newTestCoordinator(inv)

	if err := c.Reserve(context.Background(), "o1", []Line{{"A", 5}, {"B", 3}}); err == nil {
		t.Fatal("expected reservation failure")
	}
	// 第一次释放已成功，重复释放应立即停在 NO_SUCH_RESERVATION
	c.Release(context.Background(), "o1", []Line{{"A", 5}})
	if got := inv.releasesOf("A"); got != 2 {
		t.Errorf("release attempts = %d, want 2", got)
	}
}
