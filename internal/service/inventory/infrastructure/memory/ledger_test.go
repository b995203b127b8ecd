package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"commerce/internal/service/inventory/domain"
)

func TestLockInsufficientStock(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	if err := l.Adjust(ctx, "p1", 2); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	err := l.Lock(ctx, "o1", "p1", 5)
	productID, ok := domain.IsInsufficientStock(err)
	if !ok {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if productID != "p1" {
		t.Fatalf("expected product p1, got %s", productID)
	}

	// 失败的 lock 不能留下任何痕迹
	rec, _ := l.Get(ctx, "p1")
	if rec.ReservedStock != 0 || rec.AvailableStock() != 2 {
		t.Fatalf("ledger mutated by failed lock: %+v", rec)
	}
}

func TestLockConfirmConsumesStock(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Adjust(ctx, "p1", 10)

	if err := l.Lock(ctx, "o1", "p1", 3); err != nil {
		t.Fatalf("lock: %v", err)
	}
	rec, _ := l.Get(ctx, "p1")
	if rec.ReservedStock != 3 || rec.AvailableStock() != 7 {
		t.Fatalf("after lock: %+v", rec)
	}

	if err := l.Confirm(ctx, "o1", "p1", 3); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	rec, _ = l.Get(ctx, "p1")
	if rec.TotalStock != 7 || rec.ReservedStock != 0 {
		t.Fatalf("after confirm: %+v", rec)
	}

	// 没有预占时 confirm 必须被拒绝
	if err := l.Confirm(ctx, "o1", "p1", 1); !errors.Is(err, domain.ErrNoSuchReservation) {
		t.Fatalf("expected ErrNoSuchReservation, got %v", err)
	}
}

func TestReleaseIsIdempotentAgainstDoubleCredit(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Adjust(ctx, "p1", 5)
	l.Lock(ctx, "o1", "p1", 2)

	if err := l.Release(ctx, "o1", "p1", 2); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := l.Release(ctx, "o1", "p1", 2); !errors.Is(err, domain.ErrNoSuchReservation) {
		t.Fatalf("second release must fail, got %v", err)
	}

	// 库存只被归还一次
	rec, _ := l.Get(ctx, "p1")
	if rec.AvailableStock() != 5 || rec.ReservedStock != 0 {
		t.Fatalf("stock credited twice: %+v", rec)
	}
}

func TestPartialConfirmShrinksReservation(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Adjust(ctx, "p1", 10)
	l.Lock(ctx, "o1", "p1", 4)

	if err := l.Confirm(ctx, "o1", "p1", 3); err != nil {
		t.Fatalf("partial confirm: %v", err)
	}
	res, _ := l.ReservationsForOrder(ctx, "o1")
	if res["p1"] != 1 {
		t.Fatalf("expected remaining reservation 1, got %v", res)
	}
	if err := l.Release(ctx, "o1", "p1", 1); err != nil {
		t.Fatalf("release remainder: %v", err)
	}
	res, _ = l.ReservationsForOrder(ctx, "o1")
	if len(res) != 0 {
		t.Fatalf("expected no reservations, got %v", res)
	}
}

func TestAdjustCannotUndercutReservations(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Adjust(ctx, "p1", 5)
	l.Lock(ctx, "o1", "p1", 4)

	if err := l.Adjust(ctx, "p1", -2); err == nil {
		t.Fatal("adjust below reserved must fail")
	}
	rec, _ := l.Get(ctx, "p1")
	if rec.TotalStock != 5 {
		t.Fatalf("failed adjust mutated total: %+v", rec)
	}
}

// 并发竞争同一商品时，预占总量不能超过总库存，且台账始终满足不变式。
func TestConcurrentLocksNeverOversell(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	const total = 50
	l.Adjust(ctx, "p1", total)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			orderID := string(rune('a'+n%26)) + "-order"
			if err := l.Lock(ctx, orderID, "p1", 1); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if granted != total {
		t.Fatalf("expected exactly %d grants, got %d", total, granted)
	}
	rec, _ := l.Get(ctx, "p1")
	if rec.ReservedStock != total || rec.AvailableStock() != 0 {
		t.Fatalf("invariant violated: %+v", rec)
	}
	if rec.AvailableStock() < 0 || rec.ReservedStock > rec.TotalStock {
		t.Fatalf("non-negativity violated: %+v", rec)
	}
}

// Σ(未结预占) == reservedStock 在任意观察点成立。
func TestReservationConservation(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Adjust(ctx, "p1", 100)

	orders := []string{"o1", "o2", "o3"}
	for i, o := range orders {
		if err := l.Lock(ctx, o, "p1", (i+1)*2); err != nil {
			t.Fatalf("lock %s: %v", o, err)
		}
	}
	l.Release(ctx, "o2", "p1", 4)
	l.Confirm(ctx, "o3", "p1", 6)

	sum := 0
	for _, o := range orders {
		res, _ := l.ReservationsForOrder(ctx, o)
		sum += res["p1"]
	}
	rec, _ := l.Get(ctx, "p1")
	if sum != rec.ReservedStock {
		t.Fatalf("conservation broken: sum=%d reserved=%d", sum, rec.ReservedStock)
	}
}
