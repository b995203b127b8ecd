// internal/service/order/application/service_test.go
package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	invmemory "commerce/internal/service/inventory/infrastructure/memory"
	"commerce/internal/service/order/application/reservation"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
	"commerce/internal/service/order/infrastructure/adapter"
	ordermemory "commerce/internal/service/order/infrastructure/memory"
	"commerce/internal/service/order/infrastructure/outbox"
)

type stubCart struct {
	mu       sync.Mutex
	lines    []port.CartLine
	clearErr error
	cleared  bool
}

func (c *stubCart) GetCart(_ context.Context, _ string) ([]port.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]port.CartLine(nil), c.lines...), nil
}

func (c *stubCart) ClearCart(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearErr != nil {
		return c.clearErr
	}
	c.cleared = true
	return nil
}

type stubCatalog struct {
	mu       sync.Mutex
	products map[string]port.ProductSnapshot
}

func (c *stubCatalog) GetProduct(_ context.Context, productID string) (port.ProductSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.products[productID]
	if !ok {
		return port.ProductSnapshot{}, domain.NewProductNotFound(productID)
	}
	return snap, nil
}

func (c *stubCatalog) setPrice(productID string, price int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.products[productID]
	snap.Price = price
	c.products[productID] = snap
}

type capturingPublisher struct {
	mu        sync.Mutex
	published []string
}

func (p *capturingPublisher) Publish(_ context.Context, orderID string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, orderID)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type testEnv struct {
	app     *OrderApplicationService
	repo    *ordermemory.Repository
	ledger  *invmemory.Ledger
	cart    *stubCart
	catalog *stubCatalog
	inv     port.InventoryService
	coord   *reservation.Coordinator
}

// newTestEnv 组装一套进程内的完整下单链路：内存台账、内存仓储、打桩网关。
func newTestEnv(t *testing.T, lines []port.CartLine, products map[string]port.ProductSnapshot, stock map[string]int) *testEnv {
	t.Helper()
	ctx := context.Background()

	ledger := invmemory.NewLedger()
	for productID, quantity := range stock {
		if err := ledger.Adjust(ctx, productID, quantity); err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}

	inv := adapter.NewInventoryLocalAdapter(ledger)
	coord := reservation.NewCoordinator(inv, otel.Tracer("test")).WithReleaseRetry(2, time.Millisecond)
	repo := ordermemory.NewRepository()
	cart := &stubCart{lines: lines}
	catalog := &stubCatalog{products: products}

	return &testEnv{
		app:     NewOrderApplicationService(cart, catalog, coord, repo, repo, 5*time.Second),
		repo:    repo,
		ledger:  ledger,
		cart:    cart,
		catalog: catalog,
		inv:     inv,
		coord:   coord,
	}
}

func keyboardCatalog(available int) map[string]port.ProductSnapshot {
	return map[string]port.ProductSnapshot{
		"p1": {ProductID: "p1", Name: "Keyboard", Price: 1000, Discount: 100, AvailableStock: available},
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t,
		[]port.CartLine{{ProductID: "p1", Quantity: 2}},
		keyboardCatalog(5),
		map[string]int{"p1": 5},
	)

	resp, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1", UserEmail: "u1@example.com"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if resp.TotalAmount != 1800 { // (1000-100)*2
		t.Errorf("TotalAmount = %d, want 1800", resp.TotalAmount)
	}
	if resp.State != string(domain.StateCreated) {
		t.Errorf("State = %s, want %s", resp.State, domain.StateCreated)
	}

	rec, _ := env.ledger.Get(ctx, "p1")
	if rec.ReservedStock != 2 {
		t.Errorf("reserved stock = %d, want 2", rec.ReservedStock)
	}
	if !env.cart.cleared {
		t.Error("cart was not cleared")
	}

	row, ok := env.repo.OutboxRow(resp.OrderID)
	if !ok || row.Status != domain.OutboxReady {
		t.Fatalf("outbox row = %+v, want READY", row)
	}

	// dispatcher 只投递这一条事件
	pub := &capturingPublisher{}
	if err := outbox.NewDispatcher(env.repo, pub, 10).Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if pub.count() != 1 || pub.published[0] != resp.OrderID {
		t.Fatalf("published = %v, want exactly [%s]", pub.published, resp.OrderID)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, keyboardCatalog(5), map[string]int{"p1": 5})

	_, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1"})
	if domain.KindOf(err) != domain.KindEmptyCart {
		t.Fatalf("KindOf = %s, want %s", domain.KindOf(err), domain.KindEmptyCart)
	}
	if len(env.repo.AllOrders()) != 0 {
		t.Error("empty cart must not leave order rows behind")
	}
}

func TestCreateOrderRejectedByStockPrecheck(t *testing.T) {
	ctx := context.Background()
	// 目录快照就已经显示不够，持久化边界之前就该拒掉
	env := newTestEnv(t,
		[]port.CartLine{{ProductID: "p1", Quantity: 3}},
		keyboardCatalog(1),
		map[string]int{"p1": 1},
	)

	_, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1"})
	if domain.KindOf(err) != domain.KindInsufficientStock {
		t.Fatalf("KindOf = %s, want %s", domain.KindOf(err), domain.KindInsufficientStock)
	}
	if domain.ProductOf(err) != "p1" {
		t.Errorf("ProductOf = %s, want p1", domain.ProductOf(err))
	}
	if len(env.repo.AllOrders()) != 0 {
		t.Error("precheck rejection must not leave order rows behind")
	}
	rec, _ := env.ledger.Get(ctx, "p1")
	if rec.ReservedStock != 0 {
		t.Errorf("reserved stock = %d, want 0", rec.ReservedStock)
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t,
		[]port.CartLine{{ProductID: "ghost", Quantity: 1}},
		keyboardCatalog(5),
		map[string]int{"p1": 5},
	)

	_, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1"})
	if domain.KindOf(err) != domain.KindProductNotFound {
		t.Fatalf("KindOf = %s, want %s", domain.KindOf(err), domain.KindProductNotFound)
	}
}

func TestReservationFailureCancelsPersistedOrder(t *testing.T) {
	ctx := context.Background()
	// 目录快照谎报充足（模拟快照陈旧），台账里 p2 实际不够：
	// 订单先落库，预占失败后转 CANCELLED 留档，p1 的预占被补偿回来。
	env := newTestEnv(t,
		[]port.CartLine{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 3}},
		map[string]port.ProductSnapshot{
			"p1": {ProductID: "p1", Name: "Keyboard", Price: 1000, Discount: 100, AvailableStock: 10},
			"p2": {ProductID: "p2", Name: "Mouse", Price: 500, AvailableStock: 10},
		},
		map[string]int{"p1": 5, "p2": 1},
	)

	_, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1"})
	if domain.KindOf(err) != domain.KindReservationFailed {
		t.Fatalf("KindOf = %s, want %s", domain.KindOf(err), domain.KindReservationFailed)
	}
	if domain.ProductOf(err) != "p2" {
		t.Errorf("ProductOf = %s, want p2", domain.ProductOf(err))
	}

	orders := env.repo.AllOrders()
	if len(orders) != 1 {
		t.Fatalf("order count = %d, want 1 (cancelled order is retained)", len(orders))
	}
	if orders[0].State != domain.StateCancelled {
		t.Errorf("State = %s, want %s", orders[0].State, domain.StateCancelled)
	}

	row, ok := env.repo.OutboxRow(orders[0].ID)
	if !ok || row.Status != domain.OutboxAborted {
		t.Fatalf("outbox row = %+v, want ABORTED", row)
	}

	for _, productID := range []string{"p1", "p2"} {
		rec, _ := env.ledger.Get(ctx, productID)
		if rec.ReservedStock != 0 {
			t.Errorf("reserved stock of %s = %d, want 0 (compensated)", productID, rec.ReservedStock)
		}
	}

	// 事件绝不能发出去
	pub := &capturingPublisher{}
	if err := outbox.NewDispatcher(env.repo, pub, 10).Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if pub.count() != 0 {
		t.Fatalf("published = %v, want none for cancelled order", pub.published)
	}
}

func TestCartClearFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t,
		[]port.CartLine{{ProductID: "p1", Quantity: 1}},
		keyboardCatalog(5),
		map[string]int{"p1": 5},
	)
	env.cart.clearErr = errors.New("cart service down")

	resp, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if resp.State != string(domain.StateCreated) {
		t.Errorf("State = %s, want %s", resp.State, domain.StateCreated)
	}
	row, _ := env.repo.OutboxRow(resp.OrderID)
	if row.Status != domain.OutboxReady {
		t.Errorf("outbox status = %s, want READY despite cart clear failure", row.Status)
	}
}

func TestOrderKeepsPriceSnapshotAfterCatalogChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t,
		[]port.CartLine{{ProductID: "p1", Quantity: 2}},
		keyboardCatalog(5),
		map[string]int{"p1": 5},
	)

	resp, err := env.app.CreateOrder(ctx, &CreateOrderRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	env.catalog.setPrice("p1", 99999)

	got, err := env.app.GetOrder(ctx, resp.OrderID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.TotalAmount != 1800 {
		t.Errorf("TotalAmount after catalog change = %d, want 1800", got.TotalAmount)
	}
	if got.Items[0].UnitPrice != 1000 {
		t.Errorf("UnitPrice = %d, want snapshot price 1000", got.Items[0].UnitPrice)
	}
}
