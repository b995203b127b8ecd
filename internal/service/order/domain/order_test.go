// internal/service/order/domain/order_test.go
package domain

import (
	"errors"
	"testing"
)

func TestNewOrderComputesTotalInMinorUnits(t *testing.T) {
	items := []OrderItem{
		NewOrderItem("p1", "Keyboard", 1000, 100, "", 2), // (1000-100)*2 = 1800
		NewOrderItem("p2", "Mouse", 500, 0, "", 3),       // 500*3 = 1500
	}
	order, err := NewOrder("o1", "u1", "u1@example.com", items)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}

	if order.TotalAmount != 3300 {
		t.Errorf("TotalAmount = %d, want 3300", order.TotalAmount)
	}
	if order.State != StateCreated {
		t.Errorf("State = %s, want %s", order.State, StateCreated)
	}
	if order.Items[0].OrderedProductPrice != 2000 {
		t.Errorf("OrderedProductPrice = %d, want 2000", order.Items[0].OrderedProductPrice)
	}
}

func TestNewOrderRejectsEmptyFields(t *testing.T) {
	item := NewOrderItem("p1", "Keyboard", 1000, 0, "", 1)

	if _, err := NewOrder("", "u1", "", []OrderItem{item}); err == nil {
		t.Error("expected error for empty order id")
	}
	if _, err := NewOrder("o1", "", "", []OrderItem{item}); err == nil {
		t.Error("expected error for empty user id")
	}
	if _, err := NewOrder("o1", "u1", "", nil); err == nil {
		t.Error("expected error for empty items")
	}
}

func TestMarkCancelledOnlyFromCreated(t *testing.T) {
	item := NewOrderItem("p1", "Keyboard", 1000, 0, "", 1)
	order, _ := NewOrder("o1", "u1", "", []OrderItem{item})

	if err := order.MarkCancelled(); err != nil {
		t.Fatalf("MarkCancelled from CREATED: %v", err)
	}
	if order.State != StateCancelled {
		t.Errorf("State = %s, want %s", order.State, StateCancelled)
	}
	if err := order.MarkCancelled(); err == nil {
		t.Error("expected error cancelling an already cancelled order")
	}
	if err := order.MarkPaid(); err == nil {
		t.Error("expected error paying a cancelled order")
	}
}

func TestKindOfAndProductOf(t *testing.T) {
	err := NewInsufficientStock("p7", 5, 2)
	if KindOf(err) != KindInsufficientStock {
		t.Errorf("KindOf = %s, want %s", KindOf(err), KindInsufficientStock)
	}
	if ProductOf(err) != "p7" {
		t.Errorf("ProductOf = %s, want p7", ProductOf(err))
	}

	plain := errors.New("boom")
	if KindOf(plain) != KindInternal {
		t.Errorf("KindOf(plain) = %s, want %s", KindOf(plain), KindInternal)
	}
	if ProductOf(plain) != "" {
		t.Errorf("ProductOf(plain) = %q, want empty", ProductOf(plain))
	}
}
