package cart

import (
	"context"
	"errors"
	"testing"

	"biryani-club/internal/catalog"
	"biryani-club/internal/logger"
	"biryani-club/internal/memstore"
	"biryani-club/internal/models"
)

func TestServiceLifecycle(t *testing.T) {
	svc := NewService(memstore.New(), catalog.Default(), logger.Discard())
	ctx := context.Background()
	sess := models.Session{ID: "sess-1"}

	if _, err := svc.Add(ctx, sess, "Veg Biryani", 1); err != nil {
		t.Fatal(err)
	}
	cart, err := svc.Add(ctx, sess, "Veg Biryani", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("lines = %+v, want one line of quantity 2", cart.Lines)
	}

	if _, err := svc.Add(ctx, sess, "Soft Drink (500 ml)", 3); err != nil {
		t.Fatal(err)
	}
	stored, _ := svc.Get(ctx, sess)
	if stored.Subtotal() != 2*110+3*35 {
		t.Errorf("Subtotal() = %d", stored.Subtotal())
	}

	cart, err = svc.Remove(ctx, sess, "Veg Biryani")
	if err != nil || len(cart.Lines) != 1 {
		t.Fatalf("Remove() = %+v, %v", cart.Lines, err)
	}

	if err := svc.Clear(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if stored, _ := svc.Get(ctx, sess); !stored.IsEmpty() {
		t.Errorf("cart not cleared: %+v", stored)
	}
}

func TestServiceErrors(t *testing.T) {
	svc := NewService(memstore.New(), catalog.Default(), logger.Discard())
	ctx := context.Background()

	if _, err := svc.Add(ctx, models.Session{}, "Veg Roll", 1); !errors.Is(err, models.ErrMissingSession) {
		t.Errorf("missing session error = %v", err)
	}

	sess := models.Session{ID: "sess-2"}
	if _, err := svc.Add(ctx, sess, "Pepperoni", 1); !errors.Is(err, models.ErrItemNotFound) {
		t.Errorf("unknown item error = %v", err)
	}
	if stored, _ := svc.Get(ctx, sess); !stored.IsEmpty() {
		t.Errorf("failed add changed cart: %+v", stored)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := NewService(memstore.New(), catalog.Default(), logger.Discard())
	ctx := context.Background()

	svc.Add(ctx, models.Session{ID: "a"}, "Veg Roll", 1)
	svc.Add(ctx, models.Session{ID: "b"}, "Paneer Roll", 2)

	a, _ := svc.Get(ctx, models.Session{ID: "a"})
	b, _ := svc.Get(ctx, models.Session{ID: "b"})
	if a.Subtotal() != 50 || b.Subtotal() != 140 {
		t.Errorf("subtotals = %d, %d", a.Subtotal(), b.Subtotal())
	}
}
