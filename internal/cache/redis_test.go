package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"biryani-club/internal/models"
)

func TestGenerateKey(t *testing.T) {
	s := NewCartStore("localhost:0", "", 0, "order-service", time.Hour)
	defer s.Close()

	if got := s.GenerateKey("cart", "sess-1"); got != "order-service:cart:sess-1" {
		t.Errorf("GenerateKey() = %q", got)
	}
}

// TestCartRoundTrip runs against a live Redis when REDIS_ADDR is set.
func TestCartRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	s := NewCartStore(addr, "", 0, "cart-test", time.Minute)
	defer s.Close()
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	cart := models.Cart{Lines: []models.CartLine{
		{Name: "Veg Biryani", Price: 110, Quantity: 2},
		{Name: "Veg Roll", Quantity: 1, Free: true},
	}}
	if err := s.SaveCart(ctx, "sess-rt", cart); err != nil {
		t.Fatalf("SaveCart() error = %v", err)
	}

	key := s.GenerateKey("cart", "sess-rt")
	if err := s.client.Expire(ctx, key, 5*time.Second).Err(); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadCart(ctx, "sess-rt")
	if err != nil {
		t.Fatalf("LoadCart() error = %v", err)
	}
	if ttl := s.client.TTL(ctx, key).Val(); ttl <= 5*time.Second {
		t.Errorf("LoadCart() did not extend expiry: ttl = %v", ttl)
	}
	if got.Subtotal() != 220 || len(got.Lines) != 2 || !got.Lines[1].Free {
		t.Errorf("LoadCart() = %+v", got)
	}

	if err := s.ClearCart(ctx, "sess-rt"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.LoadCart(ctx, "sess-rt"); !got.IsEmpty() {
		t.Errorf("cart not cleared: %+v", got)
	}
}
