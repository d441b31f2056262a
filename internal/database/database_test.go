package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/db?sslmode=disable", "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{"postgresql://u@db/x", "pgx5://u@db/x"},
		{"pgx5://already", "pgx5://already"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 || len(entries)%2 != 0 {
		t.Errorf("expected paired up/down migrations, got %d files", len(entries))
	}
}

// openTestDB connects to TEST_DATABASE_URL and migrates it, or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := New(ctx, url, logger.Discard())
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.RunMigrations(url); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func TestOrderAndCouponRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	user := &models.User{Username: "it-" + now.Format("150405.000000")}
	if err := db.CreateUser(ctx, user); err != nil {
		t.Fatal(err)
	}

	seq, err := db.NextOrderSequence(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	order := &models.Order{
		ID:              models.GenerateOrderID(now, seq) + "T",
		UserID:          &user.ID,
		CustomerName:    "Test",
		DeliveryAddress: "1 Test Lane",
		PaymentMethod:   models.PaymentUPI,
		Items:           []models.OrderItem{{Name: "Veg Roll", Quantity: 2, Price: 50}},
		Subtotal:        100,
		Total:           100,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.SaveOrder(ctx, order); err != nil {
		t.Fatal(err)
	}

	if err := db.UpdateOrderStatus(ctx, order.ID, models.StatusPending, models.StatusConfirmed, nil, nil, now); err != nil {
		t.Fatal(err)
	}
	err = db.UpdateOrderStatus(ctx, order.ID, models.StatusPending, models.StatusCancelled, nil, nil, now)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("stale UpdateOrderStatus() = %v", err)
	}
	if err := db.MarkSpinUsed(ctx, order.ID); !errors.Is(err, models.ErrOrderNotDelivered) {
		t.Errorf("MarkSpinUsed() on undelivered = %v", err)
	}

	loaded, err := db.LoadOrderByID(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != models.StatusConfirmed || len(loaded.Items) != 1 || loaded.PaymentMethod != models.PaymentUPI {
		t.Errorf("LoadOrderByID() = %+v", loaded)
	}

	coupon := &models.Coupon{
		Code:       fmt.Sprintf("IT%013d", now.UnixNano()%1e13),
		RewardName: "₹20 off",
		Effect:     models.MustDiscount(20),
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.SaveCoupon(ctx, coupon); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveCoupon(ctx, coupon); !errors.Is(err, models.ErrCouponExists) {
		t.Errorf("duplicate SaveCoupon() = %v", err)
	}

	if err := db.ConsumeCoupon(ctx, coupon.Code, order.ID, now); err != nil {
		t.Fatal(err)
	}
	if err := db.ConsumeCoupon(ctx, coupon.Code, "other", now); !errors.Is(err, models.ErrCouponUsed) {
		t.Errorf("second ConsumeCoupon() = %v", err)
	}

	got, err := db.LoadCouponByCode(ctx, coupon.Code)
	if err != nil {
		t.Fatal(err)
	}
	if amount, ok := got.Effect.DiscountAmount(); !ok || amount != 20 || !got.Used {
		t.Errorf("LoadCouponByCode() = %+v", got)
	}
}
