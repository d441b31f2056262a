package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"biryani-club/internal/logger"
	"biryani-club/internal/memstore"
	"biryani-club/internal/messaging"
	"biryani-club/internal/models"
)

func TestHandleStoresAndPrints(t *testing.T) {
	store := memstore.New()
	var out bytes.Buffer
	sub := NewSubscriber(nil, NewSink(store, &out, logger.Discard()), logger.Discard())
	ctx := context.Background()

	uid := int64(5)
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	eta := at.Add(45 * time.Minute)
	order := &models.Order{ID: "BC202603140001", UserID: &uid, Status: models.StatusConfirmed, EstimatedDelivery: &eta}

	body, err := json.Marshal(models.NewStatusUpdateMessage(order, models.StatusPending, at))
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Handle(ctx, body); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	line := out.String()
	for _, want := range []string{"Order BC202603140001 Updated", "Confirmed", "12:45"} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q missing %q", line, want)
		}
	}

	saved, _ := store.ListNotifications(ctx, uid, true)
	if len(saved) != 1 || saved[0].Title != "Order BC202603140001 Updated" {
		t.Errorf("stored = %+v", saved)
	}
}

func TestHandleGuestNotificationIsNotStored(t *testing.T) {
	store := memstore.New()
	var out bytes.Buffer
	sink := NewSink(store, &out, logger.Discard())

	msg := models.NewMessage(models.Notification{Title: "Hello", Message: "guest"}, time.Now())
	if err := sink.Notify(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Error("nothing printed")
	}
}

func TestHandleDiscardsGarbage(t *testing.T) {
	sub := NewSubscriber(nil, NewSink(memstore.New(), &bytes.Buffer{}, logger.Discard()), logger.Discard())
	err := sub.Handle(context.Background(), []byte("{not json"))
	if !errors.Is(err, messaging.ErrDiscard) {
		t.Errorf("Handle() error = %v, want ErrDiscard", err)
	}
}

func TestFormat(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	order := &models.Order{ID: "BC202603140002", Status: models.StatusDelivered}

	got := Format(models.NewStatusUpdateMessage(order, models.StatusOutForDelivery, at))
	want := "✅ [2026-03-14 18:30:00] Order BC202603140002 Delivered!: Your order has been delivered successfully. Enjoy your meal!"
	if got != want {
		t.Errorf("Format() = %q\nwant %q", got, want)
	}
}
