package user

import (
	"context"
	"errors"
	"testing"

	"biryani-club/internal/logger"
	"biryani-club/internal/memstore"
	"biryani-club/internal/models"
)

func TestAccount(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, logger.Discard())
	ctx := context.Background()

	u := &models.User{Username: "kabir"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	if err := svc.AddAddress(ctx, u.ID, " 4 Park Street "); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddAddress(ctx, u.ID, "4 park street"); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddAddress(ctx, u.ID, "  "); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("blank address error = %v", err)
	}

	if err := svc.CreditLoyalty(ctx, u.ID, 12); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreditLoyalty(ctx, u.ID, -1); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("negative credit error = %v", err)
	}

	got, err := svc.EnsureActive(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Addresses) != 1 || got.LoyaltyPoints != 12 {
		t.Errorf("user = %+v", got)
	}

	store.SetUserBanned(ctx, u.ID, true)
	if _, err := svc.EnsureActive(ctx, u.ID); !errors.Is(err, models.ErrUserBanned) {
		t.Errorf("banned user error = %v", err)
	}
	if _, err := svc.Get(ctx, 999); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("missing user error = %v", err)
	}
}

func TestNotifications(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, logger.Discard())
	ctx := context.Background()
	uid, other := int64(1), int64(2)

	for _, n := range []models.Notification{
		{UserID: &uid, Title: "one"},
		{UserID: &other, Title: "not mine"},
		{UserID: &uid, Title: "two"},
	} {
		store.SaveNotification(ctx, &n)
	}

	list, _ := svc.Notifications(ctx, uid, false)
	if len(list) != 2 || list[0].Title != "two" {
		t.Fatalf("Notifications() = %+v", list)
	}

	if err := svc.MarkRead(ctx, uid, list[0].ID); err != nil {
		t.Fatal(err)
	}
	unread, _ := svc.Notifications(ctx, uid, true)
	if len(unread) != 1 || unread[0].Title != "one" {
		t.Errorf("unread = %+v", unread)
	}

	if err := svc.MarkRead(ctx, uid, 2); !errors.Is(err, models.ErrNotificationNotFound) {
		t.Errorf("marking another user's notification = %v", err)
	}
}
