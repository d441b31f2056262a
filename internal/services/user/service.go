package user

import (
	"context"
	"strings"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

type Store interface {
	LoadUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUserLoyaltyPoints(ctx context.Context, id int64, delta int) error
	AddUserAddress(ctx context.Context, id int64, address string) error
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
}

// Service exposes account state to the HTTP layer. Registration and
// passwords are handled elsewhere.
type Service struct {
	store  Store
	logger *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.store.LoadUser(ctx, id)
}

// EnsureActive loads the user and rejects banned accounts.
func (s *Service) EnsureActive(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.LoadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.CanAuthenticate() {
		return nil, models.ErrUserBanned
	}
	return u, nil
}

func (s *Service) AddAddress(ctx context.Context, id int64, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.ValidationError{Field: "address", Message: "address is required"}
	}
	return s.store.AddUserAddress(ctx, id, address)
}

func (s *Service) CreditLoyalty(ctx context.Context, id int64, points int) error {
	if points < 0 {
		return models.ValidationError{Field: "points", Message: "points must not be negative"}
	}
	if points == 0 {
		return nil
	}
	if err := s.store.UpdateUserLoyaltyPoints(ctx, id, points); err != nil {
		return err
	}
	s.logger.Info("loyalty_credited", "Loyalty points credited", logger.RequestIDFrom(ctx), map[string]interface{}{
		"user_id": id,
		"points":  points,
	})
	return nil
}

func (s *Service) Notifications(ctx context.Context, id int64, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, id, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}
