package cart

import (
	"context"
	"fmt"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

// Store keeps one cart per session.
type Store interface {
	LoadCart(ctx context.Context, sessionID string) (models.Cart, error)
	SaveCart(ctx context.Context, sessionID string, cart models.Cart) error
	ClearCart(ctx context.Context, sessionID string) error
}

// Service applies cart operations to the session's stored cart.
type Service struct {
	store   Store
	catalog models.Catalog
	logger  *logger.Logger
}

func NewService(store Store, catalog models.Catalog, log *logger.Logger) *Service {
	return &Service{store: store, catalog: catalog, logger: log}
}

func (s *Service) Get(ctx context.Context, session models.Session) (models.Cart, error) {
	if err := session.Validate(); err != nil {
		return models.Cart{}, err
	}
	return s.store.LoadCart(ctx, session.ID)
}

func (s *Service) Add(ctx context.Context, session models.Session, itemName string, qty int) (models.Cart, error) {
	return s.update(ctx, session, func(c models.Cart) (models.Cart, error) {
		return c.AddItem(s.catalog, itemName, qty)
	})
}

func (s *Service) Remove(ctx context.Context, session models.Session, itemName string) (models.Cart, error) {
	return s.update(ctx, session, func(c models.Cart) (models.Cart, error) {
		return c.RemoveItem(itemName), nil
	})
}

func (s *Service) Clear(ctx context.Context, session models.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	return s.store.ClearCart(ctx, session.ID)
}

func (s *Service) update(ctx context.Context, session models.Session, apply func(models.Cart) (models.Cart, error)) (models.Cart, error) {
	if err := session.Validate(); err != nil {
		return models.Cart{}, err
	}

	current, err := s.store.LoadCart(ctx, session.ID)
	if err != nil {
		return models.Cart{}, err
	}

	updated, err := apply(current)
	if err != nil {
		return current, err
	}

	if err := s.store.SaveCart(ctx, session.ID, updated); err != nil {
		return current, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug("cart_updated", "Cart updated", session.ID, map[string]interface{}{
		"lines":    len(updated.Lines),
		"subtotal": updated.Subtotal(),
	})
	return updated, nil
}
