package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"biryani-club/internal/models"
)

// CartStore keeps session carts in Redis as JSON with a sliding TTL: every
// load or save pushes the expiry out again.
type CartStore struct {
	client      *redis.Client
	serviceName string
	ttl         time.Duration
}

func NewCartStore(addr, password string, db int, serviceName string, ttl time.Duration) *CartStore {
	return &CartStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		serviceName: serviceName,
		ttl:         ttl,
	}
}

// GenerateKey namespaces keys by service and operation.
func (s *CartStore) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.serviceName, operation, key)
}

func (s *CartStore) LoadCart(ctx context.Context, sessionID string) (models.Cart, error) {
	raw, err := s.client.GetEx(ctx, s.GenerateKey("cart", sessionID), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cart{}, nil
	}
	if err != nil {
		return models.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return models.Cart{}, fmt.Errorf("failed to decode cart: %w", err)
	}
	return cart, nil
}

func (s *CartStore) SaveCart(ctx context.Context, sessionID string, cart models.Cart) error {
	if cart.IsEmpty() {
		return s.ClearCart(ctx, sessionID)
	}

	body, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.GenerateKey("cart", sessionID), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *CartStore) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.GenerateKey("cart", sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CartStore) Close() error {
	return s.client.Close()
}
