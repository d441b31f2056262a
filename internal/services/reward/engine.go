package reward

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

const maxCodeAttempts = 5

// RandomSource supplies uniform draws in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// CouponStore persists coupons. ConsumeCoupon must be an atomic
// compare-and-set on the used flag and report ErrCouponUsed,
// ErrCouponExpired or ErrCouponNotFound when it does not apply.
type CouponStore interface {
	SaveCoupon(ctx context.Context, c *models.Coupon) error
	LoadCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	ConsumeCoupon(ctx context.Context, code, orderID string, now time.Time) error
	ReleaseCoupon(ctx context.Context, code, orderID string) error
}

// OrderLookup is used to check the guaranteed-spin precondition.
type OrderLookup interface {
	LoadOrderByID(ctx context.Context, id string) (*models.Order, error)
}

type Config struct {
	Rewards   []models.Reward
	Random    RandomSource
	CouponTTL time.Duration
	// Now and NewCode default to time.Now and a uuid-derived code.
	Now     func() time.Time
	NewCode func() string
}

// Engine draws rewards and manages the coupons they produce.
type Engine struct {
	rewards    []models.Reward
	withEffect []models.Reward

	mu  sync.Mutex
	rng RandomSource

	ttl     time.Duration
	now     func() time.Time
	newCode func() string

	coupons CouponStore
	orders  OrderLookup
	logger  *logger.Logger
}

func NewEngine(cfg Config, coupons CouponStore, orders OrderLookup, log *logger.Logger) (*Engine, error) {
	if len(cfg.Rewards) == 0 {
		return nil, errors.New("reward table is empty")
	}
	if cfg.Random == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.CouponTTL <= 0 {
		return nil, errors.New("coupon ttl must be positive")
	}

	e := &Engine{
		rewards: append([]models.Reward(nil), cfg.Rewards...),
		rng:     cfg.Random,
		ttl:     cfg.CouponTTL,
		now:     cfg.Now,
		newCode: cfg.NewCode,
		coupons: coupons,
		orders:  orders,
		logger:  log,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newCode == nil {
		e.newCode = newCouponCode
	}

	for _, r := range e.rewards {
		if r.Weight <= 0 {
			return nil, fmt.Errorf("reward %q: weight must be positive", r.Name)
		}
		if !r.Effect.IsNone() {
			e.withEffect = append(e.withEffect, r)
		}
	}
	if len(e.withEffect) == 0 {
		return nil, errors.New("reward table has no reward with an effect")
	}

	return e, nil
}

// NewRandomSource returns a PCG generator. Seed 0 picks a random seed.
func NewRandomSource(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// pick draws one candidate with probability weight / sum(weights).
// Callers pre-filter candidates; weights are validated at construction.
func pick(candidates []models.Reward, rng RandomSource) models.Reward {
	total := 0
	for _, r := range candidates {
		total += r.Weight
	}

	n := rng.IntN(total)
	for _, r := range candidates {
		if n < r.Weight {
			return r
		}
		n -= r.Weight
	}
	return candidates[len(candidates)-1]
}

func (e *Engine) draw(candidates []models.Reward) models.Reward {
	e.mu.Lock()
	defer e.mu.Unlock()
	return pick(candidates, e.rng)
}

// Rewards returns the configured table.
func (e *Engine) Rewards() []models.Reward {
	return append([]models.Reward(nil), e.rewards...)
}

// Spin draws from the full table, "Better luck next time" included.
func (e *Engine) Spin() models.Reward {
	return e.draw(e.rewards)
}

// SpinGuaranteed draws only among rewards that carry an effect. orderID
// must name an existing order.
func (e *Engine) SpinGuaranteed(ctx context.Context, orderID string) (models.Reward, error) {
	if strings.TrimSpace(orderID) == "" {
		return models.Reward{}, models.ErrOrderNotFound
	}
	if _, err := e.orders.LoadOrderByID(ctx, orderID); err != nil {
		return models.Reward{}, err
	}
	return e.draw(e.withEffect), nil
}

// IssueCoupon stores a fresh coupon for reward. Codes that already exist
// are regenerated.
func (e *Engine) IssueCoupon(ctx context.Context, reward models.Reward, userID *int64) (*models.Coupon, error) {
	if reward.Effect.IsNone() {
		return nil, models.ErrNoEffect
	}

	now := e.now().UTC()
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := e.newCode()
		if !models.ValidCouponCode(code) {
			return nil, fmt.Errorf("generated coupon code %q is malformed", code)
		}

		if _, err := e.coupons.LoadCouponByCode(ctx, code); err == nil {
			e.logger.Warn("coupon_code_collision", "Generated coupon code already exists", "", map[string]interface{}{
				"attempt": attempt,
			})
			continue
		} else if !errors.Is(err, models.ErrCouponNotFound) {
			return nil, fmt.Errorf("failed to check coupon code: %w", err)
		}

		coupon := &models.Coupon{
			Code:       code,
			RewardName: reward.Name,
			Effect:     reward.Effect,
			UserID:     userID,
			CreatedAt:  now,
			ExpiresAt:  now.Add(e.ttl),
		}
		err := e.coupons.SaveCoupon(ctx, coupon)
		if errors.Is(err, models.ErrCouponExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save coupon: %w", err)
		}

		e.logger.Info("coupon_issued", "Issued coupon", "", map[string]interface{}{
			"reward":     reward.Name,
			"expires_at": coupon.ExpiresAt.Format(time.RFC3339),
		})
		return coupon, nil
	}

	return nil, fmt.Errorf("failed to generate a unique coupon code after %d attempts", maxCodeAttempts)
}

func (e *Engine) lookup(ctx context.Context, code string) (*models.Coupon, error) {
	code = models.NormalizeCouponCode(code)
	if !models.ValidCouponCode(code) {
		return nil, &models.InvalidCouponError{Code: code, Reason: models.ErrMalformedCouponCode}
	}

	coupon, err := e.coupons.LoadCouponByCode(ctx, code)
	if errors.Is(err, models.ErrCouponNotFound) {
		return nil, &models.InvalidCouponError{Code: code, Reason: models.ErrCouponNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	return coupon, nil
}

// Check reports whether code is currently redeemable without touching it.
func (e *Engine) Check(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := e.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := coupon.Validate(e.now()); err != nil {
		return nil, &models.InvalidCouponError{Code: coupon.Code, Reason: err}
	}
	return coupon, nil
}

// Redeem validates code and applies its effect to a copy of cart. A free
// item is appended as a zero-priced line; a discount leaves the cart as is
// and is applied at pricing time. The coupon is not marked used here.
func (e *Engine) Redeem(ctx context.Context, code string, cart models.Cart) (models.Effect, models.Cart, error) {
	coupon, err := e.Check(ctx, code)
	if err != nil {
		return models.NoEffect, cart, err
	}

	if item, ok := coupon.Effect.FreeItemName(); ok {
		cart = cart.AddFreeItem(item)
	}
	return coupon.Effect, cart, nil
}

// Consume marks code used by orderID. Of two concurrent calls for the same
// code exactly one succeeds; the other gets ErrCouponUsed.
func (e *Engine) Consume(ctx context.Context, code, orderID string) error {
	code = models.NormalizeCouponCode(code)

	err := e.coupons.ConsumeCoupon(ctx, code, orderID, e.now())
	switch {
	case err == nil:
		e.logger.Debug("coupon_consumed", "Coupon consumed", "", map[string]interface{}{
			"order_id": orderID,
		})
		return nil
	case errors.Is(err, models.ErrCouponUsed),
		errors.Is(err, models.ErrCouponExpired),
		errors.Is(err, models.ErrCouponNotFound):
		return &models.InvalidCouponError{Code: code, Reason: err}
	default:
		return fmt.Errorf("failed to consume coupon: %w", err)
	}
}

// Release returns a coupon consumed by orderID to the redeemable pool.
func (e *Engine) Release(ctx context.Context, code, orderID string) error {
	if err := e.coupons.ReleaseCoupon(ctx, models.NormalizeCouponCode(code), orderID); err != nil {
		return fmt.Errorf("failed to release coupon: %w", err)
	}
	return nil
}

// newCouponCode takes the first characters of an upper-cased uuid v4.
func newCouponCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:models.CouponCodeLength]
}
