package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"biryani-club/internal/models"
)

func (db *DB) SaveCoupon(ctx context.Context, c *models.Coupon) error {
	effect, err := json.Marshal(c.Effect)
	if err != nil {
		return fmt.Errorf("failed to encode coupon effect: %w", err)
	}

	_, err = db.Pool.Exec(ctx, InsertCouponSQL,
		c.Code, c.RewardName, effect, c.UserID, c.CreatedAt, c.ExpiresAt, c.Used, c.UsedByOrderID)
	if isUniqueViolation(err) {
		return models.ErrCouponExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert coupon: %w", err)
	}
	return nil
}

func (db *DB) LoadCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var (
		c      models.Coupon
		effect []byte
	)
	err := db.Pool.QueryRow(ctx, GetCouponByCodeSQL, code).Scan(
		&c.Code, &c.RewardName, &effect, &c.UserID, &c.CreatedAt, &c.ExpiresAt, &c.Used, &c.UsedByOrderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}

	if err := json.Unmarshal(effect, &c.Effect); err != nil {
		return nil, fmt.Errorf("failed to decode coupon effect: %w", err)
	}
	return &c, nil
}

// ConsumeCoupon marks the coupon used in a single conditional UPDATE. When
// no row matches, the coupon is re-read to report why.
func (db *DB) ConsumeCoupon(ctx context.Context, code, orderID string, now time.Time) error {
	tag, err := db.Pool.Exec(ctx, ConsumeCouponSQL, code, orderID, now)
	if err != nil {
		return fmt.Errorf("failed to consume coupon: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	c, err := db.LoadCouponByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := c.Validate(now); err != nil {
		return err
	}
	return models.ErrCouponUsed
}

func (db *DB) ReleaseCoupon(ctx context.Context, code, orderID string) error {
	if _, err := db.Pool.Exec(ctx, ReleaseCouponSQL, code, orderID); err != nil {
		return fmt.Errorf("failed to release coupon: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
