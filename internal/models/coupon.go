package models

import (
	"strings"
	"time"
)

// CouponCodeLength is the length of issued codes.
const CouponCodeLength = 15

// Coupon is a single-use code carrying a snapshot of a reward effect.
type Coupon struct {
	Code          string    `json:"code"`
	RewardName    string    `json:"reward_name"`
	Effect        Effect    `json:"effect"`
	UserID        *int64    `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Used          bool      `json:"used"`
	UsedByOrderID *string   `json:"used_by_order_id,omitempty"`
}

// Validate returns nil when the coupon can still be redeemed at now.
func (c *Coupon) Validate(now time.Time) error {
	if c.Used {
		return ErrCouponUsed
	}
	if !now.Before(c.ExpiresAt) {
		return ErrCouponExpired
	}
	return nil
}

func (c *Coupon) IsRedeemable(now time.Time) bool {
	return c.Validate(now) == nil
}

// NormalizeCouponCode trims and upper-cases user input.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCouponCode reports whether code has the issued shape: fixed length,
// upper-case letters and digits only.
func ValidCouponCode(code string) bool {
	if len(code) != CouponCodeLength {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
