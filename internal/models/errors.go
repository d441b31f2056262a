package models

import (
	"errors"
	"fmt"
)

// Kind classifies business failures so the request boundary can map them.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidInput
	KindInvalidState
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Error is a typed business failure. Sentinels below are compared with
// errors.Is; callers add context with fmt.Errorf("%w").
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrItemNotFound   = &Error{KindNotFound, "item_not_found", "menu item not found"}
	ErrOrderNotFound  = &Error{KindNotFound, "order_not_found", "order not found"}
	ErrCouponNotFound = &Error{KindNotFound, "coupon_not_found", "coupon not found"}
	ErrUserNotFound   = &Error{KindNotFound, "user_not_found", "user not found"}
	ErrTicketNotFound = &Error{KindNotFound, "ticket_not_found", "support ticket not found"}

	ErrNotificationNotFound = &Error{KindNotFound, "notification_not_found", "notification not found"}

	ErrEmptyCart           = &Error{KindInvalidInput, "empty_cart", "cart is empty"}
	ErrMissingCustomerInfo = &Error{KindInvalidInput, "missing_customer_info", "customer name and address are required"}
	ErrInvalidInput        = &Error{KindInvalidInput, "invalid_input", "invalid input"}
	ErrMalformedCouponCode = &Error{KindInvalidInput, "malformed_coupon_code", "coupon code is malformed"}
	ErrMissingSession      = &Error{KindInvalidInput, "missing_session", "session id is required"}

	ErrInvalidTransition = &Error{KindInvalidState, "invalid_transition", "status transition not allowed"}
	ErrSpinAlreadyUsed   = &Error{KindInvalidState, "spin_already_used", "spin already used for this order"}
	ErrOrderNotDelivered = &Error{KindInvalidState, "order_not_delivered", "order must be delivered first"}
	ErrInvalidCoupon     = &Error{KindInvalidState, "invalid_coupon", "invalid or expired coupon code"}
	ErrCouponExpired     = &Error{KindInvalidState, "coupon_expired", "coupon has expired"}
	ErrCouponUsed        = &Error{KindInvalidState, "coupon_used", "coupon has already been used"}
	ErrCouponExists      = &Error{KindInvalidState, "coupon_exists", "coupon code already issued"}
	ErrUserBanned        = &Error{KindInvalidState, "user_banned", "account is banned"}
	ErrNoEffect          = &Error{KindInvalidState, "no_effect", "reward carries no effect"}

	ErrNotAssigned = &Error{KindForbidden, "not_assigned", "order is not assigned to this delivery person"}
)

// ErrUnknownStatus is a contract violation rather than a business failure:
// it means a caller passed a status outside the known enum.
var ErrUnknownStatus = errors.New("unknown order status")

// InvalidCouponError groups the reasons a coupon cannot be redeemed under a
// single class. errors.Is matches both ErrInvalidCoupon and the reason.
type InvalidCouponError struct {
	Code   string
	Reason error
}

func (e *InvalidCouponError) Error() string {
	return fmt.Sprintf("invalid coupon %q: %v", e.Code, e.Reason)
}

// Unwrap lists the reason first so errors.As finds its Kind.
func (e *InvalidCouponError) Unwrap() []error {
	return []error{e.Reason, ErrInvalidCoupon}
}

// KindOf returns the business kind of err, or KindUnknown for
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the stable machine code of err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}

// ValidationError reports a single offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidInput
}
