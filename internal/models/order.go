package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// nextStatus is the forward path. Cancellation is allowed from any
// non-terminal state and is handled separately.
var nextStatus = map[OrderStatus]OrderStatus{
	StatusPending:        StatusConfirmed,
	StatusConfirmed:      StatusPreparing,
	StatusPreparing:      StatusOutForDelivery,
	StatusOutForDelivery: StatusDelivered,
}

var statusDisplay = map[OrderStatus]string{
	StatusPending:        "Order Received",
	StatusConfirmed:      "Confirmed",
	StatusPreparing:      "Being Prepared",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

// Known reports whether s is part of the status enum.
func (s OrderStatus) Known() bool {
	_, ok := statusDisplay[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DisplayName is the customer-facing label.
func (s OrderStatus) DisplayName() string {
	if name, ok := statusDisplay[s]; ok {
		return name
	}
	return string(s)
}

// ParseOrderStatus converts external input into a known status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return nextStatus[from] == to
}

// OrdersPageSize is the page length of staff order listings.
const OrdersPageSize = 20

// OrderPage is one page of a listing, newest first. Page counts from 1.
type OrderPage struct {
	Orders  []Order `json:"orders"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Total   int     `json:"total"`
	Pages   int     `json:"pages"`
}

// NewOrderPage wraps one page of a listing of total orders.
func NewOrderPage(orders []Order, page, total int) OrderPage {
	if orders == nil {
		orders = []Order{}
	}
	return OrderPage{
		Orders:  orders,
		Page:    page,
		PerPage: OrdersPageSize,
		Total:   total,
		Pages:   (total + OrdersPageSize - 1) / OrdersPageSize,
	}
}

// OrderStats are the staff dashboard figures. Revenue counts delivered
// orders only.
type OrderStats struct {
	TotalOrders     int `json:"total_orders"`
	PendingOrders   int `json:"pending_orders"`
	DeliveredOrders int `json:"delivered_orders"`
	TotalRevenue    int `json:"total_revenue"`
	OpenTickets     int `json:"open_tickets"`
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentUPI  PaymentMethod = "upi"
)

// OrderItem is a snapshot of a cart line taken at placement. It does not
// follow later menu price changes.
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
	Free     bool   `json:"free,omitempty"`
}

// Order represents a placed customer order
type Order struct {
	ID                  string        `json:"order_id"`
	UserID              *int64        `json:"user_id,omitempty"`
	CustomerName        string        `json:"customer_name"`
	CustomerPhone       string        `json:"customer_phone,omitempty"`
	DeliveryAddress     string        `json:"customer_address"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
	Items               []OrderItem   `json:"items"`
	Subtotal            int           `json:"subtotal"`
	Discount            int           `json:"discount"`
	Total               int           `json:"total"`
	Status              OrderStatus   `json:"status"`
	LoyaltyPointsEarned int           `json:"loyalty_points_earned"`
	CouponCode          *string       `json:"coupon_code,omitempty"`
	SpinUsed            bool          `json:"spin_used"`
	DeliveryPersonID    *int64        `json:"delivery_person_id,omitempty"`
	EstimatedDelivery   *time.Time    `json:"estimated_delivery,omitempty"`
	Rating              *int          `json:"rating,omitempty"`
	Feedback            *string       `json:"feedback,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// CanSpin is true once the order is delivered and its spin is unused.
func (o *Order) CanSpin() bool {
	return o.Status == StatusDelivered && !o.SpinUsed
}

// Pricing is the outcome of applying an effect to a subtotal.
type Pricing struct {
	Subtotal      int
	Discount      int
	Total         int
	LoyaltyPoints int
}

// PriceOrder computes discount, total and loyalty points. pointsPer is the
// number of rupees that earn one point.
func PriceOrder(subtotal int, effect Effect, pointsPer int) Pricing {
	discount := effect.DiscountFor(subtotal)
	total := max(0, subtotal-discount)
	return Pricing{
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		LoyaltyPoints: LoyaltyPoints(total, pointsPer),
	}
}

// LoyaltyPoints is floor(total / pointsPer).
func LoyaltyPoints(total, pointsPer int) int {
	if pointsPer <= 0 || total <= 0 {
		return 0
	}
	return total / pointsPer
}

// GenerateOrderID builds ids of the form BCYYYYMMDDNNNN.
func GenerateOrderID(date time.Time, sequence int64) string {
	return fmt.Sprintf("BC%s%04d", date.UTC().Format("20060102"), sequence)
}

// CustomerInfo is the delivery contact captured at checkout.
type CustomerInfo struct {
	Name          string        `json:"customer_name"`
	Phone         string        `json:"customer_phone"`
	Address       string        `json:"customer_address"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,18}$`)

// Validate checks and normalises the customer fields in place.
func (c *CustomerInfo) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.Phone = strings.TrimSpace(c.Phone)

	if c.Name == "" {
		return fmt.Errorf("%w: %w", ErrMissingCustomerInfo, ValidationError{
			Field:   "customer_name",
			Message: "customer name is required",
		})
	}
	if c.Address == "" {
		return fmt.Errorf("%w: %w", ErrMissingCustomerInfo, ValidationError{
			Field:   "customer_address",
			Message: "delivery address is required",
		})
	}
	if len(c.Name) > 100 {
		return ValidationError{Field: "customer_name", Message: "customer name must be less than 100 characters"}
	}
	if c.Phone != "" && !phonePattern.MatchString(c.Phone) {
		return ValidationError{Field: "customer_phone", Message: "invalid phone number"}
	}

	switch c.PaymentMethod {
	case "":
		c.PaymentMethod = PaymentCash
	case PaymentCash, PaymentUPI:
	default:
		return ValidationError{Field: "payment_method", Message: "payment method must be cash or upi"}
	}
	return nil
}

// ValidateRating accepts 1 to 5 stars.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	return nil
}
