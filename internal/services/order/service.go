package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

// Store persists orders. UpdateOrderStatus and MarkSpinUsed are
// conditional single-record updates; ReleaseSpin undoes a claimed spin.
type Store interface {
	NextOrderSequence(ctx context.Context, day time.Time) (int64, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	LoadOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus, page int) ([]models.Order, int, error)
	ListOrdersByCourier(ctx context.Context, courierID int64, status models.OrderStatus) ([]models.Order, error)
	OrderStats(ctx context.Context) (models.OrderStats, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, eta *time.Time, courier *int64, at time.Time) error
	MarkSpinUsed(ctx context.Context, id string) error
	ReleaseSpin(ctx context.Context, id string) error
	SaveOrderRating(ctx context.Context, id string, rating int, feedback string) error
}

type UserStore interface {
	LoadUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUserLoyaltyPoints(ctx context.Context, id int64, delta int) error
	AddUserAddress(ctx context.Context, id int64, address string) error
}

type CartStore interface {
	LoadCart(ctx context.Context, sessionID string) (models.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// Rewards is the coupon side of checkout plus the post-delivery spin.
type Rewards interface {
	Redeem(ctx context.Context, code string, cart models.Cart) (models.Effect, models.Cart, error)
	Consume(ctx context.Context, code, orderID string) error
	Release(ctx context.Context, code, orderID string) error
	Spin() models.Reward
	IssueCoupon(ctx context.Context, reward models.Reward, userID *int64) (*models.Coupon, error)
}

// Notifier delivers customer notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, msg *models.NotificationMessage) error
}

type Config struct {
	ConfirmETA      time.Duration
	DispatchETA     time.Duration
	PointsPerRupees int
	Now             func() time.Time
}

// Service runs order placement and the order status lifecycle.
type Service struct {
	cfg      Config
	store    Store
	users    UserStore
	carts    CartStore
	rewards  Rewards
	notifier Notifier
	logger   *logger.Logger
}

func NewService(cfg Config, store Store, users UserStore, carts CartStore, rewards Rewards, notifier Notifier, log *logger.Logger) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PointsPerRupees <= 0 {
		cfg.PointsPerRupees = 10
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		users:    users,
		carts:    carts,
		rewards:  rewards,
		notifier: notifier,
		logger:   log,
	}
}

// Place turns the session's cart into a pending order. The coupon, if
// any, is validated first and consumed only once the order is priced; if
// the order cannot be saved the coupon is released again.
func (s *Service) Place(ctx context.Context, session models.Session, customer models.CustomerInfo, couponCode string) (*models.Order, error) {
	requestID := logger.RequestIDFrom(ctx)

	if err := session.Validate(); err != nil {
		return nil, err
	}
	if session.UserID != nil {
		user, err := s.users.LoadUser(ctx, *session.UserID)
		if err != nil {
			return nil, err
		}
		if !user.CanAuthenticate() {
			return nil, models.ErrUserBanned
		}
	}

	cart, err := s.carts.LoadCart(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	effect := models.NoEffect
	couponCode = models.NormalizeCouponCode(couponCode)
	if couponCode != "" {
		effect, cart, err = s.rewards.Redeem(ctx, couponCode, cart)
		if err != nil {
			return nil, err
		}
	}

	pricing := models.PriceOrder(cart.Subtotal(), effect, s.cfg.PointsPerRupees)
	now := s.cfg.Now().UTC()

	seq, err := s.store.NextOrderSequence(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}

	order := &models.Order{
		ID:                  models.GenerateOrderID(now, seq),
		UserID:              session.UserID,
		CustomerName:        customer.Name,
		CustomerPhone:       customer.Phone,
		DeliveryAddress:     customer.Address,
		PaymentMethod:       customer.PaymentMethod,
		Items:               cart.Snapshot(),
		Subtotal:            pricing.Subtotal,
		Discount:            pricing.Discount,
		Total:               pricing.Total,
		Status:              models.StatusPending,
		LoyaltyPointsEarned: pricing.LoyaltyPoints,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if couponCode != "" {
		order.CouponCode = &couponCode
		if err := s.rewards.Consume(ctx, couponCode, order.ID); err != nil {
			return nil, err
		}
	}

	if err := s.store.SaveOrder(ctx, order); err != nil {
		if order.CouponCode != nil {
			if relErr := s.rewards.Release(ctx, couponCode, order.ID); relErr != nil {
				s.logger.Error("coupon_release_failed", "Failed to release coupon after order save failure", requestID, relErr, map[string]interface{}{
					"order_id": order.ID,
				})
			}
		}
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if session.UserID != nil {
		s.creditUser(ctx, *session.UserID, order, requestID)
	}

	if err := s.carts.ClearCart(ctx, session.ID); err != nil {
		s.logger.Error("cart_clear_failed", "Failed to clear cart after placement", requestID, err, map[string]interface{}{
			"order_id": order.ID,
		})
	}

	s.notify(ctx, models.NewOrderPlacedMessage(order, now), requestID)

	s.logger.Info("order_placed", fmt.Sprintf("Order %s placed", order.ID), requestID, map[string]interface{}{
		"order_id": order.ID,
		"subtotal": order.Subtotal,
		"discount": order.Discount,
		"total":    order.Total,
		"coupon":   couponCode != "",
	})

	return order, nil
}

// creditUser applies the side effects on the customer account. The order
// already exists at this point, so failures are logged and not returned.
func (s *Service) creditUser(ctx context.Context, userID int64, order *models.Order, requestID string) {
	if order.LoyaltyPointsEarned > 0 {
		if err := s.users.UpdateUserLoyaltyPoints(ctx, userID, order.LoyaltyPointsEarned); err != nil {
			s.logger.Error("loyalty_credit_failed", "Failed to credit loyalty points", requestID, err, map[string]interface{}{
				"order_id": order.ID,
				"user_id":  userID,
				"points":   order.LoyaltyPointsEarned,
			})
		}
	}
	if err := s.users.AddUserAddress(ctx, userID, order.DeliveryAddress); err != nil {
		s.logger.Error("address_save_failed", "Failed to remember delivery address", requestID, err, map[string]interface{}{
			"user_id": userID,
		})
	}
}

// Transition moves an order one step along its lifecycle. Confirming and
// dispatching stamp an estimated delivery time. A non-nil courier assigns
// the delivery person in the same update. The notification that follows
// is best effort and never undoes the status change.
func (s *Service) Transition(ctx context.Context, orderID string, to models.OrderStatus, courier *int64) (*models.Order, error) {
	requestID := logger.RequestIDFrom(ctx)

	if !to.Known() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStatus, to)
	}

	order, err := s.store.LoadOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}

	if courier != nil {
		if _, err := s.users.LoadUser(ctx, *courier); errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ValidationError{Field: "delivery_person_id", Message: "unknown delivery person"}
		} else if err != nil {
			return nil, err
		}
	}

	now := s.cfg.Now().UTC()
	var eta *time.Time
	switch to {
	case models.StatusConfirmed:
		t := now.Add(s.cfg.ConfirmETA)
		eta = &t
	case models.StatusOutForDelivery:
		t := now.Add(s.cfg.DispatchETA)
		eta = &t
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, from, to, eta, courier, now); err != nil {
		return nil, err
	}

	order.Status = to
	order.UpdatedAt = now
	if eta != nil {
		order.EstimatedDelivery = eta
	}
	if courier != nil {
		order.DeliveryPersonID = courier
	}

	details := map[string]interface{}{
		"order_id":   orderID,
		"old_status": from,
		"new_status": to,
	}
	if courier != nil {
		details["delivery_person_id"] = *courier
	}
	s.logger.Info("order_status_changed", fmt.Sprintf("Order %s moved to %s", orderID, to), requestID, details)

	s.notify(ctx, models.NewStatusUpdateMessage(order, from, now), requestID)
	return order, nil
}

// MarkDelivered completes an order on behalf of its delivery person. Only
// the assigned courier may do so.
func (s *Service) MarkDelivered(ctx context.Context, orderID string, courierID int64) (*models.Order, error) {
	order, err := s.store.LoadOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DeliveryPersonID == nil || *order.DeliveryPersonID != courierID {
		return nil, models.ErrNotAssigned
	}
	return s.Transition(ctx, orderID, models.StatusDelivered, nil)
}

// List returns a page of all orders for staff. An empty status lists every
// order; pages below 1 are treated as the first.
func (s *Service) List(ctx context.Context, status models.OrderStatus, page int) (models.OrderPage, error) {
	if status != "" && !status.Known() {
		return models.OrderPage{}, models.ValidationError{Field: "status", Message: "unknown order status"}
	}
	page = max(page, 1)

	orders, total, err := s.store.ListOrders(ctx, status, page)
	if err != nil {
		return models.OrderPage{}, err
	}
	return models.NewOrderPage(orders, page, total), nil
}

// Stats returns the order figures of the staff dashboard.
func (s *Service) Stats(ctx context.Context) (models.OrderStats, error) {
	return s.store.OrderStats(ctx)
}

// CourierBoard is what a delivery person sees: orders on the road with
// them and how many they delivered today.
type CourierBoard struct {
	Assigned       []models.Order `json:"assigned_orders"`
	DeliveredToday int            `json:"delivered_today"`
}

func (s *Service) CourierBoard(ctx context.Context, courierID int64) (*CourierBoard, error) {
	assigned, err := s.store.ListOrdersByCourier(ctx, courierID, models.StatusOutForDelivery)
	if err != nil {
		return nil, err
	}
	delivered, err := s.store.ListOrdersByCourier(ctx, courierID, models.StatusDelivered)
	if err != nil {
		return nil, err
	}

	board := &CourierBoard{Assigned: assigned}
	if board.Assigned == nil {
		board.Assigned = []models.Order{}
	}
	y, m, d := s.cfg.Now().UTC().Date()
	for _, o := range delivered {
		oy, om, od := o.UpdatedAt.UTC().Date()
		if oy == y && om == m && od == d {
			board.DeliveredToday++
		}
	}
	return board, nil
}

func (s *Service) notify(ctx context.Context, msg *models.NotificationMessage, requestID string) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error("notification_publish_failed", "Failed to publish notification", requestID, err, map[string]interface{}{
			"order_id": msg.OrderID,
		})
	}
}

func (s *Service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.LoadOrderByID(ctx, orderID)
}

// History lists a user's orders, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

// CanSpin reports whether the order's reward spin is available.
func (s *Service) CanSpin(ctx context.Context, orderID string) (bool, error) {
	order, err := s.store.LoadOrderByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return order.CanSpin(), nil
}

// SpinResult is the drawn reward and, when it has an effect, its coupon.
type SpinResult struct {
	Reward models.Reward  `json:"reward"`
	Coupon *models.Coupon `json:"coupon,omitempty"`
}

// Spin uses the order's one reward spin. The spin flag is claimed before
// drawing, so a second attempt fails with ErrSpinAlreadyUsed. If the coupon
// cannot be issued the flag is released and the customer may spin again.
func (s *Service) Spin(ctx context.Context, orderID string) (*SpinResult, error) {
	requestID := logger.RequestIDFrom(ctx)

	order, err := s.store.LoadOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.Status != models.StatusDelivered:
		return nil, models.ErrOrderNotDelivered
	case order.SpinUsed:
		return nil, models.ErrSpinAlreadyUsed
	}

	if err := s.store.MarkSpinUsed(ctx, orderID); err != nil {
		return nil, err
	}

	result := &SpinResult{Reward: s.rewards.Spin()}
	if !result.Reward.Effect.IsNone() {
		coupon, err := s.rewards.IssueCoupon(ctx, result.Reward, order.UserID)
		if err != nil {
			s.logger.Error("coupon_issue_failed", "Coupon could not be issued, returning the spin", requestID, err, map[string]interface{}{
				"order_id": orderID,
				"reward":   result.Reward.Name,
			})
			if relErr := s.store.ReleaseSpin(ctx, orderID); relErr != nil {
				s.logger.Error("spin_release_failed", "Failed to release spin after coupon failure", requestID, relErr, map[string]interface{}{
					"order_id": orderID,
				})
			}
			return nil, err
		}
		result.Coupon = coupon
	}

	s.logger.Info("spin_used", fmt.Sprintf("Order %s spun %s", orderID, result.Reward.Name), requestID, map[string]interface{}{
		"order_id": orderID,
		"reward":   result.Reward.Name,
	})
	return result, nil
}

// Rate records a 1 to 5 star rating on a delivered order.
func (s *Service) Rate(ctx context.Context, orderID string, rating int, feedback string) error {
	if err := models.ValidateRating(rating); err != nil {
		return err
	}

	order, err := s.store.LoadOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.StatusDelivered {
		return models.ErrOrderNotDelivered
	}

	if err := s.store.SaveOrderRating(ctx, orderID, rating, feedback); err != nil {
		if errors.Is(err, models.ErrOrderNotDelivered) {
			return err
		}
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}
