// Package memstore keeps every record in process memory. It backs the
// --in-memory development mode and the service tests, and mirrors the
// conditional-update semantics of the Postgres repositories.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"biryani-club/internal/models"
)

type Store struct {
	mu sync.Mutex

	orders        map[string]*models.Order
	orderSeq      map[string]int64
	coupons       map[string]*models.Coupon
	users         map[int64]*models.User
	nextUserID    int64
	tickets       map[string]*models.SupportTicket
	ticketSeq     int
	notifications []*models.Notification
	carts         map[string]models.Cart
}

func New() *Store {
	return &Store{
		orders:   make(map[string]*models.Order),
		orderSeq: make(map[string]int64),
		coupons:  make(map[string]*models.Coupon),
		users:    make(map[int64]*models.User),
		tickets:  make(map[string]*models.SupportTicket),
		carts:    make(map[string]models.Cart),
	}
}

// Orders

func (s *Store) NextOrderSequence(ctx context.Context, day time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := day.UTC().Format("20060102")
	s.orderSeq[key]++
	return s.orderSeq[key], nil
}

func (s *Store) SaveOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *Store) LoadOrderByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Order
	for _, o := range s.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListOrders returns one page of orders, newest first. An empty status
// lists every order.
func (s *Store) ListOrders(ctx context.Context, status models.OrderStatus, page int) ([]models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []models.Order
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			all = append(all, *cloneOrder(o))
		}
	}
	sortNewestFirst(all)

	start := (page - 1) * models.OrdersPageSize
	if start >= len(all) {
		return nil, len(all), nil
	}
	end := min(start+models.OrdersPageSize, len(all))
	return all[start:end], len(all), nil
}

func (s *Store) ListOrdersByCourier(ctx context.Context, courierID int64, status models.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Order
	for _, o := range s.orders {
		if o.DeliveryPersonID != nil && *o.DeliveryPersonID == courierID && o.Status == status {
			out = append(out, *cloneOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// OrderStats fills the order figures; OpenTickets is left to the caller.
func (s *Store) OrderStats(ctx context.Context) (models.OrderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st models.OrderStats
	for _, o := range s.orders {
		st.TotalOrders++
		switch o.Status {
		case models.StatusPending:
			st.PendingOrders++
		case models.StatusDelivered:
			st.DeliveredOrders++
			st.TotalRevenue += o.Total
		}
	}
	return st, nil
}

// UpdateOrderStatus moves an order only if it is still in from. A non-nil
// courier assigns the delivery person in the same step.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, eta *time.Time, courier *int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if o.Status != from {
		return fmt.Errorf("%w: order %s is %s, not %s", models.ErrInvalidTransition, id, o.Status, from)
	}
	o.Status = to
	if eta != nil {
		t := *eta
		o.EstimatedDelivery = &t
	}
	if courier != nil {
		c := *courier
		o.DeliveryPersonID = &c
	}
	o.UpdatedAt = at
	return nil
}

// MarkSpinUsed flips the spin flag of a delivered order exactly once.
func (s *Store) MarkSpinUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	switch {
	case !ok:
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	case o.Status != models.StatusDelivered:
		return models.ErrOrderNotDelivered
	case o.SpinUsed:
		return models.ErrSpinAlreadyUsed
	}
	o.SpinUsed = true
	return nil
}

// ReleaseSpin clears a claimed spin flag so the order can spin again.
func (s *Store) ReleaseSpin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	o.SpinUsed = false
	return nil
}

func (s *Store) SaveOrderRating(ctx context.Context, id string, rating int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}
	if o.Status != models.StatusDelivered {
		return models.ErrOrderNotDelivered
	}
	o.Rating = &rating
	o.Feedback = &feedback
	return nil
}

// Coupons

func (s *Store) SaveCoupon(ctx context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.coupons[c.Code]; exists {
		return models.ErrCouponExists
	}
	cp := *c
	s.coupons[c.Code] = &cp
	return nil
}

func (s *Store) LoadCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return nil, models.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

// ConsumeCoupon is the compare-and-set on the used flag.
func (s *Store) ConsumeCoupon(ctx context.Context, code, orderID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return models.ErrCouponNotFound
	}
	if err := c.Validate(now); err != nil {
		return err
	}
	c.Used = true
	id := orderID
	c.UsedByOrderID = &id
	return nil
}

// ReleaseCoupon undoes ConsumeCoupon for the order that holds it.
func (s *Store) ReleaseCoupon(ctx context.Context, code, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return models.ErrCouponNotFound
	}
	if !c.Used || c.UsedByOrderID == nil || *c.UsedByOrderID != orderID {
		return nil
	}
	c.Used = false
	c.UsedByOrderID = nil
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("%w: username %s taken", models.ErrInvalidInput, u.Username)
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	cp := *u
	cp.Addresses = slices.Clone(u.Addresses)
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) LoadUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	cp := *u
	cp.Addresses = slices.Clone(u.Addresses)
	return &cp, nil
}

func (s *Store) UpdateUserLoyaltyPoints(ctx context.Context, id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	u.LoyaltyPoints += delta
	return nil
}

func (s *Store) AddUserAddress(ctx context.Context, id int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	if !u.HasAddress(address) {
		u.Addresses = append(u.Addresses, strings.TrimSpace(address))
	}
	return nil
}

func (s *Store) SetUserBanned(ctx context.Context, id int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, id)
	}
	u.IsBanned = banned
	return nil
}

// Support tickets

func (s *Store) NextTicketSequence(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticketSeq++
	return s.ticketSeq, nil
}

func (s *Store) SaveTicket(ctx context.Context, t *models.SupportTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[t.ID]; exists {
		return fmt.Errorf("ticket %s already exists", t.ID)
	}
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *Store) LoadTicket(ctx context.Context, id string) (*models.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrTicketNotFound, id)
	}
	cp := *t
	return &cp, nil
}

// UpdateTicket writes t only if the stored status still equals from. The
// compensated flag is owned by MarkTicketCompensated and left as stored.
func (s *Store) UpdateTicket(ctx context.Context, t *models.SupportTicket, from models.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tickets[t.ID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrTicketNotFound, t.ID)
	}
	if current.Status != from {
		return fmt.Errorf("%w: ticket %s changed concurrently", models.ErrInvalidTransition, t.ID)
	}
	cp := *t
	cp.Compensated = current.Compensated
	s.tickets[t.ID] = &cp
	return nil
}

// MarkTicketCompensated sets the compensated flag if it is still clear.
func (s *Store) MarkTicketCompensated(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrTicketNotFound, id)
	}
	if t.Compensated {
		return fmt.Errorf("%w: ticket %s already compensated", models.ErrInvalidTransition, id)
	}
	t.Compensated = true
	t.UpdatedAt = at
	return nil
}

// ReleaseTicketCompensation clears the compensated flag again.
func (s *Store) ReleaseTicketCompensation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrTicketNotFound, id)
	}
	t.Compensated = false
	return nil
}

func (s *Store) CountTickets(ctx context.Context, status models.TicketStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tickets {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListTickets(ctx context.Context, status models.TicketStatus) ([]models.SupportTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.SupportTicket
	for _, t := range s.tickets {
		if status == "" || t.Status == status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Notifications

func (s *Store) SaveNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = int64(len(s.notifications) + 1)
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.UserID == nil || *n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id && n.UserID != nil && *n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("%w: %d", models.ErrNotificationNotFound, id)
}

// Carts

func (s *Store) LoadCart(ctx context.Context, sessionID string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.carts[sessionID]
	return models.Cart{Lines: slices.Clone(cart.Lines)}, nil
}

func (s *Store) SaveCart(ctx context.Context, sessionID string, cart models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[sessionID] = models.Cart{Lines: slices.Clone(cart.Lines)}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		cp.EstimatedDelivery = &t
	}
	if o.DeliveryPersonID != nil {
		id := *o.DeliveryPersonID
		cp.DeliveryPersonID = &id
	}
	return &cp
}

// sortNewestFirst orders by creation time, breaking ties on the id.
func sortNewestFirst(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}
