package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"biryani-club/internal/catalog"
	"biryani-club/internal/logger"
	"biryani-club/internal/memstore"
	"biryani-club/internal/models"
	"biryani-club/internal/services/reward"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixedRandom struct{ n int }

func (f fixedRandom) IntN(max int) int { return f.n % max }

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []*models.NotificationMessage
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, msg *models.NotificationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

type failingSaveStore struct {
	*memstore.Store
}

func (f failingSaveStore) SaveOrder(ctx context.Context, order *models.Order) error {
	return errors.New("disk full")
}

type fixture struct {
	store    *memstore.Store
	engine   *reward.Engine
	notifier *recordingNotifier
	svc      *Service
	userID   int64
}

func newFixture(t *testing.T, draw int) *fixture {
	t.Helper()

	store := memstore.New()
	engine, err := reward.NewEngine(reward.Config{
		Rewards:   reward.DefaultRewards(),
		Random:    fixedRandom{n: draw},
		CouponTTL: 72 * time.Hour,
		Now:       func() time.Time { return fixedNow },
	}, store, store, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}

	user := &models.User{Username: "asha", FullName: "Asha Rao"}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	f := &fixture{store: store, engine: engine, notifier: &recordingNotifier{}, userID: user.ID}
	f.svc = f.newService(store)
	return f
}

func (f *fixture) newService(orders Store) *Service {
	return NewService(Config{
		ConfirmETA:      45 * time.Minute,
		DispatchETA:     15 * time.Minute,
		PointsPerRupees: 10,
		Now:             func() time.Time { return fixedNow },
	}, orders, f.store, f.store, f.engine, f.notifier, logger.Discard())
}

func (f *fixture) session(id string) models.Session {
	uid := f.userID
	return models.Session{ID: id, UserID: &uid}
}

func (f *fixture) fillCart(t *testing.T, sessionID string, items map[string]int) {
	t.Helper()
	cart := models.Cart{}
	var err error
	for name, qty := range items {
		cart, err = cart.AddItem(catalog.Default(), name, qty)
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := f.store.SaveCart(context.Background(), sessionID, cart); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) issue(t *testing.T, effect models.Effect) string {
	t.Helper()
	c, err := f.engine.IssueCoupon(context.Background(), models.Reward{Name: "test", Effect: effect, Weight: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c.Code
}

var customer = models.CustomerInfo{Name: "Asha Rao", Phone: "+91 98450 12345", Address: "12 MG Road, Bengaluru"}

func TestPlaceWithDiscountCoupon(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	sess := f.session("s1")
	f.fillCart(t, "s1", map[string]int{"Chicken Biryani (Full)": 1, "Soft Drink (500 ml)": 1})
	code := f.issue(t, models.MustDiscount(50))

	order, err := f.svc.Place(ctx, sess, customer, code)
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}

	if order.Subtotal != 235 || order.Discount != 50 || order.Total != 185 {
		t.Errorf("pricing = %d/%d/%d, want 235/50/185", order.Subtotal, order.Discount, order.Total)
	}
	if order.LoyaltyPointsEarned != 18 {
		t.Errorf("LoyaltyPointsEarned = %d, want 18", order.LoyaltyPointsEarned)
	}
	if order.Status != models.StatusPending {
		t.Errorf("Status = %s", order.Status)
	}
	if order.ID != "BC202603140001" {
		t.Errorf("ID = %s", order.ID)
	}
	if order.PaymentMethod != models.PaymentCash {
		t.Errorf("PaymentMethod = %s", order.PaymentMethod)
	}

	coupon, _ := f.store.LoadCouponByCode(ctx, code)
	if !coupon.Used || coupon.UsedByOrderID == nil || *coupon.UsedByOrderID != order.ID {
		t.Errorf("coupon not consumed by order: %+v", coupon)
	}

	user, _ := f.store.LoadUser(ctx, f.userID)
	if user.LoyaltyPoints != 18 {
		t.Errorf("user points = %d, want 18", user.LoyaltyPoints)
	}
	if !user.HasAddress(customer.Address) {
		t.Errorf("address not remembered: %v", user.Addresses)
	}

	if cart, _ := f.store.LoadCart(ctx, "s1"); !cart.IsEmpty() {
		t.Errorf("cart not cleared: %+v", cart)
	}

	if len(f.notifier.msgs) != 1 || f.notifier.msgs[0].OrderID != order.ID {
		t.Errorf("notifications = %+v", f.notifier.msgs)
	}

	if _, err := f.svc.Place(ctx, sess, customer, code); !errors.Is(err, models.ErrEmptyCart) {
		t.Errorf("second Place() on cleared cart = %v", err)
	}
}

func TestPlaceWithFreeItemCoupon(t *testing.T) {
	f := newFixture(t, 0)
	f.fillCart(t, "s1", map[string]int{"Veg Biryani": 1})
	code := f.issue(t, models.MustFreeItem("Veg Roll"))

	order, err := f.svc.Place(context.Background(), f.session("s1"), customer, code)
	if err != nil {
		t.Fatal(err)
	}

	if order.Total != 110 || order.Discount != 0 {
		t.Errorf("total = %d discount = %d", order.Total, order.Discount)
	}
	if len(order.Items) != 2 || !order.Items[1].Free || order.Items[1].Name != "Veg Roll" {
		t.Errorf("items = %+v", order.Items)
	}
}

func TestPlaceRejections(t *testing.T) {
	tests := []struct {
		name     string
		items    map[string]int
		customer models.CustomerInfo
		coupon   func(t *testing.T, f *fixture) string
		want     error
	}{
		{
			name:     "empty cart",
			customer: customer,
			want:     models.ErrEmptyCart,
		},
		{
			name:     "missing name",
			items:    map[string]int{"Veg Roll": 1},
			customer: models.CustomerInfo{Address: "somewhere"},
			want:     models.ErrMissingCustomerInfo,
		},
		{
			name:     "missing address",
			items:    map[string]int{"Veg Roll": 1},
			customer: models.CustomerInfo{Name: "Ravi"},
			want:     models.ErrMissingCustomerInfo,
		},
		{
			name:     "unknown coupon",
			items:    map[string]int{"Veg Roll": 1},
			customer: customer,
			coupon:   func(*testing.T, *fixture) string { return "ABCDEF123456789" },
			want:     models.ErrInvalidCoupon,
		},
		{
			name:     "used coupon",
			items:    map[string]int{"Veg Roll": 1},
			customer: customer,
			coupon: func(t *testing.T, f *fixture) string {
				code := f.issue(t, models.MustDiscount(20))
				if err := f.engine.Consume(context.Background(), code, "BC202603130001"); err != nil {
					t.Fatal(err)
				}
				return code
			},
			want: models.ErrCouponUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			if tt.items != nil {
				f.fillCart(t, "s1", tt.items)
			}
			code := ""
			if tt.coupon != nil {
				code = tt.coupon(t, f)
			}

			_, err := f.svc.Place(context.Background(), f.session("s1"), tt.customer, code)
			if !errors.Is(err, tt.want) {
				t.Errorf("Place() error = %v, want %v", err, tt.want)
			}
			if len(f.notifier.msgs) != 0 {
				t.Errorf("rejected placement notified: %+v", f.notifier.msgs)
			}
		})
	}
}

func TestPlaceMissingSession(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.Place(context.Background(), models.Session{}, customer, "")
	if !errors.Is(err, models.ErrMissingSession) {
		t.Errorf("Place() error = %v", err)
	}
}

func TestPlaceBannedUser(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"Veg Roll": 1})
	f.store.SetUserBanned(ctx, f.userID, true)

	if _, err := f.svc.Place(ctx, f.session("s1"), customer, ""); !errors.Is(err, models.ErrUserBanned) {
		t.Errorf("Place() error = %v", err)
	}
}

func TestPlaceGuestSkipsLoyalty(t *testing.T) {
	f := newFixture(t, 0)
	f.fillCart(t, "guest", map[string]int{"Paneer Biryani": 1})

	order, err := f.svc.Place(context.Background(), models.Session{ID: "guest"}, customer, "")
	if err != nil {
		t.Fatal(err)
	}
	if order.UserID != nil || order.LoyaltyPointsEarned != 16 {
		t.Errorf("order = %+v", order)
	}
}

func TestPlaceReleasesCouponWhenSaveFails(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	f.fillCart(t, "s1", map[string]int{"Veg Biryani": 2})
	code := f.issue(t, models.MustDiscount(20))

	svc := f.newService(failingSaveStore{f.store})
	if _, err := svc.Place(ctx, f.session("s1"), customer, code); err == nil {
		t.Fatal("Place() succeeded with failing store")
	}

	coupon, _ := f.store.LoadCouponByCode(ctx, code)
	if coupon.Used {
		t.Errorf("coupon still marked used: %+v", coupon)
	}
	if cart, _ := f.store.LoadCart(ctx, "s1"); cart.IsEmpty() {
		t.Error("cart cleared after failed placement")
	}
	user, _ := f.store.LoadUser(ctx, f.userID)
	if user.LoyaltyPoints != 0 {
		t.Errorf("points credited for failed order: %d", user.LoyaltyPoints)
	}
}

func placeOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	f.fillCart(t, "s1", map[string]int{"Egg Biryani": 1})
	order, err := f.svc.Place(context.Background(), f.session("s1"), customer, "")
	if err != nil {
		t.Fatal(err)
	}
	return order
}

func deliver(t *testing.T, f *fixture, id string) {
	t.Helper()
	for _, s := range []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusOutForDelivery,
		models.StatusDelivered,
	} {
		if _, err := f.svc.Transition(context.Background(), id, s, nil); err != nil {
			t.Fatalf("Transition(%s) error = %v", s, err)
		}
	}
}

func TestTransitionStampsETA(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	order := placeOrder(t, f)

	confirmed, err := f.svc.Transition(ctx, order.ID, models.StatusConfirmed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := fixedNow.Add(45 * time.Minute); confirmed.EstimatedDelivery == nil || !confirmed.EstimatedDelivery.Equal(want) {
		t.Errorf("confirm ETA = %v, want %v", confirmed.EstimatedDelivery, want)
	}

	f.svc.Transition(ctx, order.ID, models.StatusPreparing, nil)
	out, err := f.svc.Transition(ctx, order.ID, models.StatusOutForDelivery, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := fixedNow.Add(15 * time.Minute); out.EstimatedDelivery == nil || !out.EstimatedDelivery.Equal(want) {
		t.Errorf("dispatch ETA = %v, want %v", out.EstimatedDelivery, want)
	}

	stored, _ := f.svc.Get(ctx, order.ID)
	if stored.Status != models.StatusOutForDelivery {
		t.Errorf("stored status = %s", stored.Status)
	}

	last := f.notifier.msgs[len(f.notifier.msgs)-1]
	if last.OldStatus != models.StatusPreparing || last.NewStatus != models.StatusOutForDelivery {
		t.Errorf("last notification = %+v", last)
	}
}

func TestTransitionRejections(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	order := placeOrder(t, f)

	tests := []struct {
		name string
		id   string
		to   models.OrderStatus
		want error
	}{
		{"skip ahead", order.ID, models.StatusDelivered, models.ErrInvalidTransition},
		{"backwards", order.ID, models.StatusPending, models.ErrInvalidTransition},
		{"unknown status", order.ID, models.OrderStatus("teleported"), models.ErrUnknownStatus},
		{"missing order", "BC000000000000", models.StatusConfirmed, models.ErrOrderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Transition(ctx, tt.id, tt.to, nil); !errors.Is(err, tt.want) {
				t.Errorf("Transition() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.svc.Transition(ctx, order.ID, models.StatusCancelled, nil); err != nil {
		t.Fatalf("cancel error = %v", err)
	}
	if _, err := f.svc.Transition(ctx, order.ID, models.StatusConfirmed, nil); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("transition out of cancelled = %v", err)
	}
}

func TestTransitionSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	order := placeOrder(t, f)
	f.notifier.err = errors.New("broker down")

	if _, err := f.svc.Transition(ctx, order.ID, models.StatusConfirmed, nil); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	stored, _ := f.svc.Get(ctx, order.ID)
	if stored.Status != models.StatusConfirmed {
		t.Errorf("status rolled back to %s", stored.Status)
	}
}

func TestSpinOncePerDeliveredOrder(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	order := placeOrder(t, f)

	if ok, _ := f.svc.CanSpin(ctx, order.ID); ok {
		t.Error("CanSpin() true before delivery")
	}
	if _, err := f.svc.Spin(ctx, order.ID); !errors.Is(err, models.ErrOrderNotDelivered) {
		t.Errorf("Spin() before delivery = %v", err)
	}

	deliver(t, f, order.ID)
	if ok, _ := f.svc.CanSpin(ctx, order.ID); !ok {
		t.Error("CanSpin() false after delivery")
	}

	result, err := f.svc.Spin(ctx, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Reward.Name != "Free Soft Drink" || result.Coupon == nil {
		t.Fatalf("Spin() = %+v", result)
	}
	if want := fixedNow.Add(72 * time.Hour); !result.Coupon.ExpiresAt.Equal(want) {
		t.Errorf("coupon expires %v, want %v", result.Coupon.ExpiresAt, want)
	}
	if result.Coupon.UserID == nil || *result.Coupon.UserID != f.userID {
		t.Errorf("coupon owner = %v", result.Coupon.UserID)
	}

	if ok, _ := f.svc.CanSpin(ctx, order.ID); ok {
		t.Error("CanSpin() true after spinning")
	}
	if _, err := f.svc.Spin(ctx, order.ID); !errors.Is(err, models.ErrSpinAlreadyUsed) {
		t.Errorf("second Spin() = %v", err)
	}
}

func TestSpinWithoutEffectIssuesNoCoupon(t *testing.T) {
	f := newFixture(t, 60)
	order := placeOrder(t, f)
	deliver(t, f, order.ID)

	result, err := f.svc.Spin(context.Background(), order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Reward.Effect.IsNone() || result.Coupon != nil {
		t.Errorf("Spin() = %+v", result)
	}
}

func TestRate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	order := placeOrder(t, f)

	if err := f.svc.Rate(ctx, order.ID, 5, "great"); !errors.Is(err, models.ErrOrderNotDelivered) {
		t.Errorf("Rate() before delivery = %v", err)
	}

	deliver(t, f, order.ID)
	if err := f.svc.Rate(ctx, order.ID, 6, ""); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Rate(6) = %v", err)
	}
	if err := f.svc.Rate(ctx, order.ID, 4, "tasty"); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.svc.Get(ctx, order.ID)
	if stored.Rating == nil || *stored.Rating != 4 || *stored.Feedback != "tasty" {
		t.Errorf("rating = %v feedback = %v", stored.Rating, stored.Feedback)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t, 0)
	placeOrder(t, f)
	placeOrder(t, f)

	orders, err := f.svc.History(context.Background(), f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 {
		t.Errorf("History() = %d orders, want 2", len(orders))
	}
}

type failingIssueRewards struct {
	*reward.Engine
}

func (failingIssueRewards) IssueCoupon(ctx context.Context, r models.Reward, userID *int64) (*models.Coupon, error) {
	return nil, errors.New("coupons table unavailable")
}

func TestSpinReleasedWhenCouponIssueFails(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	order := placeOrder(t, f)
	deliver(t, f, order.ID)

	broken := NewService(Config{Now: func() time.Time { return fixedNow }},
		f.store, f.store, f.store, failingIssueRewards{f.engine}, f.notifier, logger.Discard())
	if _, err := broken.Spin(ctx, order.ID); err == nil {
		t.Fatal("Spin() succeeded with a failing coupon store")
	}

	if ok, err := f.svc.CanSpin(ctx, order.ID); err != nil || !ok {
		t.Fatalf("CanSpin() after failed issue = %v, %v; want true", ok, err)
	}
	result, err := f.svc.Spin(ctx, order.ID)
	if err != nil {
		t.Fatalf("retry Spin() error = %v", err)
	}
	if result.Coupon == nil {
		t.Errorf("retry Spin() = %+v", result)
	}
}
