package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"biryani-club/internal/catalog"
	"biryani-club/internal/logger"
	"biryani-club/internal/services/cart"
	"biryani-club/internal/services/order"
	"biryani-club/internal/services/reward"
	"biryani-club/internal/services/support"
	"biryani-club/internal/services/user"
)

// HealthCheck reports whether a backing resource is reachable.
type HealthCheck func(ctx context.Context) error

// Handler serves the ordering API.
type Handler struct {
	Catalog *catalog.Catalog
	Carts   *cart.Service
	Orders  *order.Service
	Rewards *reward.Engine
	Support *support.Service
	Users   *user.Service
	Health  map[string]HealthCheck
	Logger  *logger.Logger

	// RequestTimeout bounds each handler's work. Zero means 30s.
	RequestTimeout time.Duration
}

func NewRouter(h *Handler) http.Handler {
	timeout := h.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(withLogging(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.menu)
		r.Get("/rewards", h.rewards)
		r.Post("/check_coupon", h.checkCoupon)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addToCart)
			r.Delete("/items/{name}", h.removeFromCart)
		})

		r.Post("/checkout", h.checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.orderHistory)
			r.Get("/{id}", h.getOrder)
			r.Post("/{id}/status", h.updateOrderStatus)
			r.Get("/{id}/spin", h.canSpin)
			r.Post("/{id}/spin", h.spin)
			r.Post("/{id}/rating", h.rateOrder)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", h.createTicket)
			r.Get("/", h.listTickets)
			r.Get("/{id}", h.getTicket)
			r.Post("/{id}/status", h.updateTicketStatus)
			r.Post("/{id}/compensate", h.compensateTicket)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/orders", h.adminOrders)
			r.Get("/dashboard", h.dashboard)
		})

		r.Route("/delivery", func(r chi.Router) {
			r.Get("/orders", h.courierOrders)
			r.Post("/orders/{id}/delivered", h.markDelivered)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", h.me)
			r.Post("/addresses", h.addAddress)
			r.Get("/notifications", h.notifications)
			r.Post("/notifications/{id}/read", h.markNotificationRead)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.Health))
	healthy := true
	for name, check := range h.Health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	resp := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
		"checks":    checks,
	}
	status := http.StatusOK
	if !healthy {
		resp["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
