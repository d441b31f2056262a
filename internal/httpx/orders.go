package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"biryani-club/internal/models"
)

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("body", "invalid JSON format")
	}
	return nil
}

func (h *Handler) menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"sections": h.Catalog.Sections()})
}

func (h *Handler) rewards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": h.Rewards.Rewards()})
}

type cartResponse struct {
	Lines    []models.CartLine `json:"lines"`
	Subtotal int               `json:"subtotal"`
	Count    int               `json:"item_count"`
	Summary  string            `json:"summary"`
}

func newCartResponse(c models.Cart) cartResponse {
	lines := c.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartResponse{Lines: lines, Subtotal: c.Subtotal(), Count: c.ItemCount(), Summary: c.Render()}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	c, err := h.Carts.Get(r.Context(), session)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

type addToCartRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.Carts.Add(r.Context(), session, req.Item, req.Quantity)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	c, err := h.Carts.Remove(r.Context(), session, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if err := h.Carts.Clear(r.Context(), session); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	models.CustomerInfo
	CouponCode string `json:"coupon_code"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	o, err := h.Orders.Place(r.Context(), session, req.CustomerInfo, req.CouponCode)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	orders, err := h.Orders.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusRequest struct {
	Status           string `json:"status"`
	DeliveryPersonID *int64 `json:"delivery_person_id,omitempty"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, r, h.Logger, badRequest("status", "unknown order status"))
		return
	}

	o, err := h.Orders.Transition(r.Context(), chi.URLParam(r, "id"), status, req.DeliveryPersonID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) canSpin(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Orders.CanSpin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"can_spin": ok})
}

func (h *Handler) spin(w http.ResponseWriter, r *http.Request) {
	result, err := h.Orders.Spin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type ratingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

func (h *Handler) rateOrder(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if err := h.Orders.Rate(r.Context(), chi.URLParam(r, "id"), req.Rating, strings.TrimSpace(req.Feedback)); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) checkCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	c, err := h.Rewards.Check(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":      true,
		"reward":     c.RewardName,
		"effect":     c.Effect,
		"expires_at": c.ExpiresAt,
	})
}
