package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"biryani-club/internal/models"
)

// Staff and delivery endpoints. Role checks happen in front of this
// service; here the caller is whoever the session names.

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, h.Logger, badRequest("page", "page must be a number"))
			return
		}
		page = n
	}

	result, err := h.Orders.List(r.Context(), models.OrderStatus(r.URL.Query().Get("status")), page)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Orders.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if stats.OpenTickets, err = h.Support.CountOpen(r.Context()); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) courierOrders(w http.ResponseWriter, r *http.Request) {
	courierID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	board, err := h.Orders.CourierBoard(r.Context(), courierID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	courierID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.MarkDelivered(r.Context(), chi.URLParam(r, "id"), courierID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
