package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"biryani-club/internal/models"
)

type ticketRequest struct {
	CustomerName  string                `json:"customer_name"`
	CustomerPhone string                `json:"customer_phone"`
	CustomerEmail string                `json:"customer_email"`
	OrderID       string                `json:"order_id"`
	Category      models.TicketCategory `json:"category"`
	Subject       string                `json:"subject"`
	Description   string                `json:"description"`
	Priority      models.TicketPriority `json:"priority"`
}

func (h *Handler) createTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	t := models.SupportTicket{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Category:      req.Category,
		Subject:       req.Subject,
		Description:   req.Description,
		Priority:      req.Priority,
	}
	if req.OrderID != "" {
		t.OrderID = &req.OrderID
	}
	// Guests may open tickets, so the session is optional here.
	if session, err := sessionFrom(r); err == nil {
		t.UserID = session.UserID
	}

	created, err := h.Support.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Support.List(r.Context(), models.TicketStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if tickets == nil {
		tickets = []models.SupportTicket{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tickets": tickets})
}

func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.Support.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type ticketStatusRequest struct {
	Status     models.TicketStatus `json:"status"`
	AdminNotes string              `json:"admin_notes"`
}

func (h *Handler) updateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req ticketStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	t, err := h.Support.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.AdminNotes)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) compensateTicket(w http.ResponseWriter, r *http.Request) {
	c, err := h.Support.Compensate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
