package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"biryani-club/internal/models"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	u, err := h.Users.EnsureActive(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type addressRequest struct {
	Address string `json:"address"`
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	var req addressRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if err := h.Users.AddAddress(r.Context(), userID, req.Address); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	userID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	list, err := h.Users.Notifications(r.Context(), userID, unread)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": list})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, err := userFrom(r)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, h.Logger, badRequest("id", "invalid notification id"))
		return
	}
	if err := h.Users.MarkRead(r.Context(), userID, id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
