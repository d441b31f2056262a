package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a business error kind to an HTTP status. Coupon
// rejections are all reported as bad requests, whatever the reason.
func statusFor(err error) int {
	if errors.Is(err, models.ErrInvalidCoupon) {
		return http.StatusBadRequest
	}
	switch models.KindOf(err) {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidInput:
		return http.StatusBadRequest
	case models.KindInvalidState:
		return http.StatusConflict
	case models.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Infrastructure failures are logged and their
// details are not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	requestID := logger.RequestIDFrom(r.Context())
	status := statusFor(err)

	resp := ErrorResponse{
		Error:     models.CodeOf(err),
		Message:   err.Error(),
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var verr models.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
		resp.Message = verr.Message
	}

	if status == http.StatusInternalServerError {
		log.Error("request_failed", "Request failed", requestID, err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		resp.Message = "Internal server error"
	}

	writeJSON(w, status, resp)
}

func badRequest(field, message string) error {
	return models.ValidationError{Field: field, Message: message}
}
