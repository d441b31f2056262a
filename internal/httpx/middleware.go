package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"biryani-club/internal/logger"
	"biryani-club/internal/models"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
	HeaderUserID    = "X-User-ID"
)

// withLogging tags the request with an id and logs start and completion.
func withLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = logger.GenerateRequestID()
			}

			r = r.WithContext(logger.WithRequestID(r.Context(), requestID))
			w.Header().Set(HeaderRequestID, requestID)

			log.Debug("request_started",
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				requestID,
				map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
					"user_agent":  r.Header.Get("User-Agent"),
				})

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			log.Debug("request_completed",
				fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
				requestID,
				map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status_code": rw.statusCode,
					"duration_ms": time.Since(start).Milliseconds(),
				})
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// sessionFrom reads the caller identity set by the auth proxy in front of
// this service. A missing user id means a guest.
func sessionFrom(r *http.Request) (models.Session, error) {
	s := models.Session{ID: strings.TrimSpace(r.Header.Get(HeaderSessionID))}

	if raw := strings.TrimSpace(r.Header.Get(HeaderUserID)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return s, badRequest("user_id", "invalid user id header")
		}
		s.UserID = &id
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// userFrom requires a signed-in caller.
func userFrom(r *http.Request) (int64, error) {
	s, err := sessionFrom(r)
	if err != nil {
		return 0, err
	}
	if s.UserID == nil {
		return 0, badRequest("user_id", "sign in required")
	}
	return *s.UserID, nil
}
