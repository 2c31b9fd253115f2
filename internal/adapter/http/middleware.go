package adapthttp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"journey/internal/app"
)

// authMiddleware checks the caller may reach the {account} document.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if disabled (for tests)
		if s.disableAuth {
			next.ServeHTTP(w, r)
			return
		}

		creds := app.Credentials{
			RemoteUser: r.Header.Get("Remote-User"),
			Bearer:     bearerToken(r),
		}
		err := s.accounts.Authorize(r.Context(), creds, r.PathValue("account"))
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, app.ErrForbidden):
			writeError(w, http.StatusForbidden, err)
		case errors.Is(err, app.ErrUnauthenticated):
			w.Header().Set("WWW-Authenticate", `Bearer realm="journey"`)
			writeError(w, http.StatusUnauthorized, err)
		default:
			s.logger.Error("authorization failed", "err", err)
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		}
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request and tags it with a request id.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}
