package adapthttp

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"journey/internal/app"
	"journey/internal/domain"
)

// OIDCConfig holds the provider settings for the browser login flow.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that serves per-account journey
// documents.
type Server struct {
	docs        domain.RemoteStore
	accounts    *app.AccountService
	oidcConfig  OIDCConfig
	logger      *log.Logger
	ping        func(ctx context.Context) error
	disableAuth bool
}

// New creates a Server over the given document store.
func New(docs domain.RemoteStore, accounts *app.AccountService, oidcConfig OIDCConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{docs: docs, accounts: accounts, oidcConfig: oidcConfig, logger: logger}
}

// WithoutAuth disables authorization. Tests only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithHealthCheck makes /api/health report the result of ping.
func (s *Server) WithHealthCheck(ping func(ctx context.Context) error) *Server {
	s.ping = ping
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", s.handleHealth)

	api.Handle("GET /documents/{account}", s.authMiddleware(http.HandlerFunc(s.handleDocumentGet)))
	api.Handle("PUT /documents/{account}", s.authMiddleware(http.HandlerFunc(s.handleDocumentPut)))
	api.Handle("DELETE /documents/{account}", s.authMiddleware(http.HandlerFunc(s.handleDocumentDelete)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.HandleFunc("GET /auth/login", s.handleSSOLogin)
	root.HandleFunc("GET /auth/callback", s.handleSSOCallback)

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
