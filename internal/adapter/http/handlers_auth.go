// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"journey/internal/app"
)

// handleSSOLogin starts the code flow. The callback hands the ID token back
// so the CLI can use it as its bearer credential.
func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, errors.New("sso disabled"))
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, http.StatusNotFound, errors.New("sso disabled"))
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, http.StatusBadRequest, errors.New("invalid state"))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.logger.Error("token exchange failed", "err", err)
		writeError(w, http.StatusBadGateway, errors.New("failed to exchange token"))
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, http.StatusBadGateway, errors.New("no id_token"))
		return
	}

	idToken, err := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID}).Verify(r.Context(), rawIDToken)
	if err != nil {
		s.logger.Error("id token verification failed", "err", err)
		writeError(w, http.StatusBadGateway, errors.New("failed to verify token"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account":  idToken.Subject,
		"id_token": rawIDToken,
		"expiry":   idToken.Expiry.UTC().Format(time.RFC3339),
	})
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// IDTokenVerifier checks bearer ID tokens against the OIDC provider.
type IDTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ app.TokenVerifier = (*IDTokenVerifier)(nil)

// NewIDTokenVerifier returns a verifier for tokens issued to clientID.
func NewIDTokenVerifier(provider *oidc.Provider, clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}
}

// Verify returns the token's subject, which is the account identifier.
func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}
	return tok.Subject, nil
}
