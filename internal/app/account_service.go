package app

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthenticated indicates that no valid credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a valid identity asking for another account's document.
	ErrForbidden = errors.New("account mismatch")
)

// TokenVerifier checks a bearer ID token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (subject string, err error)
}

// Credentials are what a request presents to reach an account document.
type Credentials struct {
	Bearer     string
	RemoteUser string
}

// AccountService decides which account a caller may read and write. The
// account identifier itself is opaque; identity comes from an OIDC provider,
// a trusted forward-auth proxy, or a shared API token.
type AccountService struct {
	verifier         TokenVerifier
	apiTokenHash     []byte
	trustForwardAuth bool
}

// NewAccountService creates an AccountService. verifier may be nil when OIDC
// is not configured; apiTokenHash may be empty to disable the shared token.
func NewAccountService(verifier TokenVerifier, apiTokenHash string, trustForwardAuth bool) *AccountService {
	var hash []byte
	if apiTokenHash != "" {
		hash = []byte(apiTokenHash)
	}
	return &AccountService{
		verifier:         verifier,
		apiTokenHash:     hash,
		trustForwardAuth: trustForwardAuth,
	}
}

// Authorize checks that creds grant access to account.
func (s *AccountService) Authorize(ctx context.Context, creds Credentials, account string) error {
	if account == "" {
		return ErrForbidden
	}

	// Check for Authelia forward auth header first
	if s.trustForwardAuth && creds.RemoteUser != "" {
		if creds.RemoteUser != account {
			return ErrForbidden
		}
		return nil
	}

	if creds.Bearer == "" {
		return ErrUnauthenticated
	}

	if s.verifier != nil {
		subject, err := s.verifier.Verify(ctx, creds.Bearer)
		if err == nil {
			if subject != account {
				return ErrForbidden
			}
			return nil
		}
	}

	// The shared token is single-tenant: it opens every account.
	if s.apiTokenHash != nil && bcrypt.CompareHashAndPassword(s.apiTokenHash, []byte(creds.Bearer)) == nil {
		return nil
	}
	return ErrUnauthenticated
}

// HashAPIToken returns the bcrypt hash to configure as API_TOKEN_HASH.
func HashAPIToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("token must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
