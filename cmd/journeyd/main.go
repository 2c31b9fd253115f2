package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	adapthttp "journey/internal/adapter/http"
	"journey/internal/adapter/memory"
	"journey/internal/adapter/postgres"
	"journey/internal/app"
	"journey/internal/domain"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "hash-token" {
		hash, err := app.HashAPIToken(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "journeyd"})
	if lvl, err := log.ParseLevel(env("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("invalid LOG_LEVEL, using info", "value", os.Getenv("LOG_LEVEL"))
	}

	addr := env("ADDR", ":8080")

	var (
		docs domain.RemoteStore
		ping func(ctx context.Context) error
	)
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		db, err := postgres.Open(connStr)
		if err != nil {
			logger.Fatal("db open", "err", err)
		}
		defer func() { _ = db.Close() }()
		docs, ping = db, db.Ping
	} else {
		logger.Warn("DATABASE_URL not set, documents are kept in memory only")
		docs = memory.New().NewDocuments()
	}

	ctx := context.Background()
	oidcConfig, verifier, err := setupOIDC(ctx)
	if err != nil {
		logger.Fatal("oidc setup", "err", err)
	}
	trustForwardAuth, _ := strconv.ParseBool(env("TRUST_FORWARD_AUTH", "false"))
	apiTokenHash := os.Getenv("API_TOKEN_HASH")
	if verifier == nil && apiTokenHash == "" && !trustForwardAuth {
		logger.Warn("no authentication configured, every document request will be rejected")
	}

	var tv app.TokenVerifier
	if verifier != nil {
		tv = verifier
	}
	accounts := app.NewAccountService(tv, apiTokenHash, trustForwardAuth)

	h := adapthttp.New(docs, accounts, oidcConfig, logger).WithHealthCheck(ping).Handler()
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", addr, "sso", oidcConfig.Enabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", "err", err)
	}
}

// setupOIDC discovers the provider when OIDC_ISSUER is set.
func setupOIDC(ctx context.Context) (adapthttp.OIDCConfig, *adapthttp.IDTokenVerifier, error) {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		return adapthttp.OIDCConfig{}, nil, nil
	}
	clientID := os.Getenv("OIDC_CLIENT_ID")
	if clientID == "" {
		return adapthttp.OIDCConfig{}, nil, errors.New("OIDC_CLIENT_ID is required with OIDC_ISSUER")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, nil, fmt.Errorf("discover %s: %w", issuer, err)
	}
	cfg := adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}
	return cfg, adapthttp.NewIDTokenVerifier(provider, clientID), nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
