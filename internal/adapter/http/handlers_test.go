package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	adapthttp "journey/internal/adapter/http"
	"journey/internal/adapter/memory"
	"journey/internal/adapter/remote"
	"journey/internal/app"
	"journey/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock document store (function-fields pattern)
// ---------------------------------------------------------------------------

type mockDocs struct {
	getFn    func(ctx context.Context, account string) (*domain.State, error)
	setFn    func(ctx context.Context, account string, state domain.State) error
	deleteFn func(ctx context.Context, account string) error
}

func (m *mockDocs) Get(ctx context.Context, account string) (*domain.State, error) {
	if m.getFn != nil {
		return m.getFn(ctx, account)
	}
	return nil, nil
}

func (m *mockDocs) Set(ctx context.Context, account string, state domain.State) error {
	if m.setFn != nil {
		return m.setFn(ctx, account, state)
	}
	return nil
}

func (m *mockDocs) Delete(ctx context.Context, account string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, account)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Test-server helpers
// ---------------------------------------------------------------------------

func quiet() *log.Logger { return log.New(io.Discard) }

func newTestServer(t *testing.T, docs domain.RemoteStore) *httptest.Server {
	t.Helper()
	if docs == nil {
		docs = memory.New().NewDocuments()
	}
	srv := adapthttp.New(docs, app.NewAccountService(nil, "", false), adapthttp.OIDCConfig{}, quiet()).WithoutAuth()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newAuthServer(t *testing.T, sharedToken string) *httptest.Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(sharedToken), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	accounts := app.NewAccountService(nil, string(hash), true)
	srv := adapthttp.New(memory.New().NewDocuments(), accounts, adapthttp.OIDCConfig{}, quiet())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body []byte, header map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/api/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Errorf("expected no-store, got %q", resp.Header.Get("Cache-Control"))
	}

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestHealthEndpointReportsStoreFailure(t *testing.T) {
	srv := adapthttp.New(&mockDocs{}, app.NewAccountService(nil, "", false), adapthttp.OIDCConfig{}, quiet()).
		WithHealthCheck(func(context.Context) error { return errors.New("db down") })
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/health", nil, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	url := ts.URL + "/api/documents/frodo"

	resp := do(t, http.MethodGet, url, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before first PUT, got %d", resp.StatusCode)
	}

	payload := []byte(`{"logs":[{"id":1,"date":"2024-01-01","distance":5.5,"note":"Shire"}],"unit":"miles"}`)
	resp = do(t, http.MethodPut, url, payload, map[string]string{"Content-Type": "application/json"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %v", resp.StatusCode, decodeBody(t, resp))
	}

	resp = do(t, http.MethodGet, url, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got domain.State
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Unit != domain.Miles || len(got.Logs) != 1 || got.Logs[0].Note != "Shire" {
		t.Fatalf("unexpected document: %+v", got)
	}

	resp = do(t, http.MethodDelete, url, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, url, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestDocumentPutValidation(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus int
	}{
		{
			name:       "valid km",
			payload:    `{"logs":[{"id":1,"date":"2024-01-01","distance":3}],"unit":"km"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing logs",
			payload:    `{"unit":"km"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "negative distance",
			payload:    `{"logs":[{"id":1,"date":"2024-01-01","distance":-3}],"unit":"km"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date",
			payload:    `{"logs":[{"id":1,"date":"01/02/2024","distance":3}],"unit":"km"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid unit",
			payload:    `{"logs":[],"unit":"leagues"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			payload:    `{"logs":[],"unit":"km","extra":true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not json",
			payload:    `Date,Distance`,
			wantStatus: http.StatusBadRequest,
		},
	}

	ts := newTestServer(t, nil)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPut, ts.URL+"/api/documents/frodo", []byte(tc.payload), nil)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d; body: %v", tc.wantStatus, resp.StatusCode, decodeBody(t, resp))
			}
		})
	}
}

func TestDocumentStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	ts := newTestServer(t, &mockDocs{
		getFn:    func(context.Context, string) (*domain.State, error) { return nil, boom },
		setFn:    func(context.Context, string, domain.State) error { return boom },
		deleteFn: func(context.Context, string) error { return boom },
	})
	url := ts.URL + "/api/documents/frodo"

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body []byte
		if method == http.MethodPut {
			body = []byte(`{"logs":[],"unit":"km"}`)
		}
		resp := do(t, method, url, body, nil)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("%s: expected 500, got %d", method, resp.StatusCode)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/api/documents/frodo", []byte(`{}`), nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestDocumentAuth(t *testing.T) {
	ts := newAuthServer(t, "shared-secret")
	url := ts.URL + "/api/documents/frodo"

	tests := []struct {
		name       string
		header     map[string]string
		wantStatus int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"shared token", map[string]string{"Authorization": "Bearer shared-secret"}, http.StatusNotFound},
		{"forward auth owner", map[string]string{"Remote-User": "frodo"}, http.StatusNotFound},
		{"forward auth other user", map[string]string{"Remote-User": "sam"}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodGet, url, nil, tc.header)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}

	// Health stays open
	resp := do(t, http.MethodGet, ts.URL+"/api/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for health, got %d", resp.StatusCode)
	}
}

func TestSSODisabled(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/auth/login", "/auth/callback"} {
		resp := do(t, http.MethodGet, ts.URL+path, nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

// The sync client and the server agree on the wire format.
func TestRemoteClientAgainstServer(t *testing.T) {
	ts := newAuthServer(t, "shared-secret")
	ctx := context.Background()

	client, err := remote.NewClient(ts.URL, "shared-secret", 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !remote.NewProbe(client, time.Second, time.Minute).Online() {
		t.Fatal("expected server to be reachable")
	}

	got, err := client.Get(ctx, "frodo")
	if err != nil || got != nil {
		t.Fatalf("expected no document, got %+v, %v", got, err)
	}

	want := domain.State{
		Logs: []domain.LogEntry{{ID: 1700000000000, Date: "2024-03-01", Distance: 12.5, Note: "Weathertop"}},
		Unit: domain.Kilometers,
	}
	if err := client.Set(ctx, "frodo", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = client.Get(ctx, "frodo")
	if err != nil || got == nil {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if got.Logs[0] != want.Logs[0] || got.Unit != want.Unit {
		t.Fatalf("expected %+v, got %+v", want, *got)
	}

	if err := client.Delete(ctx, "frodo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	unauth, err := remote.NewClient(ts.URL, "wrong", 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	_, err = unauth.Get(ctx, "frodo")
	var se *remote.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}
