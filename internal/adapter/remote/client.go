// Package remote reaches the journeyd document API over HTTP. It provides
// the client-side domain.RemoteStore and a health-probe domain.Connectivity.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"journey/internal/domain"
)

var _ domain.RemoteStore = (*Client)(nil)

// Client is an HTTP domain.RemoteStore.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client for the server at baseURL. A non-empty token is
// sent as a bearer credential on every request.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	hc := &http.Client{}
	if token != "" {
		hc = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	hc.Timeout = timeout
	return &Client{base: strings.TrimRight(u.String(), "/"), http: hc}, nil
}

// Get fetches the account's document, or nil when the server has none.
func (c *Client) Get(ctx context.Context, account string) (*domain.State, error) {
	resp, err := c.do(ctx, http.MethodGet, c.documentURL(account), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, statusError(resp)
	}

	var s domain.State
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("cannot decode document: %w", err)
	}
	return &s, nil
}

// Set replaces the account's document.
func (c *Client) Set(ctx context.Context, account string, state domain.State) error {
	if state.Logs == nil {
		state.Logs = []domain.LogEntry{}
	}
	body, err := json.Marshal(state)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPut, c.documentURL(account), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	return nil
}

// Delete removes the account's document.
func (c *Client) Delete(ctx context.Context, account string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.documentURL(account), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		return statusError(resp)
	}
	return nil
}

// LoginURL is where a browser starts the OIDC code flow.
func (c *Client) LoginURL() string {
	return c.base + "/auth/login"
}

func (c *Client) documentURL(account string) string {
	return c.base + "/api/documents/" + url.PathEscape(account)
}

func (c *Client) do(ctx context.Context, method, uri string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, r)
	if err != nil {
		return nil, fmt.Errorf("cannot create http request %q: %w", uri, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot execute http request: %w", err)
	}
	return resp, nil
}

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("cannot http %s %s: %d %s", e.Method, e.Path, e.Code, e.Msg)
	}
	return fmt.Sprintf("cannot http %s %s: %d", e.Method, e.Path, e.Code)
}

func statusError(resp *http.Response) error {
	e := &StatusError{Method: resp.Request.Method, Path: resp.Request.URL.Path, Code: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil {
		e.Msg = payload.Error
	}
	return e
}
