package remote

import (
	"context"
	"net/http"
	"sync"
	"time"

	"journey/internal/domain"
)

var _ domain.Connectivity = (*Probe)(nil)

// Probe reports the server reachable when its health endpoint answers 200.
// Results are cached for ttl.
type Probe struct {
	client  *Client
	timeout time.Duration
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	checked time.Time
	online  bool
}

// NewProbe creates a Probe against c's server.
func NewProbe(c *Client, timeout, ttl time.Duration) *Probe {
	return &Probe{client: c, timeout: timeout, ttl: ttl, now: time.Now}
}

// Online implements domain.Connectivity.
func (p *Probe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if !p.checked.IsZero() && now.Sub(p.checked) < p.ttl {
		return p.online
	}
	p.online = p.check()
	p.checked = now
	return p.online
}

// Invalidate forces the next Online call to probe again.
func (p *Probe) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked = time.Time{}
}

func (p *Probe) check() bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	resp, err := p.client.do(ctx, http.MethodGet, p.client.base+"/api/health", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
