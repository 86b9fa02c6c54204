package sources

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// PoliteDelay enforces a minimum delay between requests to the same domain,
// to avoid triggering anti-scraping defenses on the news wires.
type PoliteDelay struct {
	mu          sync.Mutex
	lastRequest map[string]time.Time
	delay       time.Duration
}

// NewPoliteDelay creates a delay tracker with the given per-domain spacing.
func NewPoliteDelay(delay time.Duration) *PoliteDelay {
	return &PoliteDelay{
		lastRequest: make(map[string]time.Time),
		delay:       delay,
	}
}

// Wait blocks until the domain's delay window has elapsed, or the context is
// cancelled.
func (d *PoliteDelay) Wait(ctx context.Context, rawURL string) error {
	if d == nil || d.delay <= 0 {
		return nil
	}
	domain := extractDomain(rawURL)
	if domain == "" {
		return nil
	}

	d.mu.Lock()
	now := time.Now()
	nextAllowed := d.lastRequest[domain].Add(d.delay)
	wait := nextAllowed.Sub(now)
	if wait < 0 {
		wait = 0
	}
	d.lastRequest[domain] = now.Add(wait)
	d.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// extractDomain parses the domain from a URL
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
