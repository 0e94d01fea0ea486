package httpx

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the client-side request budget.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	// Zero disables limiting.
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Enabled reports whether the config limits anything.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// Limiter builds a token bucket for the config, or nil when disabled.
func (c RateLimitConfig) Limiter() *rate.Limiter {
	if !c.Enabled() {
		return nil
	}
	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}
	every := c.Window / time.Duration(c.RequestsPerWindow)
	return rate.NewLimiter(rate.Every(every), burst)
}

// LimitTransport waits for the limiter before each request so bulk tooling
// cannot flood the inventory API. Waiting honours the request context.
type LimitTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

func (t *LimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
