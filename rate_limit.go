package qivivo

import (
	"golang.org/x/time/rate"
)

// WithRateLimit throttles outgoing API requests to limit requests per second
// with the given burst. Requests wait for a slot; they are never dropped.
// The token exchange is not throttled.
//
// Example:
//
//	// At most one request every two seconds, bursts of five.
//	client, _ := qivivo.NewClient(id, secret, qivivo.WithRateLimit(0.5, 5))
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithRateLimiter installs a caller-owned limiter, which may be shared by
// several clients.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}
