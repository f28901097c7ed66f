// Package ratelimit paces outbound requests with one token bucket per host.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/floorplan-crawler/internal/metrics"
)

// Limiter manages per-domain rate limits.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// Config holds rate limiter configuration. A non-positive RPS disables pacing.
type Config struct {
	DefaultRPS   float64
	DefaultBurst int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.DefaultRPS)
	if cfg.DefaultRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the host of rawURL, respecting the context.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain := metrics.SanitizeSite(rawURL)
	limiter := l.limiterFor(domain)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	// Immediate grants are not delays.
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(domain, waited)
	}
	return nil
}

// Domains returns how many hosts currently hold a bucket.
func (l *Limiter) Domains() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *Limiter) limiterFor(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, exists := l.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[domain] = limiter
	}
	return limiter
}
