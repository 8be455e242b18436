package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a client-side rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter in logs.
	Name string `yaml:"name" mapstructure:"name"`
	// Rate is the number of requests allowed per second.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the maximum burst size.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// OnLimit is called when a request has to wait.
	OnLimit func(name string) `yaml:"-" mapstructure:"-"`
}

// DefaultRateLimiterConfig returns a conservative pacing for REST calls.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:  name,
		Rate:  1.0,
		Burst: 15,
	}
}

// RateLimiter is a token bucket that can additionally be frozen until a
// point in time, e.g. when the server reports its rate-limit window reset.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	blockedTil time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1.0
	}
	if config.Burst <= 0 {
		config.Burst = max(int(config.Rate), 1)
	}

	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed without blocking.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN checks if n requests are allowed without blocking.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refill(now)

	if now.After(rl.blockedTil) && rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}

	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
	return false
}

// Wait blocks until a request is allowed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN blocks until n requests are allowed or ctx is done.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	if rl.AllowN(n) {
		return nil
	}
	return Sleep(ctx, rl.reserveN(n))
}

// BlockUntil rejects every request until t. Earlier deadlines than the
// current one are ignored.
func (rl *RateLimiter) BlockUntil(t time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if t.After(rl.blockedTil) {
		rl.blockedTil = t
	}
}

// BlockedUntil returns the current freeze deadline (zero if never frozen).
func (rl *RateLimiter) BlockedUntil() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.blockedTil
}

// refill adds tokens based on time elapsed.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now

	rl.tokens += elapsed * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// reserveN reserves n tokens and returns how long the caller must wait
// for them.
func (rl *RateLimiter) reserveN(n int) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refill(now)

	var wait time.Duration
	if now.Before(rl.blockedTil) {
		wait = rl.blockedTil.Sub(now)
	}

	if rl.tokens < float64(n) {
		needed := float64(n) - rl.tokens
		wait = max(wait, time.Duration(needed/rl.config.Rate*float64(time.Second)))
	}
	rl.tokens -= float64(n)
	return wait
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return rl.tokens
}

// Rate returns the rate limit (requests per second).
func (rl *RateLimiter) Rate() float64 {
	return rl.config.Rate
}

// Burst returns the burst size.
func (rl *RateLimiter) Burst() int {
	return rl.config.Burst
}
