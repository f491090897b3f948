// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SigninProtection throttles the sign-in endpoint per client IP. Two fixed
// windows are tracked side by side; only unsuccessful attempts count, so a
// legitimate user who eventually signs in correctly is never penalized for
// it. Both counters reset deterministically at their window boundary.
type SigninProtection struct {
	mu       sync.RWMutex
	attempts map[string]*signinWindows

	shortWindow time.Duration
	shortMax    int
	longWindow  time.Duration
	longMax     int
}

// signinWindows tracks failed sign-in counts per client key.
type signinWindows struct {
	shortCount int
	shortStart time.Time
	longCount  int
	longStart  time.Time
}

// SigninProtectionConfig holds configuration for sign-in throttling.
type SigninProtectionConfig struct {
	// ShortWindow / ShortMax: max failed attempts per short window (default: 5 per 15 minutes)
	ShortWindow time.Duration
	ShortMax    int
	// LongWindow / LongMax: max failed attempts per long window (default: 20 per 24 hours)
	LongWindow time.Duration
	LongMax    int
}

// DefaultSigninProtectionConfig returns the default throttling policy.
func DefaultSigninProtectionConfig() SigninProtectionConfig {
	return SigninProtectionConfig{
		ShortWindow: 15 * time.Minute,
		ShortMax:    5,
		LongWindow:  24 * time.Hour,
		LongMax:     20,
	}
}

// NewSigninProtection creates a new sign-in throttle.
func NewSigninProtection(cfg SigninProtectionConfig) *SigninProtection {
	if cfg.ShortWindow <= 0 {
		cfg.ShortWindow = 15 * time.Minute
	}
	if cfg.ShortMax <= 0 {
		cfg.ShortMax = 5
	}
	if cfg.LongWindow <= 0 {
		cfg.LongWindow = 24 * time.Hour
	}
	if cfg.LongMax <= 0 {
		cfg.LongMax = 20
	}

	sp := &SigninProtection{
		attempts:    make(map[string]*signinWindows),
		shortWindow: cfg.ShortWindow,
		shortMax:    cfg.ShortMax,
		longWindow:  cfg.LongWindow,
		longMax:     cfg.LongMax,
	}

	go sp.cleanup()

	return sp
}

// Check reports whether a sign-in attempt from the given client key may
// proceed. When throttled, the returned message is the human-readable
// explanation for the client.
func (sp *SigninProtection) Check(key string) (allowed bool, message string) {
	// Copy the counters out while holding the lock; RecordFailure mutates
	// them under the write lock.
	sp.mu.RLock()
	ptr, exists := sp.attempts[key]
	var win signinWindows
	if exists {
		win = *ptr
	}
	sp.mu.RUnlock()

	if !exists {
		return true, ""
	}

	now := time.Now()

	if now.Sub(win.shortStart) <= sp.shortWindow && win.shortCount >= sp.shortMax {
		return false, "Too many login attempts in a short time."
	}
	if now.Sub(win.longStart) <= sp.longWindow && win.longCount >= sp.longMax {
		return false, "Too many login attempts in 24 hours."
	}

	return true, ""
}

// RecordFailure counts an unsuccessful sign-in attempt against both windows.
// Successful attempts are never recorded.
func (sp *SigninProtection) RecordFailure(key string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	now := time.Now()
	win, exists := sp.attempts[key]
	if !exists {
		sp.attempts[key] = &signinWindows{
			shortCount: 1,
			shortStart: now,
			longCount:  1,
			longStart:  now,
		}
		return
	}

	// Reset each counter at its window boundary
	if now.Sub(win.shortStart) > sp.shortWindow {
		win.shortCount = 0
		win.shortStart = now
	}
	if now.Sub(win.longStart) > sp.longWindow {
		win.longCount = 0
		win.longStart = now
	}

	win.shortCount++
	win.longCount++
}

// Middleware returns HTTP middleware that rejects throttled sign-in attempts
// before the credential check runs.
func (sp *SigninProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if allowed, message := sp.Check(ip); !allowed {
				slog.Warn("sign-in throttled",
					"category", "auth",
					"ip", ip,
					"path", r.URL.Path,
				)
				writeGuardError(w, http.StatusTooManyRequests, "throttled", message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// cleanup periodically removes stale attempt entries.
func (sp *SigninProtection) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		sp.mu.Lock()
		for key, win := range sp.attempts {
			if now.Sub(win.shortStart) > sp.shortWindow && now.Sub(win.longStart) > sp.longWindow {
				delete(sp.attempts, key)
			}
		}
		sp.mu.Unlock()
	}
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a new limiter cache.
func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
// Returns true if the cache was cleared.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// GlobalRateLimiter provides a coarse per-IP request volume limit across all
// endpoints, as a denial-of-service safeguard.
type GlobalRateLimiter struct {
	cache *limiterCache[string]
}

// NewGlobalRateLimiter creates a limiter allowing maxRequests per window per
// client IP, expressed as a token bucket refilled over the window with a
// burst of the full allowance.
func NewGlobalRateLimiter(maxRequests int, window time.Duration) *GlobalRateLimiter {
	rps := float64(maxRequests) / window.Seconds()
	rl := &GlobalRateLimiter{
		cache: newLimiterCache[string](rps, maxRequests),
	}

	go rl.cleanup()

	return rl
}

// Middleware returns the rate limiting middleware.
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !rl.cache.get(ip).Allow() {
				slog.Warn("request rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeGuardError(w, http.StatusTooManyRequests, "throttled",
					"Too many requests in a short timeframe from this IP. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cleanup keeps the limiter cache bounded.
func (rl *GlobalRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if rl.cache.clearIfExceeds(10000) {
			slog.Info("cleared IP rate limiters due to size")
		}
	}
}
