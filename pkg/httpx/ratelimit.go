package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters for an endpoint class.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	RequestsPerWindow int
	// Window is the time window for rate limiting.
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit.
	Burst int
}

// Rate limit profiles per endpoint class.
var (
	// StrictLimit for credential-bearing endpoints (brute force prevention).
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit for token refresh and verification endpoints.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit for authenticated read endpoints.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}
)

// KeyExtractor derives the bucket key for a request (IP, user ID, ...).
type KeyExtractor func(*http.Request) string

// IPKey extracts the client IP, honouring X-Forwarded-For and X-Real-IP for
// proxied requests.
func IPKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserKey extracts the authenticated user ID, falling back to the client IP
// for anonymous callers. Must run inside RequireAuth to key by user.
func UserKey(r *http.Request) string {
	if id, ok := IdentityFromContext(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID
	}
	return "ip:" + IPKey(r)
}

// limiterPool tracks one token bucket per key. Idle entries are swept lazily
// from the request path, so an unused pool costs nothing and no goroutine
// outlives its Router.
type limiterPool struct {
	mu        sync.Mutex
	limiters  map[string]*pooledLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

type pooledLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleEviction = 10 * time.Minute

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	return &limiterPool{
		limiters:  make(map[string]*pooledLimiter),
		limit:     rate.Every(cfg.Window / time.Duration(cfg.RequestsPerWindow)),
		burst:     cfg.Burst,
		lastSweep: time.Now(),
	}
}

func (p *limiterPool) allow(key string) bool {
	now := time.Now()

	p.mu.Lock()
	entry, ok := p.limiters[key]
	if !ok {
		entry = &pooledLimiter{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[key] = entry
	}
	entry.lastSeen = now
	p.sweepLocked(now)
	p.mu.Unlock()

	return entry.limiter.Allow()
}

// sweepLocked drops entries idle past the eviction window, at most once per
// window. Callers hold p.mu.
func (p *limiterPool) sweepLocked(now time.Time) {
	if now.Sub(p.lastSweep) < limiterIdleEviction {
		return
	}
	p.lastSweep = now

	cutoff := now.Add(-limiterIdleEviction)
	for key, entry := range p.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(p.limiters, key)
		}
	}
}

// RateLimit applies cfg per key extracted from the request. Over-limit
// requests get a 429 with a Retry-After hint.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	pool := newLimiterPool(cfg)
	retryAfter := cfg.Window / time.Duration(cfg.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pool.allow(key(r)) {
				w.Header().Set("Retry-After", retryAfter.Round(time.Second).String())
				WriteJSON(w, http.StatusTooManyRequests, Envelope{
					Success: false,
					Message: "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP applies cfg keyed by client IP.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, IPKey)
}

// RateLimitByUser applies cfg keyed by authenticated user (IP fallback).
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, UserKey)
}
