package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"time"

	"github.com/stretchr/testify/require"
)

func rateLimitedHandler(cfg RateLimitConfig) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Chain(inner, RateLimitByIP(cfg))
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	h := rateLimitedHandler(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 3})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	h := rateLimitedHandler(RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 2})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitKeysByIP(t *testing.T) {
	h := rateLimitedHandler(RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1})

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.3:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different client IP gets its own bucket.
	second := httptest.NewRequest(http.MethodGet, "/", nil)
	second.RemoteAddr = "10.0.0.4:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiterPoolSweepsIdleEntries(t *testing.T) {
	pool := newLimiterPool(RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

	pool.allow("stale")
	pool.allow("fresh")

	// Backdate one entry and the sweep clock past the eviction window.
	pool.mu.Lock()
	pool.limiters["stale"].lastSeen = time.Now().Add(-2 * limiterIdleEviction)
	pool.lastSweep = time.Now().Add(-2 * limiterIdleEviction)
	pool.mu.Unlock()

	pool.allow("fresh")

	pool.mu.Lock()
	defer pool.mu.Unlock()
	require.NotContains(t, pool.limiters, "stale")
	require.Contains(t, pool.limiters, "fresh")
}

func TestIPKeyHonoursForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	require.Equal(t, "203.0.113.7", IPKey(req))
}
