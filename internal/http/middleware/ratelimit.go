package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Default budget for the Evolution webhook endpoint, which is open to the
// internet. One instance emits a handful of events per message, so 20/s
// with a burst of 40 absorbs delivery spikes without letting a misbehaving
// gateway flood the handler.
const (
	DefaultWebhookRate  = 20.0
	DefaultWebhookBurst = 40
)

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

// RateLimiter keeps a token bucket per client.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*tokenBucket
	rate      float64 // tokens per second
	burst     float64
	lastSweep time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests/sec with the given burst per client.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*tokenBucket),
		rate:      rate,
		burst:     float64(burst),
		lastSweep: time.Now(),
	}
}

// Allow consumes one token from the client's bucket, refilling it for the
// time elapsed since the client was last seen.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	tb, ok := rl.clients[key]
	if !ok {
		tb = &tokenBucket{tokens: rl.burst}
		rl.clients[key] = tb
	} else {
		tb.tokens += now.Sub(tb.seen).Seconds() * rl.rate
		if tb.tokens > rl.burst {
			tb.tokens = rl.burst
		}
	}
	tb.seen = now

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// sweepLocked drops buckets idle long enough to have fully refilled. It runs
// inline at most once per sweepEvery, so the limiter needs no background
// goroutine.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepEvery {
		return
	}
	rl.lastSweep = now
	for key, tb := range rl.clients {
		if now.Sub(tb.seen) > idleAfter {
			delete(rl.clients, key)
		}
	}
}

// clientKey identifies the caller. X-Real-Ip wins when a proxy (or chi's
// RealIP middleware) set it; otherwise the port is stripped from RemoteAddr
// so reconnects from the same host share a bucket.
func clientKey(r *http.Request) string {
	if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit rejects clients exceeding rate requests/sec (with burst
// allowance) with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
