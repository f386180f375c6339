package middleware

import (
	"net/http"
	"sync"
	"time"
)

const (
	sweepEvery = 5 * time.Minute
	idleEvict  = 10 * time.Minute
)

// RateLimiter tracks a token bucket per client so one chatty caller cannot
// starve availability checks for everyone else.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*tokenBucket
	perSecond float64
	burst     float64
	lastSweep time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows perSecond sustained requests per client with the
// given burst headroom.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*tokenBucket),
		perSecond: perSecond,
		burst:     float64(burst),
		lastSweep: time.Now(),
	}
}

// Allow spends one token for the client, refilling by elapsed time first.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweep(now)

	b, ok := rl.clients[client]
	if !ok {
		b = &tokenBucket{tokens: rl.burst}
		rl.clients[client] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * rl.perSecond
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep evicts buckets idle past the refill horizon. Callers hold the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepEvery {
		return
	}
	rl.lastSweep = now
	cutoff := now.Add(-idleEvict)
	for client, b := range rl.clients {
		if b.seen.Before(cutoff) {
			delete(rl.clients, client)
		}
	}
}

// RateLimit rejects callers past their budget with 429. Clients are keyed
// by X-Real-Ip when chi's RealIP middleware has resolved it, otherwise by
// the socket address.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				client = xri
			}
			if !limiter.Allow(client) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
