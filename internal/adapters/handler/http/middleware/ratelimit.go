// Package middleware holds HTTP middleware for the voting API. The
// request limiter here protects the transport; it is independent of the
// vote ledger's per-installation quota.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token-bucket request limiter keyed by client IP.
// Idle entries are pruned periodically so the map cannot grow without
// bound.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry

	rps        rate.Limit
	burst      int
	idleTTL    time.Duration
	retryAfter time.Duration
	stop       chan struct{}
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:    make(map[string]*clientEntry),
		rps:        rate.Limit(rps),
		burst:      burst,
		idleTTL:    15 * time.Minute,
		retryAfter: time.Second,
		stop:       make(chan struct{}),
	}
	go rl.cleanupLoop(2 * time.Minute)
	return rl
}

func (rl *RateLimiter) Close() {
	close(rl.stop)
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.idleTTL)
			for key, entry := range rl.clients {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Handler wraps next with the limiter, answering 429 with a Retry-After
// hint when a client exceeds its bucket.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.retryAfter.Seconds())))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
