// Package ratelimit provides a per-client request limiter for HTTP routes.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per remote address. Idle entries are
// evicted so the map does not grow with every client ever seen.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client

	rps   rate.Limit
	burst int
	ttl   time.Duration
}

func New(rps float64, burst int) *Limiter {
	l := &Limiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     3 * time.Minute,
	}
	go l.evictLoop()
	return l
}

func (l *Limiter) allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[addr]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[addr] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

func (l *Limiter) evictLoop() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		for addr, c := range l.clients {
			if time.Since(c.lastSeen) > l.ttl {
				delete(l.clients, addr)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects requests over the per-client budget with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			addr = r.RemoteAddr
		}
		if !l.allow(addr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
