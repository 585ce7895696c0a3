package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the length of the counting window.
	Window time.Duration
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	clients map[string]*clientWindow
}

// allow counts a request for the client and reports whether it is within
// the window's budget.
func (l *rateLimiter) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[client]
	if !ok || now.After(w.resetAt) {
		l.clients[client] = &clientWindow{count: 1, resetAt: now.Add(l.cfg.Window)}
		return true
	}

	w.count++
	return w.count <= l.cfg.Max
}

// sweep drops expired client windows.
func (l *rateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for client, w := range l.clients {
		if now.After(w.resetAt) {
			delete(l.clients, client)
		}
	}
}

// RateLimit returns a fixed-window per-client-IP rate limiting middleware.
// A background goroutine evicts idle clients until ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := &rateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientWindow),
	}

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.sweep(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				client = r.RemoteAddr
			}

			if !l.allow(client, time.Now()) {
				w.Header().Set("Retry-After", cfg.Window.String())
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
