package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Strob0t/StatForge/internal/config"
)

const maxTrackedClients = 100_000

// RateLimiter limits each client IP to a token bucket. It guards the
// endpoints that call the model or a tool; each request costs one token.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	sweep   time.Duration
	maxIdle time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*visitor
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.Rate) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		sweep:   cfg.CleanupInterval,
		maxIdle: cfg.MaxIdleTime,
		now:     time.Now,
		clients: make(map[string]*visitor),
	}
}

// Handler enforces the limit. A non-positive rate disables it. Rejected
// requests get 429 with Retry-After in whole seconds.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, wait, ok := rl.take(clientIP(r))
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// take spends one token for key. When none is available it reports how long
// until one will be.
func (rl *RateLimiter) take(key string) (remaining int, wait time.Duration, ok bool) {
	now := rl.now()
	rl.mu.Lock()
	v, found := rl.clients[key]
	if !found {
		if len(rl.clients) >= maxTrackedClients {
			rl.mu.Unlock()
			return 0, time.Second, false
		}
		v = &visitor{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	res := v.lim.ReserveN(now, 1)
	if !res.OK() {
		return 0, time.Second, false
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return 0, d, false
	}
	return int(v.lim.TokensAt(now)), 0, true
}

// StartCleanup forgets clients idle for longer than the configured maximum,
// checking every cleanup interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	if rl.sweep <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(rl.sweep)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				rl.cleanup()
			}
		}
	}()
}

func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.maxIdle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.clients {
		if v.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientIP uses RemoteAddr only. Behind a trusted proxy, chi's RealIP
// middleware rewrites it first.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
