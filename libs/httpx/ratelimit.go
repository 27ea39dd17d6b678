package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether one more request for key fits in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Window() time.Duration
}

// MemoryRateLimiter is a fixed-window limiter for a single instance.
type MemoryRateLimiter struct {
	limit    int
	window   time.Duration
	now      func() time.Time
	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	count     int
	resetTime time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryRateLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		visitors: map[string]*visitor{},
	}
}

func (rl *MemoryRateLimiter) Window() time.Duration { return rl.window }

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v := rl.visitors[key]
	if v == nil || now.After(v.resetTime) {
		if len(rl.visitors) > 10_000 {
			rl.sweep(now)
		}
		rl.visitors[key] = &visitor{count: 1, resetTime: now.Add(rl.window)}
		return true, nil
	}
	if v.count >= rl.limit {
		return false, nil
	}
	v.count++
	return true, nil
}

func (rl *MemoryRateLimiter) sweep(now time.Time) {
	for k, v := range rl.visitors {
		if now.After(v.resetTime) {
			delete(rl.visitors, k)
		}
	}
}

// WithRateLimit rejects requests over the limit with 429. When the limiter
// itself fails, failOpen decides between serving and answering 503.
func WithRateLimit(l Limiter, logger *slog.Logger, failOpen bool) Middleware {
	retryAfter := strconv.Itoa(int(l.Window().Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientKey(r))
			if err != nil {
				if logger != nil {
					logger.Warn("rate limiter error", "err", err)
				}
				if failOpen {
					next.ServeHTTP(w, r)
					return
				}
				writeJSONError(w, http.StatusServiceUnavailable, "rate limiter unavailable")
				return
			}
			if !ok {
				w.Header().Set("Retry-After", retryAfter)
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
