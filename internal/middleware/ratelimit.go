package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Counter is the slice of the cache the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type RateLimiter struct {
	counter  Counter
	requests int
	window   time.Duration
	prefix   string
	perPath  bool
	message  string
	logger   *zap.Logger
}

func NewRateLimiter(counter Counter, requests int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		counter:  counter,
		requests: requests,
		window:   window,
		prefix:   "rate_limit",
		message:  "rate limit exceeded",
		logger:   logger,
	}
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		key := fmt.Sprintf("%s:%s", rl.prefix, ip)
		if rl.perPath {
			key = fmt.Sprintf("%s:%s:%s", rl.prefix, r.URL.Path, ip)
		}
		ctx := r.Context()

		count, err := rl.counter.Incr(ctx, key)
		if err != nil {
			// Fail open when Redis is unavailable
			rl.logger.Warn("rate limiter unavailable", zap.String("key_prefix", rl.prefix), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		// Set expiry on first request
		if count == 1 {
			if err := rl.counter.Expire(ctx, key, rl.window); err != nil {
				rl.logger.Warn("rate limit expiry not set", zap.Error(err))
			}
		}

		if int(count) > rl.requests {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"error": %q}`, rl.message)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.requests))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.requests-int(count)))

		next.ServeHTTP(w, r)
	})
}

// ClientIP is the first X-Forwarded-For hop, else the remote host.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
