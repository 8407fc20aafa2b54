package middleware

import (
	"time"

	"go.uber.org/zap"
)

// NewSignupRateLimiter is a stricter limiter for the join endpoint, counted
// per path and client so browsing does not eat into the signup budget.
func NewSignupRateLimiter(counter Counter, requests int, window time.Duration, logger *zap.Logger) *RateLimiter {
	rl := NewRateLimiter(counter, requests, window, logger)
	rl.prefix = "signup_rate_limit"
	rl.perPath = true
	rl.message = "too many signup attempts, please try again later"
	return rl
}
