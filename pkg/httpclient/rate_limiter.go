package httpclient

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spreads requests evenly over a minute, allowing a burst of a full minute's quota
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerMinute requests, starting with a full bucket.
// requestsPerMinute must be positive.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	return &RateLimiter{limiter: rate.NewLimiter(every, requestsPerMinute)}
}

// Wait blocks until a request may be sent. It fails early when ctx is done or its
// deadline comes before the next free slot.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}
