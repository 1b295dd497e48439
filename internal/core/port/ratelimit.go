package port

import (
	"context"
	"time"
)

// RateLimitStore counts hits per key inside a fixed window.
type RateLimitStore interface {
	// Increment adds one hit for key and returns the count in the current
	// window together with the moment that window resets.
	Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}
