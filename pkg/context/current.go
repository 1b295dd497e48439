package context

import (
	"context"

	"todoguard/internal/core/domain"
)

// Current carries what is known about the request being served. It is
// created once per request and stored in the request context.
type Current struct {
	CorrelationID string
	ClientIP      string
	UserAgent     string
	Method        string
	Path          string

	Authenticated bool
	UserID        int
	IsAdmin       bool
}

// Actor returns the caller as the core sees it.
func (c *Current) Actor() domain.Actor {
	return domain.Actor{
		CorrelationID: c.CorrelationID,
		UserID:        c.UserID,
		IsAdmin:       c.IsAdmin,
	}
}

type contextKey struct{}

func WithCurrent(ctx context.Context, current *Current) context.Context {
	return context.WithValue(ctx, contextKey{}, current)
}

func FromContext(ctx context.Context) (*Current, bool) {
	current, ok := ctx.Value(contextKey{}).(*Current)
	return current, ok
}

// GetCurrent never returns nil; a request without one gets an empty value.
func GetCurrent(ctx context.Context) *Current {
	if current, ok := FromContext(ctx); ok {
		return current
	}

	return &Current{}
}
