package port

import (
	"context"
	"time"
)

// Span is the slice of a tracing span the core needs.
type Span interface {
	End()
	SetAttributes(attrs map[string]interface{})
	SetStatus(code string, message string)
	RecordError(err error)
}

// Telemetry lets the core emit traces and metrics without knowing the backend.
type Telemetry interface {
	StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]interface{}) (context.Context, Span)
	StartServiceSpan(ctx context.Context, service string, operation string, userID int, attrs map[string]interface{}) (context.Context, Span)

	RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error)
	RecordServiceOperation(ctx context.Context, service string, operation string, userID int, duration time.Duration, err error)

	// RecordRuleViolation counts a request rejected by an authorization or mutation rule.
	RecordRuleViolation(ctx context.Context, operation string, rule string)

	RecordBusinessEvent(ctx context.Context, event string, entity string, entityID string, userID int, metadata map[string]interface{})
}
