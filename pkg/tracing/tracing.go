package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AddSpanError marks the span in ctx as failed.
func AddSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// AddCallerAttributes tags the span in ctx with the authenticated caller.
func AddCallerAttributes(ctx context.Context, correlationID string, userID int, isAdmin bool) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("request.correlation_id", correlationID),
		attribute.Int("user.id", userID),
		attribute.Bool("user.admin", isAdmin),
	)
}
