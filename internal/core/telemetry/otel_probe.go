package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"todoguard/internal/core/domain"
	"todoguard/internal/core/port"
	"todoguard/pkg/tracing"
)

const tracerName = "todoguard"

// OTELProbe implements port.Telemetry with OpenTelemetry spans, Prometheus
// counters and otelzap logs.
type OTELProbe struct {
	logger  *otelzap.Logger
	metrics *AppMetrics
	tracer  trace.Tracer
}

func NewOTELProbe(logger *otelzap.Logger, metrics *AppMetrics) port.Telemetry {
	return &OTELProbe{
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// OTelSpan adapts trace.Span to port.Span.
type OTelSpan struct {
	span trace.Span
}

func (s *OTelSpan) End() {
	s.span.End()
}

func (s *OTelSpan) SetAttributes(attrs map[string]interface{}) {
	s.span.SetAttributes(toAttributes(attrs)...)
}

func (s *OTelSpan) SetStatus(code string, message string) {
	switch code {
	case "ok":
		s.span.SetStatus(codes.Ok, message)
	case "error":
		s.span.SetStatus(codes.Error, message)
	default:
		s.span.SetStatus(codes.Unset, message)
	}
}

func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func (p *OTELProbe) StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]interface{}) (context.Context, port.Span) {
	standard := []attribute.KeyValue{
		attribute.String("repository.entity", entity),
		attribute.String("repository.operation", operation),
		attribute.String("component", "repository"),
	}

	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("repository.%s.%s", entity, operation),
		trace.WithAttributes(append(standard, toAttributes(attrs)...)...))

	return ctx, &OTelSpan{span: span}
}

func (p *OTELProbe) StartServiceSpan(ctx context.Context, service string, operation string, userID int, attrs map[string]interface{}) (context.Context, port.Span) {
	standard := []attribute.KeyValue{
		attribute.String("service.component", service),
		attribute.String("service.operation", operation),
		attribute.Int("user.id", userID),
		attribute.String("component", "service"),
	}

	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("service.%s.%s", service, operation),
		trace.WithAttributes(append(standard, toAttributes(attrs)...)...))

	return ctx, &OTelSpan{span: span}
}

func (p *OTELProbe) RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error) {
	outcome := outcomeOf(err)
	p.metrics.RecordDatabaseOperation(ctx, operation, entity, outcome)

	if outcome == "error" {
		p.logger.Ctx(ctx).Error("repository operation failed",
			zap.String("operation", operation),
			zap.String("entity", entity),
			zap.Duration("duration", duration),
			zap.Error(err))
	}
}

func (p *OTELProbe) RecordServiceOperation(ctx context.Context, service string, operation string, userID int, duration time.Duration, err error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("duration_ns", duration.Nanoseconds()),
		attribute.Bool("has_error", err != nil),
	)

	p.metrics.RecordTodoOperation(ctx, operation, outcomeOf(err))
}

func (p *OTELProbe) RecordRuleViolation(ctx context.Context, operation string, rule string) {
	tracing.AddSpanEvent(ctx, "todo.rule_violation",
		attribute.String("operation", operation),
		attribute.String("rule", rule),
	)

	p.metrics.RecordRuleViolation(ctx, operation, rule)
}

func (p *OTELProbe) RecordBusinessEvent(ctx context.Context, event string, entity string, entityID string, userID int, metadata map[string]interface{}) {
	attrs := []attribute.KeyValue{
		attribute.String("entity", entity),
		attribute.String("entity_id", entityID),
		attribute.Int("user_id", userID),
	}
	tracing.AddSpanEvent(ctx, event, append(attrs, toAttributes(metadata)...)...)

	p.logger.Ctx(ctx).Info("business event",
		zap.String("event", event),
		zap.String("entity", entity),
		zap.String("entity_id", entityID),
		zap.Int("user_id", userID),
		zap.Any("metadata", metadata))
}

// outcomeOf buckets err for metric labels. Missing rows and stale versions are
// ordinary answers, not failures.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrTodoNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrOpeningNotAllowed):
		return "rejected"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

func toAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		switch v := value.(type) {
		case string:
			out = append(out, attribute.String(key, v))
		case int:
			out = append(out, attribute.Int(key, v))
		case int64:
			out = append(out, attribute.Int64(key, v))
		case float64:
			out = append(out, attribute.Float64(key, v))
		case bool:
			out = append(out, attribute.Bool(key, v))
		default:
			out = append(out, attribute.String(key, fmt.Sprintf("%v", v)))
		}
	}
	return out
}
