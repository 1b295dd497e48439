package config

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the JSON production logger wrapped with otelzap, so calls
// through Ctx(ctx) are recorded on the active span. Errors mark the span failed.
func NewLogger(service, level string) (*otelzap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"
	config.InitialFields = map[string]interface{}{"service": service}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return otelzap.New(zapLogger,
		otelzap.WithMinLevel(lvl),
		otelzap.WithErrorStatusLevel(zapcore.ErrorLevel),
	), nil
}

func NewNopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}
