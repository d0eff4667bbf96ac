package util

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	// CTXKeyRequestID carries the per-request correlation id.
	CTXKeyRequestID contextKey = "request_id"
)

// LogFromContext returns the request-scoped logger if one was attached by the
// logging middleware, falling back to the global logger.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// RequestIDFromContext returns the request id or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CTXKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID attaches the request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CTXKeyRequestID, id)
}
