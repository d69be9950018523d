package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var key ctxKey

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, key, l)
}

// From returns the request-scoped logger, falling back to the default one.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(key).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// With decorates the logger carried by ctx and stores the result back.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, From(ctx).With(args...))
}
