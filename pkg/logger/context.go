package logger

import (
	"context"

	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

type fieldsKey struct{}

// WithFields returns a context carrying fields for FromContext. Fields
// accumulate across calls.
func WithFields(ctx context.Context, fields ...interfaces.Field) context.Context {
	existing, _ := ctx.Value(fieldsKey{}).([]interfaces.Field)
	merged := make([]interfaces.Field, 0, len(existing)+len(fields))
	merged = append(merged, existing...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FromContext returns base with the fields carried by ctx. A nil base gives a
// no-op logger.
func FromContext(ctx context.Context, base interfaces.Logger) interfaces.Logger {
	if base == nil {
		base = NewNoop()
	}
	fields, _ := ctx.Value(fieldsKey{}).([]interfaces.Field)
	if len(fields) == 0 {
		return base
	}
	return base.WithFields(fields...)
}
