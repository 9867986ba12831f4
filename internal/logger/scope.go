package logger

import (
	"context"

	"go.uber.org/zap"
)

type scopeKey struct{}

// WithAsset returns a context whose loggers tag every entry with the asset ID.
// Nested calls keep the outermost asset and append the extra fields.
func WithAsset(ctx context.Context, assetID int64, fields ...zap.Field) context.Context {
	scoped := append([]zap.Field{}, scopeFields(ctx)...)
	if len(scoped) == 0 {
		scoped = append(scoped, zap.Int64("asset_id", assetID))
	}
	scoped = append(scoped, fields...)
	return context.WithValue(ctx, scopeKey{}, scoped)
}

func scopeFields(ctx context.Context) []zap.Field {
	fields, _ := ctx.Value(scopeKey{}).([]zap.Field)
	return fields
}
