package tools

import (
	"context"
	"errors"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const adapterContextKey contextKey = "platform_adapter"

// ErrNoAdapterInContext is returned when no platform adapter is found in
// the context and the tool has no stored fallback.
var ErrNoAdapterInContext = errors.New("no platform adapter in context")

// WithAdapter adds a platform adapter to the context, allowing per-request
// injection (used by tests and, eventually, multi-tenant HTTP transport).
func WithAdapter(ctx context.Context, a platform.Adapter) context.Context {
	return context.WithValue(ctx, adapterContextKey, a)
}

// AdapterFromContext retrieves the platform adapter from the context.
func AdapterFromContext(ctx context.Context) (platform.Adapter, error) {
	a, ok := ctx.Value(adapterContextKey).(platform.Adapter)
	if !ok || a == nil {
		return nil, ErrNoAdapterInContext
	}
	return a, nil
}
