// Package requestcontext provides context accessors for invocation-scoped values.
//
// Every event handler and scheduled job runs as one invocation. Pinning the
// invocation's "now" and its event key on the context keeps every score,
// TTL and log line written during that invocation consistent.
//
//	ctx = requestcontext.WithTime(ctx, time.Now())
//	ctx = requestcontext.WithEventKey(ctx, key)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	eventKeyKey    struct{}
	invocationTime struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyEventKey = eventKeyKey{}
	ContextKeyTime     = invocationTime{}
)

// EventKey retrieves the dedup key of the event being processed.
func EventKey(ctx context.Context) string {
	if key, ok := ctx.Value(ContextKeyEventKey).(string); ok {
		return key
	}
	return ""
}

// WithEventKey injects the dedup key of the event being processed.
func WithEventKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeyEventKey, key)
}

// Now retrieves the invocation-scoped time from context.
// Falls back to time.Now() when the invocation did not pin one.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Use this for:
//   - Handlers that need one "now" across every write of an invocation
//   - Tests that need deterministic scores and expiries
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyTime, t)
}
