// Package temporal provides the time reads used as sorted-set scores and TTLs.
package temporal

import (
	"context"
	"time"

	"openmod/pkg/requestcontext"
)

// Clock is the wall-clock source for an invocation.
type Clock interface {
	Now() time.Time
}

// System reads the process wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Now returns the invocation's pinned time, or the wall clock when none is pinned.
func Now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}

// Future returns an instant d after Now. Non-positive durations are clamped
// to one millisecond so the result is always strictly later than Now.
func Future(ctx context.Context, d time.Duration) time.Time {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return Now(ctx).Add(d)
}

// Pin fixes "now" for the rest of an invocation, reading it from clock.
// An already pinned context is returned unchanged.
func Pin(ctx context.Context, clock Clock) context.Context {
	if _, ok := ctx.Value(requestcontext.ContextKeyTime).(time.Time); ok {
		return ctx
	}
	if clock == nil {
		clock = System{}
	}
	return requestcontext.WithTime(ctx, clock.Now())
}

// Score converts an instant to a sorted-set score in epoch milliseconds.
func Score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// FromScore converts a sorted-set score back to an instant.
func FromScore(score float64) time.Time {
	return time.UnixMilli(int64(score))
}
