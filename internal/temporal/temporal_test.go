package temporal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"openmod/pkg/requestcontext"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestFuture(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), base)

	t.Run("offsets from pinned now", func(t *testing.T) {
		assert.Equal(t, base.Add(24*time.Hour), Future(ctx, 24*time.Hour))
	})

	t.Run("zero duration is still strictly later", func(t *testing.T) {
		assert.True(t, Future(ctx, 0).After(Now(ctx)))
	})

	t.Run("unpinned context reads wall clock", func(t *testing.T) {
		before := time.Now()
		assert.False(t, Future(context.Background(), time.Second).Before(before))
	})
}

func TestPin(t *testing.T) {
	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	ctx := Pin(context.Background(), fixedClock(first))
	assert.Equal(t, first, Now(ctx))

	ctx = Pin(ctx, fixedClock(second))
	assert.Equal(t, first, Now(ctx), "pinning twice keeps the first time")
}

func TestScoreRoundTrip(t *testing.T) {
	at := time.UnixMilli(1714564800123)
	assert.Equal(t, float64(1714564800123), Score(at))
	assert.True(t, at.Equal(FromScore(Score(at))))
}
