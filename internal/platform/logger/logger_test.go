package logger

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	assert.True(t, errors.Is(err, ErrInvalidLogLevel))
}

func TestNew(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	log, err := New("warn", f)
	require.NoError(t, err)
	assert.False(t, log.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, log.Enabled(t.Context(), slog.LevelError))

	_, err = New("nope", f)
	assert.Error(t, err)
}
