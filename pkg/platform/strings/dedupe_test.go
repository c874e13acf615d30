package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"foo", "bar", "foo", "baz", "bar"},
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "combined: trim, dedupe, remove empty",
			input:    []string{"  foo ", "bar", "foo", "", "  ", "bar"},
			expected: []string{"foo", "bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "blank value",
			input:    "   ",
			expected: nil,
		},
		{
			name:     "strips u/ prefix and whitespace",
			input:    " alice, u/bob ,,alice",
			expected: []string{"alice", "bob"},
		},
		{
			name:     "single entry",
			input:    "AutoModerator",
			expected: []string{"AutoModerator"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestContainsFold(t *testing.T) {
	values := []string{"Alice", "bob"}

	assert.True(t, ContainsFold(values, "alice"))
	assert.True(t, ContainsFold(values, "BOB"))
	assert.False(t, ContainsFold(values, "carol"))
	assert.False(t, ContainsFold(nil, "alice"))
}
