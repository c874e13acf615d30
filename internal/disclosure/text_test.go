package disclosure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmod/internal/extract"
)

func TestSpecialAccount(t *testing.T) {
	tests := []struct {
		name    string
		display string
		special bool
	}{
		{"reddit", "reddit", true},
		{"Reddit Legal", "Reddit Legal", true},
		{"Anti-Evil Operations", "Anti-Evil Operations", true},
		{"[ redacted ]", "Anti-Evil Operations", true},
		{"mod1", "", false},
		{"[ deleted ]", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, ok := SpecialAccount(tt.name)
			assert.Equal(t, tt.special, ok)
			assert.Equal(t, tt.display, acct.Name)
			assert.Equal(t, tt.special, acct.IsAdmin)
		})
	}
}

func TestCompose(t *testing.T) {
	t.Run("post action with permalink", func(t *testing.T) {
		text, err := Compose(View{
			Action:    extract.RemoveLink,
			Moderator: Account{Name: "mod1"},
			Author:    Account{Name: "u1"},
			Permalink: "/r/test/comments/abc/hello/",
		})
		require.NoError(t, err)
		assert.Equal(t, "mod1 removed a post", text.Title)
		assert.Equal(t, "**mod1 removed a post**\n\n"+
			"Author: u1\n\n"+
			"Moderator: mod1\n\n"+
			"Action: removelink\n\n"+
			"Permalink:\n\n"+
			"https://reddit.com/r/test/comments/abc/hello/", text.Body)
	})

	t.Run("ban with admin moderator and duration", func(t *testing.T) {
		text, err := Compose(View{
			Action:    extract.BanUser,
			Moderator: Account{Name: "Anti-Evil Operations", IsAdmin: true},
			Author:    Account{Name: "u1"},
			Length:    "7 days",
			Permalink: "/user/u1",
		})
		require.NoError(t, err)
		assert.Equal(t, "Anti-Evil Operations banned a user", text.Title)
		assert.Equal(t, "**Anti-Evil Operations banned a user**\n\n"+
			"Author: u1\n\n"+
			"Moderator: Anti-Evil Operations (Admin)\n\n"+
			"Action: banuser\n\n"+
			"Duration: 7 days", text.Body)
	})

	t.Run("deterministic", func(t *testing.T) {
		v := View{Action: extract.SpamComment, Moderator: Account{Name: "m"}, Author: Account{Name: "a", IsAdmin: true}}
		first, err := Compose(v)
		require.NoError(t, err)
		second, err := Compose(v)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Contains(t, first.Body, "Author: a (Admin)")
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := Compose(View{Action: "lock"})
		assert.Error(t, err)
	})
}

func TestRedacted(t *testing.T) {
	text, err := Redacted(View{
		Action:    extract.RemoveComment,
		Moderator: Account{Name: "mod1"},
		Author:    Account{Name: "u1"},
		Permalink: "/r/test/comments/abc/hello/c1/",
	})
	require.NoError(t, err)
	assert.Equal(t, "mod1 removed a comment", text.Title)
	assert.Contains(t, text.Body, "Author: [ deleted ]")
	assert.NotContains(t, text.Body, "u1")
	assert.NotContains(t, text.Body, "Permalink")
}
