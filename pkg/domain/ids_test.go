package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openmod/pkg/platform/sentinel"
)

// TestParseThingID_Invariants validates the parsing invariant:
// "ids carry a known tag and a non-empty base36 body"
func TestParseThingID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseThingID("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	})

	t.Run("rejects missing body", func(t *testing.T) {
		_, err := ParseThingID("t3_")
		require.Error(t, err)
	})

	t.Run("rejects unknown tag", func(t *testing.T) {
		_, err := ParseThingID("t5_abc")
		require.Error(t, err)
	})

	t.Run("rejects uppercase body", func(t *testing.T) {
		_, err := ParseThingID("t3_ABC")
		require.Error(t, err)
	})

	t.Run("accepts each tag", func(t *testing.T) {
		for in, kind := range map[string]Kind{"t1_x9": KindComment, "t2_u1": KindUser, "t3_abc": KindLink} {
			id, err := ParseThingID(in)
			require.NoError(t, err)
			assert.Equal(t, kind, id.Kind())
		}
	})
}

func TestThingID_Narrowing(t *testing.T) {
	post := ThingID("t3_abc")

	link, ok := post.Link()
	assert.True(t, ok)
	assert.Equal(t, LinkID("t3_abc"), link)

	_, ok = post.User()
	assert.False(t, ok)
	_, ok = post.Comment()
	assert.False(t, ok)

	user, ok := ThingID("t2_u1").User()
	assert.True(t, ok)
	assert.Equal(t, ThingID("t2_u1"), user.Thing())

	assert.Equal(t, Kind(""), ThingID("untagged").Kind())
}
