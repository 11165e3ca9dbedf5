package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "discrescue/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		original := NewUserID()
		parsed, err := ParseUserID(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseUserID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil uuid", func(t *testing.T) {
		_, err := ParseUserID("00000000-0000-0000-0000-000000000000")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestTypedIDsAreDistinct(t *testing.T) {
	// Compile-time property really, but keep one assertion so a refactor to
	// bare strings would fail loudly.
	userID := NewUserID()
	discID := DiscID(userID)
	assert.Equal(t, userID.String(), discID.String())
	assert.False(t, userID.IsNil())
	assert.True(t, UserID{}.IsNil())
}

func TestIDJSONEncoding(t *testing.T) {
	type payload struct {
		Event RecoveryEventID `json:"event"`
		Disc  *DiscID         `json:"disc,omitempty"`
	}

	eventID := NewRecoveryEventID()
	discID := NewDiscID()
	raw, err := json.Marshal(payload{Event: eventID, Disc: &discID})
	require.NoError(t, err)
	assert.Contains(t, string(raw), eventID.String())
	assert.Contains(t, string(raw), discID.String())

	var decoded payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, eventID, decoded.Event)
	require.NotNil(t, decoded.Disc)
	assert.Equal(t, discID, *decoded.Disc)
}
