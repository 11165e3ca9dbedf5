package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("wrapped chain", func(t *testing.T) {
		base := errors.New("row missing")
		err := Wrap(Wrap(base, CodeNotFound, "load disc"), CodeInternal, "transition failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.True(t, errors.Is(err, base))
	})

	t.Run("fmt wrapping preserved", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeForbidden, "nope"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("uncoded error", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "busy")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))

	// Outermost code wins.
	err := Wrap(New(CodeNotFound, "inner"), CodePreconditionFailed, "outer")
	assert.Equal(t, CodePreconditionFailed, CodeOf(err))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found: missing disc", New(CodeNotFound, "missing disc").Error())

	wrapped := Wrap(errors.New("pq: gone"), CodeInternal, "query failed")
	assert.Contains(t, wrapped.Error(), "pq: gone")
	assert.Contains(t, wrapped.Error(), "query failed")
}
