package tool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("bad token")
	err := loadError("my_tool", StageParse, cause)

	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.NotErrorIs(t, err, ErrRuntimeFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `tool "my_tool": tool failed to load (parse): bad token`, err.Error())

	wrapped := fmt.Errorf("running: %w", err)
	te, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindLoadFailed, te.Kind)
}

func TestTraceOf(t *testing.T) {
	t.Run("error chain", func(t *testing.T) {
		trace := traceOf(newError(KindRuntimeFailed, "x", fmt.Errorf("outer: %w", errors.New("inner"))))
		assert.Contains(t, trace, "outer: inner")
		assert.Contains(t, trace, "  *errors.errorString: inner")
	})

	t.Run("panic stack", func(t *testing.T) {
		err := guard(func() error { panic("kaboom") })
		trace := traceOf(newError(KindRuntimeFailed, "x", err))
		assert.Contains(t, trace, "panic: kaboom")
		assert.Contains(t, trace, "goroutine")
	})

	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, traceOf(nil))
	})
}
