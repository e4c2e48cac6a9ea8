package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "bad value")
	assert.Equal(t, ErrCodeInvalidConfig, err.Code)
	assert.Equal(t, "bad value", err.Message)
	assert.Nil(t, err.Cause)
}

func TestWrap(t *testing.T) {
	cause := errors.New("address already in use")
	err := Wrap(ErrCodeUnavailable, "bind failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeUnsupportedLevel, "unsupported level: fatal"),
			expected: "[UNSUPPORTED_LEVEL] unsupported level: fatal",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestCodeOf(t *testing.T) {
	inner := New(ErrCodeAlreadyInstalled, "logger already installed")
	wrapped := fmt.Errorf("bootstrap: %w", inner)

	assert.Equal(t, ErrCodeAlreadyInstalled, CodeOf(inner))
	assert.Equal(t, ErrCodeAlreadyInstalled, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))

	var se *StructuredError
	assert.True(t, errors.As(wrapped, &se))
}
