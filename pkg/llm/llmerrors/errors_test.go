package llmerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOfClassifiedError(t *testing.T) {
	err := NewError(ErrorTypeRateLimit, "quota exhausted")
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(err))
	assert.True(t, Is(err, ErrorTypeRateLimit))
	assert.False(t, Is(err, ErrorTypeAuth))
}

func TestTypeOfWrappedError(t *testing.T) {
	inner := NewErrorWithCause(ErrorTypeTransient, errors.New("connection reset"), "network error")
	wrapped := fmt.Errorf("planner provider call failed: %w", inner)

	assert.Equal(t, ErrorTypeTransient, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeTransient))
}

func TestTypeOfUnclassifiedError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain error")))
	assert.False(t, Is(errors.New("plain error"), ErrorTypeUnknown))
}

func TestErrorMessageIncludesType(t *testing.T) {
	err := NewErrorWithStatus(ErrorTypeAuth, 401, "authentication failed")
	assert.Contains(t, err.Error(), "auth")
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestSanitizePromptShortPassthrough(t *testing.T) {
	assert.Equal(t, "short prompt", SanitizePrompt("short prompt", 100))
}

func TestSanitizePromptLongTruncates(t *testing.T) {
	long := strings.Repeat("x", 10000)
	sanitized := SanitizePrompt(long, 400)

	require.Less(t, len(sanitized), len(long))
	assert.Contains(t, sanitized, "10000 chars")
	assert.Contains(t, sanitized, "hash:")
}
