package tokens

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	counter, err := NewCounter("claude-sonnet-4-5")
	require.NoError(t, err)

	assert.Equal(t, 0, counter.Count(""))
	assert.Greater(t, counter.Count("The quick brown fox jumps over the lazy dog."), 5)
}

func TestNilCounterFallback(t *testing.T) {
	var counter *Counter
	// 40 chars / 4 = 10 tokens estimated
	assert.Equal(t, 10, counter.Count(strings.Repeat("a", 40)))
}

func TestTruncate(t *testing.T) {
	counter, err := NewCounter("gpt-5")
	require.NoError(t, err)

	short := "hello world"
	assert.Equal(t, short, counter.Truncate(short, 100))

	long := strings.Repeat("evidence paragraph with many words in it. ", 200)
	truncated := counter.Truncate(long, 50)
	assert.Less(t, len(truncated), len(long))
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.LessOrEqual(t, counter.Count(truncated), 50)
}

func TestTruncateMultibyteKeepsValidUTF8(t *testing.T) {
	counter, err := NewCounter("gpt-4")
	require.NoError(t, err)

	long := strings.Repeat("über façade naïve ", 300)
	truncated := counter.Truncate(long, 40)
	assert.Less(t, len(truncated), len(long))
	assert.True(t, utf8.ValidString(truncated))
}

func TestWithinLimit(t *testing.T) {
	counter, err := NewCounter("gpt-4")
	require.NoError(t, err)

	assert.True(t, counter.WithinLimit("tiny", 10))
	assert.False(t, counter.WithinLimit(strings.Repeat("word ", 500), 10))
}
