// Package tokens provides tiktoken-based token counting and budget math for
// the writing pipeline.
package tokens

import (
	"fmt"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// Counter provides token counting for prompt budgeting. All supported models
// approximate with the GPT-4 encoding, which is close enough for budget math.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a token counter. The model name only selects the
// encoding; every current provider maps to GPT-4 encoding.
func NewCounter(model string) (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("create tokenizer codec for model %s: %w", model, err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in the given text.
func (c *Counter) Count(text string) int {
	if c == nil || c.codec == nil {
		// Character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}
	count, err := c.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// WithinLimit reports whether text fits the token limit.
func (c *Counter) WithinLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Truncate cuts text down to roughly fit the token limit. Truncation is
// proportional by characters, not exact token boundaries, with a safety
// margin so the result stays under the limit.
func (c *Counter) Truncate(text string, limit int) string {
	current := c.Count(text)
	if current <= limit {
		return text
	}

	ratio := float64(limit) / float64(current)
	charLimit := int(float64(len(text)) * ratio * 0.9)
	if charLimit >= len(text) {
		return text
	}
	// Back off to a rune start so the cut never yields invalid UTF-8
	for charLimit > 0 && !utf8.RuneStart(text[charLimit]) {
		charLimit--
	}
	return text[:charLimit] + "..."
}
