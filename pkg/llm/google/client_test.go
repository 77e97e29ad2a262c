package google

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarmark/pkg/llm"
)

// One client may serve concurrent pipeline runs; the lazy genai construction
// must be safe under simultaneous first calls. Run with -race.
func TestConcurrentCompleteSharedClient(t *testing.T) {
	client := NewClient("test-key", "gemini-2.5-flash")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Complete(ctx, llm.CompletionRequest{
				Messages: []llm.Message{llm.NewUserMessage("ping")},
			})
			assert.Error(t, err, "canceled context cannot produce a completion")
		}()
	}
	wg.Wait()
}

func TestConvertMessages(t *testing.T) {
	contents, err := convertMessages([]llm.Message{
		llm.NewUserMessage("question"),
		llm.NewAssistantMessage("answer"),
	})
	require.NoError(t, err)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}

func TestConvertMessagesEmpty(t *testing.T) {
	_, err := convertMessages(nil)
	require.Error(t, err)
}
