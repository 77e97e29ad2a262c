// Package google provides the Google Gemini implementation of the llm.Client interface.
package google

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/llmerrors"
)

// Client wraps the Google GenAI client to implement llm.Client. One Client
// may serve concurrent Complete calls.
type Client struct {
	client   *genai.Client
	initOnce sync.Once
	initErr  error
	apiKey   string
	model    string
}

// NewClient creates a Gemini client bound to the given model.
// Client creation requires a context, so the underlying genai client is
// created on first use, exactly once.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
	}
}

// init builds the underlying genai client on the first call. The outcome is
// sticky: a construction failure is reported to every subsequent call.
func (g *Client) init(ctx context.Context) error {
	g.initOnce.Do(func() {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			g.initErr = err
			return
		}
		g.client = client
	})
	return g.initErr
}

// Complete implements llm.Client. A positive thinking budget maps to the
// Gemini thinking budget config; thinking output stays internal.
func (g *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := g.init(ctx); err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "failed to create Gemini client")
	}

	contents, err := convertMessages(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, "message conversion error")
	}

	//nolint:gosec // Output budgets are small, overflow not reachable
	maxTokens := int32(in.MaxOutputTokens)
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
	}

	if in.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: in.System}},
		}
	}

	if in.ThinkingBudget > 0 {
		//nolint:gosec // Thinking budgets are small, overflow not reachable
		budget := int32(in.ThinkingBudget)
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: &budget,
		}
	}

	model := g.model
	if in.Model != "" {
		model = in.Model
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "Gemini API call failed")
	}

	if result == nil || result.Text() == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from Gemini API")
	}

	var usage llm.Usage
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}

	return llm.CompletionResponse{
		Blocks:     []llm.ContentBlock{{Type: llm.BlockText, Text: result.Text()}},
		Usage:      usage,
		Model:      model,
		StopReason: "end_turn",
	}, nil
}

// ModelName returns the default model name for this client.
func (g *Client) ModelName() string {
	return g.model
}

// convertMessages converts messages to Gemini's Content format.
// Gemini uses "model" instead of "assistant" for the assistant role.
func convertMessages(messages []llm.Message) ([]*genai.Content, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("message list cannot be empty")
	}

	contents := make([]*genai.Content, 0, len(messages))
	for i := range messages {
		msg := &messages[i]

		var role string
		switch msg.Role {
		case llm.RoleUser:
			role = "user"
		case llm.RoleAssistant:
			role = "model"
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	return contents, nil
}

var _ llm.Client = (*Client)(nil)
