// Package anthropic provides the Anthropic Claude implementation of the llm.Client interface.
package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/llmerrors"
)

// Client wraps the Anthropic API client to implement llm.Client.
type Client struct {
	client anthropicsdk.Client
	model  anthropicsdk.Model
}

// NewClient creates a Claude client bound to the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropicsdk.Model(model),
	}
}

// Complete implements llm.Client. When the request carries a thinking budget,
// extended thinking is enabled and the returned blocks preserve the provider's
// thinking/text ordering.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]anthropicsdk.MessageParam, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		messages = append(messages, anthropicsdk.MessageParam{
			Role:    anthropicsdk.MessageParamRole(msg.Role),
			Content: []anthropicsdk.ContentBlockParamUnion{anthropicsdk.NewTextBlock(msg.Content)},
		})
	}

	model := c.model
	if in.Model != "" {
		model = anthropicsdk.Model(in.Model)
	}

	params := anthropicsdk.MessageNewParams{
		Model:     model,
		Messages:  messages,
		MaxTokens: int64(in.MaxOutputTokens),
	}

	if in.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{
			Text: in.System,
			Type: "text",
		}}
	}

	if in.ThinkingBudget > 0 {
		params.Thinking = anthropicsdk.ThinkingConfigParamOfEnabled(int64(in.ThinkingBudget))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, classifyError(err)
	}

	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty or nil response from Claude API")
	}

	blocks := make([]llm.ContentBlock, 0, len(resp.Content))
	for i := range resp.Content {
		block := &resp.Content[i]
		switch block.Type {
		case "text":
			blocks = append(blocks, llm.ContentBlock{Type: llm.BlockText, Text: block.AsText().Text})
		case "thinking":
			blocks = append(blocks, llm.ContentBlock{Type: llm.BlockThinking, Text: block.AsThinking().Thinking})
		}
	}

	return llm.CompletionResponse{
		Blocks: blocks,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		Model:      string(model),
		StopReason: string(resp.StopReason),
	}, nil
}

// ModelName returns the default model name for this client.
func (c *Client) ModelName() string {
	return string(c.model)
}

// classifyError maps Anthropic SDK errors to structured error types.
func classifyError(err error) *llmerrors.Error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request canceled")
	}

	statusCode := extractStatusCode(errStr)
	switch statusCode {
	case 401:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, statusCode, "authentication failed - check API key")
	case 403:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, statusCode, "permission denied - check API access")
	case 429:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeRateLimit, statusCode, "rate limit exceeded")
	case 400:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeBadPrompt, statusCode, "bad request - check prompt format and parameters")
	case 500, 502, 503, 504:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeTransient, statusCode, "server error")
	}

	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "reset"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "network or connection error")
	case strings.Contains(lower, "rate") || strings.Contains(lower, "quota") || strings.Contains(lower, "limit"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeRateLimit, err, "rate limiting detected")
	case strings.Contains(lower, "auth") || strings.Contains(lower, "key") || strings.Contains(lower, "unauthorized"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, "authentication error")
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "malformed") || strings.Contains(lower, "too large"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, "prompt or request error")
	}

	return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "unclassified error")
}

// extractStatusCode attempts to extract an HTTP status code from an error string.
// The Anthropic SDK often includes status codes in error messages.
func extractStatusCode(errStr string) int {
	patterns := []string{
		"status code: ",
		"status: ",
		"http ",
		"code ",
	}

	lower := strings.ToLower(errStr)
	for _, pattern := range patterns {
		idx := strings.Index(lower, pattern)
		if idx == -1 {
			continue
		}
		start := idx + len(pattern)
		if start >= len(errStr) {
			continue
		}
		end := start + 3
		if end > len(errStr) {
			end = len(errStr)
		}
		statusStr := errStr[start:end]

		for _, code := range []struct {
			prefix string
			status int
		}{
			{"400", 400}, {"401", 401}, {"403", 403}, {"429", 429},
			{"500", 500}, {"502", 502}, {"503", 503}, {"504", 504},
		} {
			if strings.HasPrefix(statusStr, code.prefix) {
				return code.status
			}
		}
	}

	return 0
}

var _ llm.Client = (*Client)(nil)
