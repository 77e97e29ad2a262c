// Package openai provides the OpenAI implementation of the llm.Client interface
// using the official OpenAI Go package.
package openai

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"scholarmark/pkg/config"
	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/llmerrors"
)

// Client wraps the official OpenAI Go client to implement llm.Client.
type Client struct {
	client openaisdk.Client
	model  string
}

// NewClient creates an OpenAI client bound to the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openaisdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements llm.Client via the Chat Completions API. A positive
// thinking budget maps to high reasoning effort; the reasoning models do not
// expose a token-level budget, and reasoning output is never returned as a
// visible block.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	model := c.model
	if in.Model != "" {
		model = in.Model
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(in.Messages)+1)
	if in.System != "" {
		messages = append(messages, openaisdk.SystemMessage(in.System))
	}
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case llm.RoleUser:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		case llm.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		default:
			return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, fmt.Sprintf("unsupported message role: %s", msg.Role))
		}
	}

	// Cap output tokens to the model's limit to prevent API errors.
	maxTokens := in.MaxOutputTokens
	if info, exists := config.KnownModels[model]; exists && info.MaxOutputTokens > 0 && maxTokens > info.MaxOutputTokens {
		maxTokens = info.MaxOutputTokens
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:               openaisdk.ChatModel(model),
		Messages:            messages,
		MaxCompletionTokens: openaisdk.Int(int64(maxTokens)),
	}
	if in.ThinkingBudget > 0 {
		params.ReasoningEffort = "high"
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "OpenAI API call failed")
	}

	if resp == nil || len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from OpenAI API")
	}

	choice := resp.Choices[0]
	return llm.CompletionResponse{
		Blocks: []llm.ContentBlock{{Type: llm.BlockText, Text: choice.Message.Content}},
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Model:      model,
		StopReason: string(choice.FinishReason),
	}, nil
}

// ModelName returns the default model name for this client.
func (c *Client) ModelName() string {
	return c.model
}

var _ llm.Client = (*Client)(nil)
