// Package llm provides interfaces and types for Large Language Model client implementations.
package llm

import (
	"context"
	"strings"
)

// Role represents the role of a message in a conversation.
type Role string

const (
	// RoleUser indicates a message from the human user.
	RoleUser Role = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant Role = "assistant"
)

// BlockType identifies the kind of a content block in a completion response.
type BlockType string

const (
	// BlockText is visible model output.
	BlockText BlockType = "text"
	// BlockThinking is internal reasoning output produced under a thinking budget.
	// Callers that want prose must filter these out.
	BlockThinking BlockType = "thinking"
)

// Message represents a message in a completion request.
type Message struct {
	Role    Role
	Content string
}

// ContentBlock is one typed block of a provider response. Providers return an
// ordered sequence of blocks; order is preserved end to end.
type ContentBlock struct {
	Type BlockType
	Text string
}

// Usage carries the token accounting reported by the provider for a single call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add accumulates another call's usage into this one.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages        []Message
	Model           string
	System          string // Optional system prompt
	MaxOutputTokens int
	// ThinkingBudget, when positive, requests an internal reasoning budget
	// before visible output. Providers without the capability ignore it.
	ThinkingBudget int
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Blocks     []ContentBlock
	Usage      Usage
	Model      string
	StopReason string // Why the response stopped: "end_turn", "max_tokens", etc.
}

// Text concatenates the text blocks of the response in order, discarding
// thinking blocks and any other non-text content.
func (r *CompletionResponse) Text() string {
	var sb strings.Builder
	for i := range r.Blocks {
		if r.Blocks[i].Type == BlockText {
			sb.WriteString(r.Blocks[i].Text)
		}
	}
	return sb.String()
}

// Client defines the interface for language model interactions.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// ModelName returns the default model name for this client.
	ModelName() string
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
