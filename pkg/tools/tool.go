// Package tools provides the tool dispatch layer: seven bounded capabilities
// a conversational agent may invoke against a project's sources, behind a
// uniform result envelope.
package tools

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Property defines a JSON schema property for tool parameters.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// InputSchema defines the JSON schema for tool input parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition describes a tool so it can be handed to a provider for
// tool-calling.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Result is the uniform envelope every tool handler returns. IsDocument
// marks the content as a reviewable artifact rather than inline text.
type Result struct {
	Content       string `json:"content"`
	IsDocument    bool   `json:"isDocument"`
	DocumentTitle string `json:"documentTitle,omitempty"`
}

// Tool is the interface each capability implements.
type Tool interface {
	// Name returns the tool name.
	Name() string
	// Definition returns the tool definition for the provider.
	Definition() ToolDefinition
	// Exec executes the tool. Missing-resource conditions degrade to an
	// explanatory Result; only unrecoverable failures (notably provider
	// errors) return a non-nil error.
	Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error)
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg extracts an optional numeric argument; JSON decoding yields float64.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// messageResult wraps an in-band explanatory message.
func messageResult(format string, args ...any) *Result {
	return &Result{Content: fmt.Sprintf(format, args...)}
}

// truncateAtRune cuts s to at most n bytes without splitting a rune.
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
