package tools

import (
	"context"
	"fmt"
)

// ToolAnnotationContext is the constant name for the context window tool.
const ToolAnnotationContext = "request_annotation_context"

const defaultContextChars = 500

// AnnotationContextTool fetches the text surrounding a character position in
// a source document. It issues no provider call and needs no project.
type AnnotationContextTool struct{}

// Name returns the tool name.
func (t *AnnotationContextTool) Name() string { return ToolAnnotationContext }

// Definition returns the tool definition for the provider.
func (t *AnnotationContextTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolAnnotationContext,
		Description: "Retrieve the text immediately before, at, and after a character position in a source document, to see an annotation in context.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"document_id": {
					Type:        "string",
					Description: "The source document id",
				},
				"position": {
					Type:        "number",
					Description: "Character position the annotation starts at",
				},
				"context_chars": {
					Type:        "number",
					Description: "Window size in characters (default 500)",
				},
			},
			Required: []string{"document_id", "position"},
		},
	}
}

// Exec loads the window. An unresolvable document id yields a "not found"
// message, never an error.
func (t *AnnotationContextTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	documentID := stringArg(args, "document_id")
	if documentID == "" {
		return messageResult("request_annotation_context needs a document_id."), nil
	}

	window, err := tctx.Docs.LoadSurroundingChunks(ctx, documentID, intArg(args, "position", 0), intArg(args, "context_chars", defaultContextChars))
	if err != nil {
		return nil, fmt.Errorf("loading context for document %s failed: %w", documentID, err)
	}
	if window == nil {
		return messageResult("Document %q was not found, so no surrounding context is available.", documentID), nil
	}

	content := fmt.Sprintf(
		"Context window for document %s:\n\n[BEFORE]\n%s\n\n[TARGET]\n%s\n\n[AFTER]\n%s",
		documentID, window.Before, window.Target, window.After,
	)
	return &Result{Content: content}, nil
}
