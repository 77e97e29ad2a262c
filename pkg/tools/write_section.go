package tools

import (
	"context"
	"fmt"
	"strings"
)

// ToolWriteSection is the constant name for the section drafting tool.
const ToolWriteSection = "write_section"

const sectionToolOutputTokens = 3000

// WriteSectionTool drafts one section of a paper and flags the result as a
// reviewable document.
type WriteSectionTool struct{}

// Name returns the tool name.
func (t *WriteSectionTool) Name() string { return ToolWriteSection }

// Definition returns the tool definition for the provider.
func (t *WriteSectionTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolWriteSection,
		Description: "Draft one section of a paper. The result is returned as a reviewable document card.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"title": {
					Type:        "string",
					Description: "Section title",
				},
				"description": {
					Type:        "string",
					Description: "What the section should argue or cover",
				},
				"target_words": {
					Type:        "number",
					Description: "Approximate word target for the section",
				},
			},
			Required: []string{"title"},
		},
	}
}

// Exec issues one provider call and tags the output as a document. Provider
// failures propagate to the caller.
func (t *WriteSectionTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	title := stringArg(args, "title")
	if strings.TrimSpace(title) == "" {
		return messageResult("write_section needs a section title."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Draft the section titled %q for an academic paper.\n", title))
	if desc := stringArg(args, "description"); desc != "" {
		sb.WriteString(fmt.Sprintf("Section brief: %s\n", desc))
	}
	if words := intArg(args, "target_words", 0); words > 0 {
		sb.WriteString(fmt.Sprintf("Target length: about %d words.\n", words))
	}
	if tctx.ProjectThesis != "" {
		sb.WriteString(fmt.Sprintf("The paper's thesis is: %q.\n", tctx.ProjectThesis))
	}
	sb.WriteString("Write only the section body text.")

	text, err := tctx.complete(ctx, "You are an academic writer drafting one section of a larger paper.", sb.String(), sectionToolOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("section drafting provider call failed: %w", err)
	}

	return &Result{
		Content:       text,
		IsDocument:    true,
		DocumentTitle: title,
	}, nil
}
