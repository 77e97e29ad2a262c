package tools

import (
	"context"
	"fmt"
	"strings"
)

// ToolProposeOutline is the constant name for the outline tool.
const ToolProposeOutline = "propose_outline"

const outlineOutputTokens = 2048

// ProposeOutlineTool asks the provider to draft a paper outline.
type ProposeOutlineTool struct{}

// Name returns the tool name.
func (t *ProposeOutlineTool) Name() string { return ToolProposeOutline }

// Definition returns the tool definition for the provider.
func (t *ProposeOutlineTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolProposeOutline,
		Description: "Propose a section-by-section outline for a paper on the given topic.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"topic": {
					Type:        "string",
					Description: "The paper topic",
				},
				"notes": {
					Type:        "string",
					Description: "Extra guidance: required sections, angle, audience",
				},
			},
			Required: []string{"topic"},
		},
	}
}

// Exec issues one provider call. Provider failures propagate to the caller.
func (t *ProposeOutlineTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	topic := stringArg(args, "topic")
	if strings.TrimSpace(topic) == "" {
		return messageResult("propose_outline needs a topic."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Propose an outline for an academic paper on %q.\n", topic))
	sb.WriteString("For each section give a title, a one-sentence purpose, and a rough word target.")
	if tctx.ProjectThesis != "" {
		sb.WriteString(fmt.Sprintf("\nThe project's working thesis is: %q.", tctx.ProjectThesis))
	}
	if notes := stringArg(args, "notes"); notes != "" {
		sb.WriteString(fmt.Sprintf("\nAdditional guidance: %s", notes))
	}

	outline, err := tctx.complete(ctx, "You are an academic writing planner.", sb.String(), outlineOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("outline provider call failed: %w", err)
	}
	return &Result{Content: outline}, nil
}
