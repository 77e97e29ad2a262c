package tools

import (
	"context"
	"fmt"
	"strings"
)

// ToolCompilePaper is the constant name for the compilation tool.
const ToolCompilePaper = "compile_paper"

const compileOutputTokens = 8192

// CompilePaperTool merges every document produced so far in the conversation
// into one paper.
type CompilePaperTool struct{}

// Name returns the tool name.
func (t *CompilePaperTool) Name() string { return ToolCompilePaper }

// Definition returns the tool definition for the provider.
func (t *CompilePaperTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolCompilePaper,
		Description: "Merge all sections drafted so far in this conversation into a single paper with transitions and a bibliography.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"citation_style": {
					Type:        "string",
					Description: "Bibliography format",
					Enum:        []string{"mla", "apa", "chicago"},
				},
			},
		},
	}
}

// Exec concatenates the logged documents in production order and asks the
// provider to merge them. With zero logged documents it returns a "nothing
// to compile" message without calling the provider.
func (t *CompilePaperTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	if tctx.Documents == nil || tctx.Documents.Len() == 0 {
		return messageResult("There is nothing to compile yet: no sections have been drafted in this conversation. Use write_section first."), nil
	}

	style := stringArg(args, "citation_style")
	if style == "" {
		style = "apa"
	}

	docs := tctx.Documents.All()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Merge the following %d drafted sections into one coherent paper.\n", len(docs)))
	sb.WriteString("Add transitions, normalize voice, add an introduction and conclusion if missing, ")
	sb.WriteString(fmt.Sprintf("and append a bibliography in %s style for the sources cited.\n", style))
	sb.WriteString("Do not rewrite section bodies; change only connective material.\n\n")
	for i := range docs {
		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", docs[i].Title, docs[i].Content))
	}

	paper, err := tctx.complete(ctx, "You are an academic editor assembling a final paper from drafted sections.", sb.String(), compileOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("compile provider call failed: %w", err)
	}

	return &Result{
		Content:       paper,
		IsDocument:    true,
		DocumentTitle: "Compiled Paper",
	}, nil
}
