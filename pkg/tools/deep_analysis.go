package tools

import (
	"context"
	"fmt"
	"strings"
)

// ToolDeepSourceAnalysis is the constant name for the deep analysis tool.
const ToolDeepSourceAnalysis = "deep_source_analysis"

const (
	// analysisCharCeiling bounds how much source text is sent to the provider.
	analysisCharCeiling  = 20000
	analysisOutputTokens = 2048
)

// DeepSourceAnalysisTool asks the provider for a structured analysis of a
// source document. A selected project adds thesis context to the prompt.
type DeepSourceAnalysisTool struct{}

// Name returns the tool name.
func (t *DeepSourceAnalysisTool) Name() string { return ToolDeepSourceAnalysis }

// Definition returns the tool definition for the provider.
func (t *DeepSourceAnalysisTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolDeepSourceAnalysis,
		Description: "Run a structured analysis of a source document: main claims, evidence quality, relevance to the project thesis, and notable passages.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"document_id": {
					Type:        "string",
					Description: "Id of the source document to analyze",
				},
				"text": {
					Type:        "string",
					Description: "Raw text to analyze instead of a stored document",
				},
			},
		},
	}
}

// Exec resolves the text, truncates it to the character ceiling, and issues
// one provider call. Provider failures propagate to the caller.
func (t *DeepSourceAnalysisTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	text := stringArg(args, "text")
	label := "the provided text"

	if documentID := stringArg(args, "document_id"); documentID != "" {
		doc, err := tctx.Docs.LoadDocumentText(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("loading document %s failed: %w", documentID, err)
		}
		if doc == nil {
			return messageResult("Document %q was not found, so it cannot be analyzed.", documentID), nil
		}
		text = doc.Text
		label = doc.Filename
	}

	if strings.TrimSpace(text) == "" {
		return messageResult("deep_source_analysis needs either a document_id or text to analyze."), nil
	}

	text = truncateAtRune(text, analysisCharCeiling)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze the following source (%s).\n", label))
	sb.WriteString("Report: (1) main claims, (2) evidence quality, (3) notable passages worth citing")
	if tctx.ProjectThesis != "" {
		sb.WriteString(fmt.Sprintf(", (4) relevance to the project thesis: %q", tctx.ProjectThesis))
	}
	sb.WriteString(".\n\nSource text:\n\n")
	sb.WriteString(text)

	analysis, err := tctx.complete(ctx, "You are a research assistant producing rigorous source analyses.", sb.String(), analysisOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("source analysis provider call failed: %w", err)
	}
	return &Result{Content: analysis}, nil
}
