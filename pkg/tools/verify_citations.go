package tools

import (
	"context"
	"fmt"
	"strings"

	"scholarmark/pkg/store"
)

// ToolVerifyCitations is the constant name for the citation checking tool.
const ToolVerifyCitations = "verify_citations"

const (
	verifyOutputTokens    = 2048
	verifyEvidenceQueries = 5
	verifyEvidenceResults = 3
)

// VerifyCitationsTool cross-references a document's citations against the
// project's sources and produces a structured report.
type VerifyCitationsTool struct{}

// Name returns the tool name.
func (t *VerifyCitationsTool) Name() string { return ToolVerifyCitations }

// Definition returns the tool definition for the provider.
func (t *VerifyCitationsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolVerifyCitations,
		Description: "Check a document's citations against the project's sources and report unsupported or questionable claims. Without explicit content, verifies the most recently drafted document.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"content": {
					Type:        "string",
					Description: "Document text to verify; defaults to the most recent drafted document",
				},
			},
		},
	}
}

// Exec resolves the content (explicit argument, else the most recent logged
// document), gathers supporting evidence via keyword search when a project
// is selected, and asks the provider for a citation report.
func (t *VerifyCitationsTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	content := stringArg(args, "content")
	label := "the provided document"
	if content == "" {
		if tctx.Documents == nil || tctx.Documents.Len() == 0 {
			return messageResult("There is no document to verify: no content was given and nothing has been drafted in this conversation."), nil
		}
		doc, _ := tctx.Documents.Latest()
		content = doc.Content
		label = doc.Title
	}

	evidence := t.gatherEvidence(ctx, tctx, content)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Verify the citations in %s.\n", label))
	sb.WriteString("Produce a structured report listing each cited claim with a verdict: supported, unsupported, or needs review, with a one-line justification.\n")
	if evidence != "" {
		sb.WriteString("\nEvidence found in the project's sources:\n\n")
		sb.WriteString(evidence)
	} else {
		sb.WriteString("\nNo project sources are available; judge internal consistency only and say so in the report.\n")
	}
	sb.WriteString("\nDocument to verify:\n\n")
	sb.WriteString(content)

	report, err := tctx.complete(ctx, "You are a fact-checking assistant verifying citations in academic writing.", sb.String(), verifyOutputTokens)
	if err != nil {
		return nil, fmt.Errorf("citation verification provider call failed: %w", err)
	}
	return &Result{Content: report}, nil
}

// gatherEvidence runs keyword searches for the document's most substantial
// sentences and renders the hits. Returns "" when no project is selected or
// nothing matches.
func (t *VerifyCitationsTool) gatherEvidence(ctx context.Context, tctx *Context, content string) string {
	if tctx.ProjectID == "" || tctx.Search == nil {
		return ""
	}

	var sb strings.Builder
	for _, query := range evidenceQueries(content, verifyEvidenceQueries) {
		resp, err := tctx.Search.GlobalSearch(ctx, tctx.ProjectID, query, store.ResultTypeAnnotation, verifyEvidenceResults)
		if err != nil || len(resp.Results) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("For %q:\n", query))
		for i := range resp.Results {
			hit := &resp.Results[i]
			sb.WriteString(fmt.Sprintf("  - %s: %q (%s relevance)\n", hit.DocumentFilename, hit.HighlightedText, hit.RelevanceLevel))
		}
	}
	return sb.String()
}

// evidenceQueries picks up to limit of the longest sentences as search queries.
func evidenceQueries(content string, limit int) []string {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})

	var queries []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) < 40 {
			continue
		}
		s = truncateAtRune(s, 120)
		queries = append(queries, s)
		if len(queries) == limit {
			break
		}
	}
	return queries
}
