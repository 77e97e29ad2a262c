package tools

import (
	"context"
	"fmt"
	"strings"

	"scholarmark/pkg/store"
)

// ToolSearchSources is the constant name for the source search tool.
const ToolSearchSources = "search_sources"

const defaultSearchResults = 10

// SearchSourcesTool searches a project's annotations, documents, and folders
// by keyword. It issues no provider call.
type SearchSourcesTool struct{}

// Name returns the tool name.
func (t *SearchSourcesTool) Name() string { return ToolSearchSources }

// Definition returns the tool definition for the provider.
func (t *SearchSourcesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolSearchSources,
		Description: "Search the current project's sources (annotations, document text, folders) by keyword. Returns a ranked digest of hits.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Keywords to search for",
				},
				"filter": {
					Type:        "string",
					Description: "Restrict to one result type",
					Enum:        []string{store.ResultTypeAnnotation, store.ResultTypeDocumentContext, store.ResultTypeFolderContext},
				},
				"max_results": {
					Type:        "number",
					Description: "Maximum number of results (default 10)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Exec runs the search. Without a project it degrades to an explanatory
// message so the agent loop can keep going.
func (t *SearchSourcesTool) Exec(ctx context.Context, args map[string]any, tctx *Context) (*Result, error) {
	if tctx.ProjectID == "" {
		return messageResult("No project is currently selected, so there are no sources to search. Ask the user to open a project first."), nil
	}

	query := stringArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return messageResult("search_sources needs a non-empty query."), nil
	}

	resp, err := tctx.Search.GlobalSearch(ctx, tctx.ProjectID, query, stringArg(args, "filter"), intArg(args, "max_results", defaultSearchResults))
	if err != nil {
		return nil, fmt.Errorf("source search failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return messageResult("No results found for %q in this project's sources.", query), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d matches for %q (showing %d):\n\n", resp.TotalResults, query, len(resp.Results)))
	for i := range resp.Results {
		sb.WriteString(renderSearchHit(i+1, &resp.Results[i]))
	}
	return &Result{Content: sb.String()}, nil
}

func renderSearchHit(rank int, hit *store.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. [%s, %s relevance, %.2f]", rank, hit.Type, hit.RelevanceLevel, hit.SimilarityScore))
	switch hit.Type {
	case store.ResultTypeAnnotation:
		sb.WriteString(fmt.Sprintf(" %s: %q", hit.DocumentFilename, hit.HighlightedText))
		if hit.Note != "" {
			sb.WriteString(fmt.Sprintf(" (note: %s)", hit.Note))
		}
		if hit.Category != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", hit.Category))
		}
	case store.ResultTypeDocumentContext:
		sb.WriteString(fmt.Sprintf(" %s: ...%s...", hit.DocumentFilename, strings.TrimSpace(hit.MatchedText)))
	case store.ResultTypeFolderContext:
		sb.WriteString(fmt.Sprintf(" folder %q", hit.FolderName))
	}
	sb.WriteString("\n")
	return sb.String()
}
