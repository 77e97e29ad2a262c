package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Relevance levels derived from the similarity score.
const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
	RelevanceLow    = "low"
)

const matchExcerptChars = 200

// GlobalSearch runs a keyword search across a project's annotations,
// documents, and folders. Similarity is the fraction of query terms present
// in the candidate text, in [0,1]. filter restricts results to one result
// type when non-empty. Results are ranked by similarity, capped at maxResults.
func (s *Store) GlobalSearch(ctx context.Context, projectID, query, filter string, maxResults int) (*SearchResponse, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return &SearchResponse{}, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	var results []SearchResult

	if filter == "" || filter == ResultTypeAnnotation {
		annResults, err := s.searchAnnotations(ctx, projectID, terms)
		if err != nil {
			return nil, err
		}
		results = append(results, annResults...)
	}

	if filter == "" || filter == ResultTypeDocumentContext {
		docResults, err := s.searchDocuments(ctx, projectID, terms)
		if err != nil {
			return nil, err
		}
		results = append(results, docResults...)
	}

	if filter == "" || filter == ResultTypeFolderContext {
		folderResults, err := s.searchFolders(ctx, projectID, terms)
		if err != nil {
			return nil, err
		}
		results = append(results, folderResults...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})

	total := len(results)
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return &SearchResponse{Results: results, TotalResults: total}, nil
}

func (s *Store) searchAnnotations(ctx context.Context, projectID string, terms []string) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.highlighted_text, a.note, a.category, d.filename, a.document_id
		FROM annotations a
		JOIN documents d ON d.id = a.document_id
		WHERE a.project_id = ?
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to search annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var highlighted, note, category, filename, documentID string
		if err := rows.Scan(&highlighted, &note, &category, &filename, &documentID); err != nil {
			return nil, fmt.Errorf("failed to scan annotation hit: %w", err)
		}
		score := similarity(highlighted+" "+note, terms)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Type:             ResultTypeAnnotation,
			RelevanceLevel:   relevanceLevel(score),
			SimilarityScore:  score,
			DocumentFilename: filename,
			HighlightedText:  highlighted,
			Note:             note,
			Category:         category,
			DocumentID:       documentID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("annotation search iteration failed: %w", err)
	}
	return results, nil
}

func (s *Store) searchDocuments(ctx context.Context, projectID string, terms []string) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, text FROM documents WHERE project_id = ?
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var id, filename, text string
		if err := rows.Scan(&id, &filename, &text); err != nil {
			return nil, fmt.Errorf("failed to scan document hit: %w", err)
		}
		score := similarity(text, terms)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Type:             ResultTypeDocumentContext,
			RelevanceLevel:   relevanceLevel(score),
			SimilarityScore:  score,
			DocumentFilename: filename,
			MatchedText:      matchExcerpt(text, terms),
			DocumentID:       id,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document search iteration failed: %w", err)
	}
	return results, nil
}

func (s *Store) searchFolders(ctx context.Context, projectID string, terms []string) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM folders WHERE project_id = ?
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to search folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan folder hit: %w", err)
		}
		score := similarity(name, terms)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Type:            ResultTypeFolderContext,
			RelevanceLevel:  relevanceLevel(score),
			SimilarityScore: score,
			FolderName:      name,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("folder search iteration failed: %w", err)
	}
	return results, nil
}

// queryTerms lowercases and splits a query into unique terms.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?"'()`)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// similarity is the fraction of query terms present in the text.
func similarity(text string, terms []string) float64 {
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func relevanceLevel(score float64) string {
	switch {
	case score >= 0.75:
		return RelevanceHigh
	case score >= 0.4:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}

// matchExcerpt returns a short window of text around the first matching term.
func matchExcerpt(text string, terms []string) string {
	lower := strings.ToLower(text)
	for _, term := range terms {
		idx := strings.Index(lower, term)
		if idx == -1 {
			continue
		}
		start := idx - matchExcerptChars/2
		if start < 0 {
			start = 0
		}
		end := start + matchExcerptChars
		if end > len(text) {
			end = len(text)
		}
		return text[start:end]
	}
	if len(text) > matchExcerptChars {
		return text[:matchExcerptChars]
	}
	return text
}
