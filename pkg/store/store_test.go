package store

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedDocument(t *testing.T, s *Store, id, project, filename, text string) {
	t.Helper()
	require.NoError(t, s.UpsertDocument(context.Background(), &Document{
		ID:        id,
		ProjectID: project,
		Filename:  filename,
		Text:      text,
	}))
}

func TestAnnotationsByIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "proj-1", "climate.pdf", "full text")
	require.NoError(t, s.UpsertAnnotation(ctx, &Annotation{
		ID: "a1", ProjectID: "proj-1", DocumentID: "doc-1",
		HighlightedText: "emissions rose sharply", Category: "evidence",
	}))
	require.NoError(t, s.UpsertAnnotation(ctx, &Annotation{
		ID: "a2", ProjectID: "proj-1", DocumentID: "doc-1",
		HighlightedText: "policy lagged behind", Note: "key claim",
	}))

	// Order of ids preserved, missing ids skipped
	anns, filenames, err := s.AnnotationsByIDs(ctx, []string{"a2", "missing", "a1"})
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "a2", anns[0].ID)
	assert.Equal(t, "a1", anns[1].ID)
	assert.Equal(t, []string{"climate.pdf", "climate.pdf"}, filenames)
}

func TestAnnotationsByIDsEmpty(t *testing.T) {
	s := openTestStore(t)
	anns, filenames, err := s.AnnotationsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, anns)
	assert.Empty(t, filenames)
}

func TestLoadSurroundingChunks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	text := ""
	for i := 0; i < 100; i++ {
		text += "abcdefghij"
	}
	seedDocument(t, s, "doc-1", "proj-1", "long.pdf", text)

	window, err := s.LoadSurroundingChunks(ctx, "doc-1", 500, 100)
	require.NoError(t, err)
	require.NotNil(t, window)

	// Windows are contiguous and non-overlapping around the position
	assert.Equal(t, 100, len(window.Before))
	assert.Equal(t, 100, len(window.Target))
	assert.Equal(t, 100, len(window.After))
	assert.Equal(t, text[350:450], window.Before)
	assert.Equal(t, text[450:550], window.Target)
	assert.Equal(t, text[550:650], window.After)
}

func TestLoadSurroundingChunksAtStart(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "doc-1", "proj-1", "short.pdf", "0123456789")

	window, err := s.LoadSurroundingChunks(ctx, "doc-1", 0, 6)
	require.NoError(t, err)
	require.NotNil(t, window)
	assert.Empty(t, window.Before)
	assert.Equal(t, "012345", window.Target)
	assert.Equal(t, "6789", window.After)
}

func TestLoadSurroundingChunksMultibyteText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Two-byte runes: naive byte offsets land mid-rune
	text := strings.Repeat("é", 600)
	seedDocument(t, s, "doc-1", "proj-1", "accents.pdf", text)

	window, err := s.LoadSurroundingChunks(ctx, "doc-1", 601, 100)
	require.NoError(t, err)
	require.NotNil(t, window)

	assert.True(t, utf8.ValidString(window.Before))
	assert.True(t, utf8.ValidString(window.Target))
	assert.True(t, utf8.ValidString(window.After))

	// Windows stay contiguous after boundary snapping
	assert.Contains(t, text, window.Before+window.Target+window.After)
}

func TestLoadSurroundingChunksUnknownDocument(t *testing.T) {
	s := openTestStore(t)
	window, err := s.LoadSurroundingChunks(context.Background(), "nope", 0, 100)
	require.NoError(t, err)
	assert.Nil(t, window)
}

func TestLoadDocumentText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedDocument(t, s, "doc-1", "proj-1", "a.pdf", "hello")

	dt, err := s.LoadDocumentText(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, dt)
	assert.Equal(t, "a.pdf", dt.Filename)
	assert.Equal(t, "hello", dt.Text)

	missing, err := s.LoadDocumentText(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGlobalSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "proj-1", "climate.pdf", "carbon tax policy analysis for coastal cities")
	require.NoError(t, s.UpsertAnnotation(ctx, &Annotation{
		ID: "a1", ProjectID: "proj-1", DocumentID: "doc-1",
		HighlightedText: "carbon tax reduced emissions", Category: "evidence",
	}))
	require.NoError(t, s.UpsertFolder(ctx, &Folder{ID: "f1", ProjectID: "proj-1", Name: "carbon sources"}))

	resp, err := s.GlobalSearch(ctx, "proj-1", "carbon tax", "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, len(resp.Results), resp.TotalResults)

	for _, r := range resp.Results {
		assert.GreaterOrEqual(t, r.SimilarityScore, 0.0)
		assert.LessOrEqual(t, r.SimilarityScore, 1.0)
		assert.NotEmpty(t, r.RelevanceLevel)
	}

	// Full-match annotation ranks first
	assert.Equal(t, ResultTypeAnnotation, resp.Results[0].Type)
	assert.Equal(t, RelevanceHigh, resp.Results[0].RelevanceLevel)
	assert.InDelta(t, 1.0, resp.Results[0].SimilarityScore, 1e-9)
}

func TestGlobalSearchFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "proj-1", "climate.pdf", "carbon tax policy")
	require.NoError(t, s.UpsertAnnotation(ctx, &Annotation{
		ID: "a1", ProjectID: "proj-1", DocumentID: "doc-1",
		HighlightedText: "carbon tax reduced emissions",
	}))

	resp, err := s.GlobalSearch(ctx, "proj-1", "carbon", ResultTypeDocumentContext, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, ResultTypeDocumentContext, resp.Results[0].Type)
	assert.NotEmpty(t, resp.Results[0].MatchedText)
}

func TestGlobalSearchNoTerms(t *testing.T) {
	s := openTestStore(t)
	resp, err := s.GlobalSearch(context.Background(), "proj-1", "   ", "", 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalResults)
}
