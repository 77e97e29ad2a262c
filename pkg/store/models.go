package store

import "time"

// Annotation is a stored user-highlighted excerpt from a source document.
type Annotation struct {
	ID              string
	ProjectID       string
	DocumentID      string
	HighlightedText string
	Note            string
	Category        string
	CitationAuthor  string
	CitationTitle   string
	CitationDate    string
	Position        int
	CreatedAt       time.Time
}

// Document is a stored source document with its extracted text.
type Document struct {
	ID        string
	ProjectID string
	Filename  string
	Text      string
	CreatedAt time.Time
}

// Folder groups documents within a project.
type Folder struct {
	ID        string
	ProjectID string
	Name      string
}

// Result types returned by GlobalSearch.
const (
	ResultTypeAnnotation      = "annotation"
	ResultTypeDocumentContext = "document_context"
	ResultTypeFolderContext   = "folder_context"
)

// SearchResult is one ranked hit from GlobalSearch.
type SearchResult struct {
	Type             string
	RelevanceLevel   string
	SimilarityScore  float64
	DocumentFilename string
	HighlightedText  string
	Note             string
	Category         string
	MatchedText      string
	DocumentID       string
	FolderName       string
}

// SearchResponse is the envelope returned by GlobalSearch.
type SearchResponse struct {
	Results      []SearchResult
	TotalResults int
}

// ChunkWindow holds the text surrounding a character position in a document.
// The three windows are contiguous and non-overlapping.
type ChunkWindow struct {
	Before string
	Target string
	After  string
}

// DocumentText is the filename plus full text of one document.
type DocumentText struct {
	Filename string
	Text     string
}
