// Package store provides SQLite-backed storage for projects: source documents,
// annotations, folders, and the keyword search used by the tool layer.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite" // SQLite driver

	"scholarmark/pkg/logx"
)

// Store wraps the SQLite connection.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the database at path with WAL mode and a
// busy timeout, and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("store")
	logger.Info("Database opened: %s", path)

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func initializeSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS annotations (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		highlighted_text TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		citation_author TEXT NOT NULL DEFAULT '',
		citation_title TEXT NOT NULL DEFAULT '',
		citation_date TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id)
	);

	CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_annotations_project ON annotations(project_id);
	CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// UpsertDocument inserts or updates a document record.
func (s *Store) UpsertDocument(ctx context.Context, doc *Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO documents (id, project_id, filename, text, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			filename = excluded.filename,
			text = excluded.text
	`
	_, err := s.db.ExecContext(ctx, query, doc.ID, doc.ProjectID, doc.Filename, doc.Text, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// UpsertAnnotation inserts or updates an annotation record.
func (s *Store) UpsertAnnotation(ctx context.Context, ann *Annotation) error {
	if ann.CreatedAt.IsZero() {
		ann.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO annotations (
			id, project_id, document_id, highlighted_text, note, category,
			citation_author, citation_title, citation_date, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			document_id = excluded.document_id,
			highlighted_text = excluded.highlighted_text,
			note = excluded.note,
			category = excluded.category,
			citation_author = excluded.citation_author,
			citation_title = excluded.citation_title,
			citation_date = excluded.citation_date,
			position = excluded.position
	`
	_, err := s.db.ExecContext(ctx, query,
		ann.ID, ann.ProjectID, ann.DocumentID, ann.HighlightedText, ann.Note, ann.Category,
		ann.CitationAuthor, ann.CitationTitle, ann.CitationDate, ann.Position, ann.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert annotation %s: %w", ann.ID, err)
	}
	return nil
}

// UpsertFolder inserts or updates a folder record.
func (s *Store) UpsertFolder(ctx context.Context, folder *Folder) error {
	query := `
		INSERT INTO folders (id, project_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, folder.ID, folder.ProjectID, folder.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert folder %s: %w", folder.ID, err)
	}
	return nil
}

// AnnotationsByIDs loads the annotations with the given ids, joined with their
// document filename. Missing ids are silently skipped; the result preserves
// the order of the ids argument.
func (s *Store) AnnotationsByIDs(ctx context.Context, ids []string) ([]Annotation, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		SELECT a.id, a.project_id, a.document_id, a.highlighted_text, a.note, a.category,
			a.citation_author, a.citation_title, a.citation_date, a.position, a.created_at,
			d.filename
		FROM annotations a
		JOIN documents d ON d.id = a.document_id
		WHERE a.id IN (%s)
	`, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]Annotation, len(ids))
	filenames := make(map[string]string, len(ids))
	for rows.Next() {
		var ann Annotation
		var filename string
		if err := rows.Scan(&ann.ID, &ann.ProjectID, &ann.DocumentID, &ann.HighlightedText,
			&ann.Note, &ann.Category, &ann.CitationAuthor, &ann.CitationTitle,
			&ann.CitationDate, &ann.Position, &ann.CreatedAt, &filename); err != nil {
			return nil, nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		byID[ann.ID] = ann
		filenames[ann.ID] = filename
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("annotation row iteration failed: %w", err)
	}

	result := make([]Annotation, 0, len(byID))
	names := make([]string, 0, len(byID))
	for _, id := range ids {
		if ann, ok := byID[id]; ok {
			result = append(result, ann)
			names = append(names, filenames[id])
		}
	}
	return result, names, nil
}

// LoadSurroundingChunks returns the text windows around a character position
// in a document: a target window of contextChars centered on position, plus
// before/after windows of up to contextChars each on either side. The windows
// are contiguous and never overlap. Returns nil when the document is unknown.
func (s *Store) LoadSurroundingChunks(ctx context.Context, documentID string, position, contextChars int) (*ChunkWindow, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM documents WHERE id = ?`, documentID).Scan(&text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	if contextChars <= 0 {
		contextChars = 500
	}
	if position < 0 {
		position = 0
	}
	if position > len(text) {
		position = len(text)
	}

	targetStart := position - contextChars/2
	if targetStart < 0 {
		targetStart = 0
	}
	targetEnd := targetStart + contextChars
	if targetEnd > len(text) {
		targetEnd = len(text)
	}

	beforeStart := targetStart - contextChars
	if beforeStart < 0 {
		beforeStart = 0
	}
	afterEnd := targetEnd + contextChars
	if afterEnd > len(text) {
		afterEnd = len(text)
	}

	// Snap every boundary to a rune start so no window holds a split rune.
	// runeFloor is monotonic, so the windows stay contiguous.
	beforeStart = runeFloor(text, beforeStart)
	targetStart = runeFloor(text, targetStart)
	targetEnd = runeFloor(text, targetEnd)
	afterEnd = runeFloor(text, afterEnd)

	return &ChunkWindow{
		Before: text[beforeStart:targetStart],
		Target: text[targetStart:targetEnd],
		After:  text[targetEnd:afterEnd],
	}, nil
}

// runeFloor moves a byte offset back to the start of the rune containing it.
func runeFloor(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// LoadDocumentText returns the filename and full text of a document, or nil
// when the document is unknown.
func (s *Store) LoadDocumentText(ctx context.Context, documentID string) (*DocumentText, error) {
	var dt DocumentText
	err := s.db.QueryRowContext(ctx, `SELECT filename, text FROM documents WHERE id = ?`, documentID).
		Scan(&dt.Filename, &dt.Text)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}
	return &dt, nil
}
