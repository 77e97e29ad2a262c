package tools

import (
	"context"

	"scholarmark/pkg/config"
	"scholarmark/pkg/llm"
	"scholarmark/pkg/store"
)

// Turn is one message of the surrounding conversation.
type Turn struct {
	Role    string
	Content string
}

// ProducedDocument is one document-tagged tool output recorded by the
// conversational loop.
type ProducedDocument struct {
	Title   string
	Content string
	TurnIdx int
}

// DocumentLog is the ordered record of documents produced during a
// conversation. The loop appends to it; compile_paper and verify_citations
// read from it.
type DocumentLog struct {
	docs []ProducedDocument
}

// Append records a produced document.
func (l *DocumentLog) Append(title, content string, turnIdx int) {
	l.docs = append(l.docs, ProducedDocument{Title: title, Content: content, TurnIdx: turnIdx})
}

// All returns the documents in production order.
func (l *DocumentLog) All() []ProducedDocument {
	return l.docs
}

// Latest returns the most recently produced document.
func (l *DocumentLog) Latest() (ProducedDocument, bool) {
	if len(l.docs) == 0 {
		return ProducedDocument{}, false
	}
	return l.docs[len(l.docs)-1], true
}

// Len returns the number of recorded documents.
func (l *DocumentLog) Len() int {
	return len(l.docs)
}

// SearchService is the project search collaborator.
type SearchService interface {
	GlobalSearch(ctx context.Context, projectID, query, filter string, maxResults int) (*store.SearchResponse, error)
}

// DocumentService is the document-context collaborator.
type DocumentService interface {
	LoadSurroundingChunks(ctx context.Context, documentID string, position, contextChars int) (*store.ChunkWindow, error)
	LoadDocumentText(ctx context.Context, documentID string) (*store.DocumentText, error)
}

// Context is the per-conversation state passed into every tool call.
// Handlers read it; the only mutation is the dispatcher appending
// document-tagged results to Documents.
type Context struct {
	// ProjectID is empty when no project is selected; handlers degrade to
	// an explanatory message rather than failing.
	ProjectID     string
	ProjectThesis string
	History       []Turn
	Documents     *DocumentLog

	Client llm.Client
	Models config.ModelSet

	Search SearchService
	Docs   DocumentService
}

// model returns the provider model tools should use.
func (c *Context) model() string {
	return c.Models.Default
}

// complete issues one provider call and returns the concatenated text blocks.
// The conversation history precedes the prompt so tools see what was already
// discussed and drafted.
func (c *Context) complete(ctx context.Context, system, prompt string, maxOutputTokens int) (string, error) {
	messages := make([]llm.Message, 0, len(c.History)+1)
	for _, turn := range c.History {
		if turn.Role == string(llm.RoleAssistant) {
			messages = append(messages, llm.NewAssistantMessage(turn.Content))
		} else {
			messages = append(messages, llm.NewUserMessage(turn.Content))
		}
	}
	messages = append(messages, llm.NewUserMessage(prompt))

	resp, err := c.Client.Complete(ctx, llm.CompletionRequest{
		Model:           c.model(),
		System:          system,
		Messages:        messages,
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
