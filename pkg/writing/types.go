// Package writing implements the three-phase writing pipeline: plan the
// document, draft each section, and stitch the drafts into a single paper,
// emitting progress events at every phase boundary.
package writing

import (
	"fmt"

	"scholarmark/pkg/llm"
)

// CitationStyle selects the bibliography format.
type CitationStyle string

// Supported citation styles.
const (
	StyleMLA     CitationStyle = "mla"
	StyleAPA     CitationStyle = "apa"
	StyleChicago CitationStyle = "chicago"
)

// Tone selects the writing voice.
type Tone string

// Supported tones.
const (
	ToneAcademic Tone = "academic"
	ToneCasual   Tone = "casual"
	ToneAPStyle  Tone = "ap_style"
)

// TargetLength selects the total word budget for the document.
type TargetLength string

// Supported target lengths.
const (
	LengthShort  TargetLength = "short"
	LengthMedium TargetLength = "medium"
	LengthLong   TargetLength = "long"
)

// wordCountForLength maps a target length to the total word count requested
// from the planner.
func wordCountForLength(length TargetLength) int {
	switch length {
	case LengthMedium:
		return 2500
	case LengthLong:
		return 4000
	default:
		return 1500
	}
}

// Request is the immutable input to one pipeline run.
type Request struct {
	Topic         string        `yaml:"topic"`
	AnnotationIDs []string      `yaml:"annotation_ids"`
	ProjectID     string        `yaml:"project_id"`
	CitationStyle CitationStyle `yaml:"citation_style"`
	Tone          Tone          `yaml:"tone"`
	TargetLength  TargetLength  `yaml:"target_length"`
	NoEnDashes    bool          `yaml:"no_en_dashes"`
	DeepWrite     bool          `yaml:"deep_write"`
}

// CitationData is the bibliographic metadata attached to an annotation.
type CitationData struct {
	Author string
	Title  string
	Date   string
}

// AnnotationSource is a read-only projection of a stored annotation. The
// pipeline only reads it; ownership stays with the persistence layer.
type AnnotationSource struct {
	ID               string
	HighlightedText  string
	Note             string
	Category         string
	CitationData     *CitationData
	DocumentFilename string
}

// PlanSection is one planned section of the document. AnnotationIDs reference
// the run's annotation list; unique within a section, not across sections.
type PlanSection struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	AnnotationIDs []string `json:"annotationIds"`
	TargetWords   int      `json:"targetWords"`
}

// Plan is the structured outline produced once per run by the planner.
// Immutable after planning; section order is the canonical document order.
type Plan struct {
	Thesis       string        `json:"thesis"`
	Sections     []PlanSection `json:"sections"`
	Bibliography []string      `json:"bibliography"`
}

// ValidationError indicates the provider returned a malformed plan. It aborts
// the entire run; no partial recovery is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plan validation failed: %s", e.Message)
}

// EventType tags the progress event union.
type EventType string

// Event types. Exactly one complete or error event terminates a run; plan is
// emitted exactly once, after planning succeeds and before any section.
const (
	EventStatus   EventType = "status"
	EventPlan     EventType = "plan"
	EventSection  EventType = "section"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Pipeline phases reported by status events.
const (
	PhasePlanning  = "planning"
	PhaseWriting   = "writing"
	PhaseStitching = "stitching"
)

// Event is the sole channel through which pipeline progress is observable.
type Event struct {
	Type  EventType `json:"type"`
	RunID string    `json:"runId"`

	// status and error events
	Phase   string `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`

	// plan event
	Plan *Plan `json:"plan,omitempty"`

	// section events. SectionIndex has no omitempty: index 0 must survive
	// encoding so consumers can tell the first section from a missing index.
	SectionIndex int    `json:"sectionIndex"`
	SectionTitle string `json:"sectionTitle,omitempty"`
	SectionText  string `json:"sectionText,omitempty"`

	// complete event
	FullText string     `json:"fullText,omitempty"`
	Usage    *llm.Usage `json:"usage,omitempty"`
}

// EventSink receives progress events. It is invoked synchronously at phase
// boundaries and must not block materially, as it gates forward progress.
type EventSink func(Event)
