package writing

import (
	"fmt"
	"strings"
)

// noDashInstruction is the hard style constraint added to every drafting and
// stitching prompt when the request sets NoEnDashes.
const noDashInstruction = "HARD CONSTRAINT: Do not use en dashes or em dashes anywhere in the text. Use commas, parentheses, or separate sentences instead."

// renderAnnotationBlock serializes annotations for embedding in a prompt.
// Each entry carries the id, the best available source attribution (citation
// data when present, else the document filename), the category, the optional
// note, and the quoted excerpt.
func renderAnnotationBlock(annotations []AnnotationSource) string {
	var sb strings.Builder
	for i := range annotations {
		ann := &annotations[i]
		sb.WriteString(fmt.Sprintf("[%s] Source: %s\n", ann.ID, sourceAttribution(ann)))
		if ann.Category != "" {
			sb.WriteString(fmt.Sprintf("Category: %s\n", ann.Category))
		}
		if ann.Note != "" {
			sb.WriteString(fmt.Sprintf("User note: %s\n", ann.Note))
		}
		sb.WriteString(fmt.Sprintf("Excerpt: %q\n\n", ann.HighlightedText))
	}
	return sb.String()
}

// sourceAttribution prefers citation data over the raw filename.
func sourceAttribution(ann *AnnotationSource) string {
	if cd := ann.CitationData; cd != nil {
		parts := make([]string, 0, 3)
		if cd.Author != "" {
			parts = append(parts, cd.Author)
		}
		if cd.Title != "" {
			parts = append(parts, cd.Title)
		}
		if cd.Date != "" {
			parts = append(parts, cd.Date)
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	return ann.DocumentFilename
}

// outlineSummary renders every section's title, word target, and description
// so per-section prompts keep narrative coherence with the whole document.
func outlineSummary(plan *Plan) string {
	var sb strings.Builder
	for i := range plan.Sections {
		sec := &plan.Sections[i]
		sb.WriteString(fmt.Sprintf("%d. %s (~%d words): %s\n", i+1, sec.Title, sec.TargetWords, sec.Description))
	}
	return sb.String()
}

// toneInstruction describes the requested voice.
func toneInstruction(tone Tone) string {
	switch tone {
	case ToneCasual:
		return "Write in a clear, conversational tone accessible to a general reader."
	case ToneAPStyle:
		return "Write in AP style: concise sentences, active voice, journalistic register."
	default:
		return "Write in a formal academic tone with precise, evidence-driven argumentation."
	}
}

// stripCodeFence removes an optional surrounding markdown code fence from a
// model response. Parsing a fenced response must yield the same result as
// parsing the unwrapped body.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	// Drop the opening fence line (with optional language tag)
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
