package writing

import (
	"context"
	"fmt"
	"strings"

	"scholarmark/pkg/llm"
	"scholarmark/pkg/logx"
	"scholarmark/pkg/tokens"
)

const (
	// sectionOutputFloor is the minimum output token budget for any section.
	sectionOutputFloor = 1500
	// deepWriteThinkingBudget is the internal reasoning budget requested
	// before visible output under deep write.
	deepWriteThinkingBudget = 4096
	// evidenceTokenLimit bounds the rendered evidence block per section.
	evidenceTokenLimit = 6000
)

// Writer drafts one section at a time against its bound evidence.
type Writer struct {
	client  llm.Client
	counter *tokens.Counter
	logger  *logx.Logger
}

// NewWriter creates a writer using the injected provider client. counter may
// be nil, in which case evidence truncation falls back to character estimates.
func NewWriter(client llm.Client, counter *tokens.Counter) *Writer {
	return &Writer{
		client:  client,
		counter: counter,
		logger:  logx.NewLogger("writer"),
	}
}

// WriteSection drafts section index of the plan. Provider failures propagate
// unretried. Sections are drafted strictly sequentially by the caller, in
// plan order; a section prompt sees the outline but never other drafts.
func (w *Writer) WriteSection(ctx context.Context, model string, plan *Plan, index int, req Request, annotations []AnnotationSource) (string, llm.Usage, error) {
	if index < 0 || index >= len(plan.Sections) {
		return "", llm.Usage{}, fmt.Errorf("section index %d out of range (%d sections)", index, len(plan.Sections))
	}
	section := &plan.Sections[index]

	evidence := resolveEvidence(section, annotations)
	prompt := w.buildPrompt(plan, section, req, evidence)

	budget := outputBudget(section.TargetWords, req.DeepWrite)
	creq := llm.CompletionRequest{
		Model:           model,
		System:          "You are an academic writer drafting one section of a larger paper. Write only the section body text.",
		Messages:        []llm.Message{llm.NewUserMessage(prompt)},
		MaxOutputTokens: budget,
	}
	if req.DeepWrite {
		creq.ThinkingBudget = deepWriteThinkingBudget
	}

	resp, err := w.client.Complete(ctx, creq)
	if err != nil {
		return "", llm.Usage{}, fmt.Errorf("section %d provider call failed: %w", index, err)
	}

	text := strings.TrimSpace(resp.Text())
	w.logger.Debug("Section %d (%s): %d chars, %d output tokens", index, section.Title, len(text), resp.Usage.OutputTokens)
	return text, resp.Usage, nil
}

// resolveEvidence returns the annotations bound to the section. An empty
// binding falls back to the full run set: an over-inclusive default is
// preferred to silently writing an unsupported section.
func resolveEvidence(section *PlanSection, annotations []AnnotationSource) []AnnotationSource {
	if len(section.AnnotationIDs) == 0 {
		return annotations
	}

	wanted := make(map[string]bool, len(section.AnnotationIDs))
	for _, id := range section.AnnotationIDs {
		wanted[id] = true
	}

	evidence := make([]AnnotationSource, 0, len(section.AnnotationIDs))
	for i := range annotations {
		if wanted[annotations[i].ID] {
			evidence = append(evidence, annotations[i])
		}
	}
	if len(evidence) == 0 {
		return annotations
	}
	return evidence
}

func (w *Writer) buildPrompt(plan *Plan, section *PlanSection, req Request, evidence []AnnotationSource) string {
	evidenceBlock := renderAnnotationBlock(evidence)
	if w.counter != nil && !w.counter.WithinLimit(evidenceBlock, evidenceTokenLimit) {
		evidenceBlock = w.counter.Truncate(evidenceBlock, evidenceTokenLimit)
		w.logger.Debug("Evidence block truncated to %d tokens for section %q", evidenceTokenLimit, section.Title)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are drafting one section of a paper on %q.\n\n", req.Topic))
	sb.WriteString(fmt.Sprintf("Thesis: %s\n\nFull outline:\n%s\n", plan.Thesis, outlineSummary(plan)))
	sb.WriteString(fmt.Sprintf("Write ONLY the section titled %q.\n", section.Title))
	sb.WriteString(fmt.Sprintf("Section brief: %s\n", section.Description))
	sb.WriteString(fmt.Sprintf("Target length: about %d words.\n", section.TargetWords))
	sb.WriteString(fmt.Sprintf("Cite sources inline in %s style.\n\n", req.CitationStyle))
	sb.WriteString(toneInstruction(req.Tone))
	if req.NoEnDashes {
		sb.WriteString("\n" + noDashInstruction)
	}
	sb.WriteString("\n\nEvidence for this section:\n\n")
	sb.WriteString(evidenceBlock)
	return sb.String()
}

// outputBudget is the larger of the fixed floor and a multiple of the target
// word count: 2x normally, 3x under deep write, since richer instructed
// output needs proportionally more generation budget.
func outputBudget(targetWords int, deepWrite bool) int {
	mult := 2
	if deepWrite {
		mult = 3
	}
	budget := targetWords * mult
	if budget < sectionOutputFloor {
		return sectionOutputFloor
	}
	return budget
}
