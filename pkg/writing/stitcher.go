package writing

import (
	"context"
	"fmt"
	"strings"

	"scholarmark/pkg/llm"
	"scholarmark/pkg/logx"
)

// stitchOutputFloor is the minimum output budget for the stitching pass; the
// merged document must fit the full target length plus connective material.
const stitchOutputFloor = 4096

// Stitcher merges the drafted sections into one coherent document.
type Stitcher struct {
	client llm.Client
	logger *logx.Logger
}

// NewStitcher creates a stitcher using the injected provider client.
func NewStitcher(client llm.Client) *Stitcher {
	return &Stitcher{
		client: client,
		logger: logx.NewLogger("stitcher"),
	}
}

// Stitch asks the provider once to merge the ordered section drafts: add
// transitions, normalize voice, supply an introduction and conclusion if
// absent, and append the bibliography in the requested citation style. The
// no-rewriting constraint is a prompt-level contract, enforced best-effort
// by the provider.
func (s *Stitcher) Stitch(ctx context.Context, model string, plan *Plan, sectionTexts []string, req Request) (string, llm.Usage, error) {
	prompt := s.buildPrompt(plan, sectionTexts, req)

	budget := outputBudget(wordCountForLength(req.TargetLength), req.DeepWrite)
	if budget < stitchOutputFloor {
		budget = stitchOutputFloor
	}

	creq := llm.CompletionRequest{
		Model:           model,
		System:          "You are an academic editor assembling a final paper from drafted sections. Output only the finished document.",
		Messages:        []llm.Message{llm.NewUserMessage(prompt)},
		MaxOutputTokens: budget,
	}
	if req.DeepWrite {
		creq.ThinkingBudget = deepWriteThinkingBudget
	}

	resp, err := s.client.Complete(ctx, creq)
	if err != nil {
		return "", llm.Usage{}, fmt.Errorf("stitch provider call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	s.logger.Debug("Stitched document: %d chars", len(text))
	return text, resp.Usage, nil
}

func (s *Stitcher) buildPrompt(plan *Plan, sectionTexts []string, req Request) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Assemble the final paper on %q from the drafted sections below.\n\n", req.Topic))
	sb.WriteString(fmt.Sprintf("Thesis: %s\n\n", plan.Thesis))
	sb.WriteString("Instructions:\n")
	sb.WriteString("- Add smooth transitions between sections.\n")
	sb.WriteString("- Normalize voice and tone across the document.\n")
	sb.WriteString("- Add an introduction and a conclusion if the drafts lack them.\n")
	sb.WriteString(fmt.Sprintf("- Append a bibliography section formatted in %s style from these entries:\n", req.CitationStyle))
	for _, entry := range plan.Bibliography {
		sb.WriteString(fmt.Sprintf("  - %s\n", entry))
	}
	sb.WriteString("- Do NOT rewrite section bodies; change only connective material.\n")
	sb.WriteString("\n" + toneInstruction(req.Tone))
	if req.NoEnDashes {
		sb.WriteString("\n" + noDashInstruction)
	}
	sb.WriteString("\n\nDrafted sections, in order:\n\n")
	for i, text := range sectionTexts {
		title := ""
		if i < len(plan.Sections) {
			title = plan.Sections[i].Title
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", title, text))
	}
	return sb.String()
}
