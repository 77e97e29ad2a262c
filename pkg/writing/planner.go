package writing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/llmerrors"
	"scholarmark/pkg/logx"
)

// planOutputTokens bounds the planner's structured response.
const planOutputTokens = 4096

// Planner asks the provider for a structured document plan.
type Planner struct {
	client llm.Client
	logger *logx.Logger
}

// NewPlanner creates a planner using the injected provider client.
func NewPlanner(client llm.Client) *Planner {
	return &Planner{
		client: client,
		logger: logx.NewLogger("planner"),
	}
}

// Plan produces the document plan for one run. The provider's response is
// treated as an untrusted payload: a response that fails schema validation
// returns *ValidationError and aborts the run.
func (p *Planner) Plan(ctx context.Context, model string, req Request, annotations []AnnotationSource) (*Plan, llm.Usage, error) {
	prompt := p.buildPrompt(req, annotations)
	p.logger.Debug("Plan prompt: %s", llmerrors.SanitizePrompt(prompt, 2000))

	resp, err := p.client.Complete(ctx, llm.CompletionRequest{
		Model:           model,
		System:          "You are an academic writing planner. Respond with a single JSON object and nothing else: no prose, no explanation.",
		Messages:        []llm.Message{llm.NewUserMessage(prompt)},
		MaxOutputTokens: planOutputTokens,
	})
	if err != nil {
		return nil, llm.Usage{}, fmt.Errorf("planner provider call failed: %w", err)
	}

	plan, err := parsePlan(resp.Text())
	if err != nil {
		return nil, resp.Usage, err
	}

	p.logger.Info("Planned %d sections for topic %q", len(plan.Sections), req.Topic)
	return plan, resp.Usage, nil
}

func (p *Planner) buildPrompt(req Request, annotations []AnnotationSource) string {
	totalWords := wordCountForLength(req.TargetLength)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Plan a multi-section academic paper on the topic: %q\n\n", req.Topic))
	sb.WriteString(fmt.Sprintf("Total length: approximately %d words across all sections.\n", totalWords))
	sb.WriteString(fmt.Sprintf("Citation style: %s.\n", req.CitationStyle))
	sb.WriteString(toneInstruction(req.Tone))
	sb.WriteString("\n\nSource annotations (reference them by id):\n\n")
	sb.WriteString(renderAnnotationBlock(annotations))
	sb.WriteString(`Return a JSON object with exactly these fields:
{
  "thesis": "the central argument of the paper",
  "sections": [
    {"title": "...", "description": "what this section argues", "annotationIds": ["..."], "targetWords": 400}
  ],
  "bibliography": ["one entry per cited source"]
}
Section word targets must sum to the total length. Assign each section the annotation ids that support it.`)
	return sb.String()
}

// parsePlan strips an optional code fence, decodes the JSON payload, and
// applies strict schema validation.
func parsePlan(text string) (*Plan, error) {
	body := stripCodeFence(text)

	var plan Plan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	if strings.TrimSpace(plan.Thesis) == "" {
		return nil, &ValidationError{Message: "thesis is missing or empty"}
	}
	if len(plan.Sections) == 0 {
		return nil, &ValidationError{Message: "sections is missing or empty"}
	}
	for i := range plan.Sections {
		sec := &plan.Sections[i]
		if strings.TrimSpace(sec.Title) == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("section %d has no title", i)}
		}
		if sec.TargetWords <= 0 {
			return nil, &ValidationError{Message: fmt.Sprintf("section %d has no positive word target", i)}
		}
	}

	return &plan, nil
}
