package writing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scholarmark/pkg/config"
	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/llmerrors"
	"scholarmark/pkg/logx"
	"scholarmark/pkg/metrics"
	"scholarmark/pkg/tokens"
)

// Pipeline is the plan/write/stitch state machine. One Pipeline may serve
// concurrent runs; each run holds its own state and the only shared resource
// is the stateless provider client.
type Pipeline struct {
	planner  *Planner
	writer   *Writer
	stitcher *Stitcher
	models   config.ModelSet
	recorder metrics.Recorder
	logger   *logx.Logger
}

// NewPipeline wires a pipeline from an injected provider client, the model
// set, and a metrics recorder. recorder may be metrics.NopRecorder{}.
func NewPipeline(client llm.Client, models config.ModelSet, counter *tokens.Counter, recorder metrics.Recorder) *Pipeline {
	return &Pipeline{
		planner:  NewPlanner(client),
		writer:   NewWriter(client, counter),
		stitcher: NewStitcher(client),
		models:   models,
		recorder: recorder,
		logger:   logx.NewLogger("pipeline"),
	}
}

// Run executes one writing run: Planning, then Writing(0..n-1) strictly in
// plan order, then Stitching. It never returns an error; every failure
// becomes a single terminal error event. Event order: status(planning),
// plan, then per section status(writing) and section, then status(stitching),
// then exactly one of complete or error.
func (p *Pipeline) Run(ctx context.Context, req Request, annotations []AnnotationSource, sink EventSink) {
	runID := uuid.NewString()
	started := time.Now()

	model := p.models.Default
	if req.DeepWrite {
		model = p.models.DeepWrite
	}

	var total llm.Usage
	fail := func(phase string, err error) {
		p.logger.Error("Run %s failed during %s: %v", runID, phase, err)
		p.recorder.ObserveRun(model, string(req.TargetLength), req.DeepWrite, false, llmerrors.TypeOf(err).String(), time.Since(started))
		sink(Event{
			Type:    EventError,
			RunID:   runID,
			Phase:   phase,
			Message: fmt.Sprintf("%s failed: %v", phase, err),
		})
	}

	p.logger.Info("Run %s: topic=%q model=%s annotations=%d", runID, req.Topic, model, len(annotations))

	// Planning
	sink(Event{Type: EventStatus, RunID: runID, Phase: PhasePlanning, Message: "Planning document structure"})
	phaseStart := time.Now()
	plan, usage, err := p.planner.Plan(ctx, model, req, annotations)
	total.Add(usage)
	p.recordPhase(model, PhasePlanning, usage, phaseStart)
	if err != nil {
		fail(PhasePlanning, err)
		return
	}
	// The caller observes the plan atomically, never partially.
	sink(Event{Type: EventPlan, RunID: runID, Plan: plan})

	// Writing, strictly sequential in plan order
	sectionTexts := make([]string, 0, len(plan.Sections))
	for i := range plan.Sections {
		sink(Event{
			Type:    EventStatus,
			RunID:   runID,
			Phase:   PhaseWriting,
			Message: fmt.Sprintf("Writing section %d of %d: %s", i+1, len(plan.Sections), plan.Sections[i].Title),
		})
		phaseStart = time.Now()
		text, usage, err := p.writer.WriteSection(ctx, model, plan, i, req, annotations)
		total.Add(usage)
		p.recordPhase(model, PhaseWriting, usage, phaseStart)
		if err != nil {
			fail(PhaseWriting, err)
			return
		}
		sectionTexts = append(sectionTexts, text)
		sink(Event{
			Type:         EventSection,
			RunID:        runID,
			SectionIndex: i,
			SectionTitle: plan.Sections[i].Title,
			SectionText:  text,
		})
	}

	// Stitching
	sink(Event{Type: EventStatus, RunID: runID, Phase: PhaseStitching, Message: "Assembling final document"})
	phaseStart = time.Now()
	fullText, usage, err := p.stitcher.Stitch(ctx, model, plan, sectionTexts, req)
	total.Add(usage)
	p.recordPhase(model, PhaseStitching, usage, phaseStart)
	if err != nil {
		fail(PhaseStitching, err)
		return
	}

	p.recorder.ObserveRun(model, string(req.TargetLength), req.DeepWrite, true, "", time.Since(started))
	p.logger.Info("Run %s complete: %d sections, %d tokens", runID, len(plan.Sections), total.Total())
	sink(Event{
		Type:     EventComplete,
		RunID:    runID,
		FullText: fullText,
		Usage:    &total,
	})
}

func (p *Pipeline) recordPhase(model, phase string, usage llm.Usage, started time.Time) {
	cost := config.CostUSD(model, usage.InputTokens, usage.OutputTokens)
	p.recorder.ObserveTokens(model, phase, usage.InputTokens, usage.OutputTokens, cost)
	p.recorder.ObservePhase(phase, time.Since(started))
}
