package writing

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarmark/pkg/config"
	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/llmerrors"
	"scholarmark/pkg/metrics"
)

var testModels = config.ModelSet{Default: "fast-model", DeepWrite: "deep-model"}

func testAnnotations() []AnnotationSource {
	return []AnnotationSource{
		{ID: "a1", HighlightedText: "Emissions fell 12% after the tax.", DocumentFilename: "report.pdf", Category: "evidence"},
		{ID: "a2", HighlightedText: "Policy adoption lagged a decade.", DocumentFilename: "history.pdf"},
	}
}

func collectEvents(t *testing.T, client *mockClient, req Request) []Event {
	t.Helper()
	pipeline := NewPipeline(client, testModels, nil, metrics.NopRecorder{})
	var events []Event
	pipeline.Run(context.Background(), req, testAnnotations(), func(ev Event) {
		events = append(events, ev)
	})
	return events
}

func scriptedSuccess() *mockClient {
	return &mockClient{responses: []llm.CompletionResponse{
		textResponse(validPlanJSON, 100, 200),
		textResponse("Intro body citing the tax (Smith, 2024).", 50, 150),
		textResponse("Conclusion body synthesizing the argument.", 60, 160),
		textResponse("Full paper.\n\nIntro body.\n\nConclusion body.\n\nBibliography\nSmith, J. (2024). Carbon Markets.", 80, 300),
	}}
}

func TestPipelineEventOrder(t *testing.T) {
	events := collectEvents(t, scriptedSuccess(), Request{
		Topic: "Climate policy", CitationStyle: StyleAPA, Tone: ToneAcademic, TargetLength: LengthShort,
	})

	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	assert.Equal(t, []EventType{
		EventStatus, EventPlan,
		EventStatus, EventSection,
		EventStatus, EventSection,
		EventStatus, EventComplete,
	}, types)

	assert.Equal(t, PhasePlanning, events[0].Phase)
	assert.Equal(t, PhaseWriting, events[2].Phase)
	assert.Equal(t, PhaseStitching, events[6].Phase)

	// Section events carry plan order
	assert.Equal(t, 0, events[3].SectionIndex)
	assert.Equal(t, "Introduction", events[3].SectionTitle)
	assert.Equal(t, 1, events[5].SectionIndex)
	assert.Equal(t, "Conclusion", events[5].SectionTitle)

	// All events share one run id
	for _, ev := range events {
		assert.Equal(t, events[0].RunID, ev.RunID)
	}
}

func TestPipelineAggregatesUsage(t *testing.T) {
	events := collectEvents(t, scriptedSuccess(), Request{Topic: "x", TargetLength: LengthShort})

	final := events[len(events)-1]
	require.Equal(t, EventComplete, final.Type)
	require.NotNil(t, final.Usage)
	assert.EqualValues(t, 100+50+60+80, final.Usage.InputTokens)
	assert.EqualValues(t, 200+150+160+300, final.Usage.OutputTokens)
	assert.Contains(t, final.FullText, "Bibliography")
}

func TestPipelineModelSelection(t *testing.T) {
	client := scriptedSuccess()
	collectEvents(t, client, Request{Topic: "x", TargetLength: LengthShort})
	for _, req := range client.requests {
		assert.Equal(t, "fast-model", req.Model)
		assert.Zero(t, req.ThinkingBudget)
	}

	deep := scriptedSuccess()
	collectEvents(t, deep, Request{Topic: "x", TargetLength: LengthShort, DeepWrite: true})
	for i, req := range deep.requests {
		assert.Equal(t, "deep-model", req.Model)
		if i > 0 { // every drafting and stitching call carries the reasoning budget
			assert.Equal(t, deepWriteThinkingBudget, req.ThinkingBudget)
		}
	}
}

func TestPipelineEmptyAnnotationIDsFallback(t *testing.T) {
	client := scriptedSuccess()
	collectEvents(t, client, Request{Topic: "x", TargetLength: LengthShort})

	// Section 2 ("Conclusion") lists no annotation ids; its prompt must carry
	// the full run annotation set, never an empty evidence block.
	require.Len(t, client.requests, 4)
	conclusionPrompt := client.requests[2].Messages[0].Content
	assert.Contains(t, conclusionPrompt, "[a1]")
	assert.Contains(t, conclusionPrompt, "[a2]")

	// Section 1 lists only a1
	introPrompt := client.requests[1].Messages[0].Content
	assert.Contains(t, introPrompt, "[a1]")
	assert.NotContains(t, introPrompt, "[a2]")
}

func TestPipelineNoEnDashesInstruction(t *testing.T) {
	client := scriptedSuccess()
	collectEvents(t, client, Request{Topic: "x", TargetLength: LengthShort, NoEnDashes: true})

	// Every per-section and stitching prompt carries the hard instruction
	for i := 1; i < len(client.requests); i++ {
		assert.Contains(t, client.requests[i].Messages[0].Content, noDashInstruction, "call %d", i)
	}
}

func TestPipelineMalformedPlanAbortsRun(t *testing.T) {
	client := &mockClient{responses: []llm.CompletionResponse{textResponse("no plan here", 10, 10)}}
	events := collectEvents(t, client, Request{Topic: "x", TargetLength: LengthShort})

	require.Len(t, events, 2)
	assert.Equal(t, EventStatus, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)
	assert.Equal(t, PhasePlanning, events[1].Phase)
	assert.NotEmpty(t, events[1].Message)

	// No section was written
	assert.Len(t, client.requests, 1)
}

func TestPipelineProviderFailureMidWrite(t *testing.T) {
	client := &mockClient{
		responses: []llm.CompletionResponse{
			textResponse(validPlanJSON, 10, 10),
			textResponse("intro", 10, 10),
		},
		errs: []error{nil, nil, llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "quota exhausted")},
	}
	events := collectEvents(t, client, Request{Topic: "x", TargetLength: LengthShort})

	// One terminal event, and it is an error from the writing phase
	var terminals []Event
	for _, ev := range events {
		if ev.Type == EventComplete || ev.Type == EventError {
			terminals = append(terminals, ev)
		}
	}
	require.Len(t, terminals, 1)
	assert.Equal(t, EventError, terminals[0].Type)
	assert.Equal(t, PhaseWriting, terminals[0].Phase)
	assert.Contains(t, terminals[0].Message, "rate_limit")
}

func TestPipelineEndToEndScenario(t *testing.T) {
	stitched := "Climate policy paper without forbidden dashes.\n\nBibliography\nSmith, J. (2024)."
	client := &mockClient{responses: []llm.CompletionResponse{
		textResponse("```json\n"+validPlanJSON+"\n```", 100, 200),
		textResponse("Intro.", 10, 10),
		textResponse("Conclusion.", 10, 10),
		textResponse(stitched, 10, 10),
	}}
	events := collectEvents(t, client, Request{
		Topic: "Climate policy", CitationStyle: StyleAPA, Tone: ToneAcademic,
		TargetLength: LengthShort, NoEnDashes: true, DeepWrite: false,
	})

	var planEvents, sectionEvents, completeEvents []Event
	for _, ev := range events {
		switch ev.Type {
		case EventPlan:
			planEvents = append(planEvents, ev)
		case EventSection:
			sectionEvents = append(sectionEvents, ev)
		case EventComplete:
			completeEvents = append(completeEvents, ev)
		}
	}

	require.Len(t, planEvents, 1)
	assert.NotEmpty(t, planEvents[0].Plan.Thesis)
	assert.GreaterOrEqual(t, len(planEvents[0].Plan.Sections), 2)

	require.Len(t, sectionEvents, len(planEvents[0].Plan.Sections))
	for i, ev := range sectionEvents {
		assert.Equal(t, i, ev.SectionIndex)
	}

	require.Len(t, completeEvents, 1)
	full := completeEvents[0].FullText
	assert.Contains(t, full, "Bibliography")
	assert.False(t, strings.ContainsAny(full, "–—"), "no en/em dashes in final text")
}

func TestWriterDiscardsThinkingBlocks(t *testing.T) {
	client := &mockClient{responses: []llm.CompletionResponse{{
		Blocks: []llm.ContentBlock{
			{Type: llm.BlockThinking, Text: "internal reasoning"},
			{Type: llm.BlockText, Text: "Visible "},
			{Type: llm.BlockText, Text: "prose."},
		},
	}}}
	writer := NewWriter(client, nil)
	plan := &Plan{Thesis: "t", Sections: []PlanSection{{Title: "A", TargetWords: 100}}}

	text, _, err := writer.WriteSection(context.Background(), "m", plan, 0, Request{Topic: "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Visible prose.", text)
}

func TestSectionEventEncodesIndexZero(t *testing.T) {
	ev := Event{Type: EventSection, RunID: "r1", SectionIndex: 0, SectionTitle: "Introduction", SectionText: "body"}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	// The first section's index must survive encoding
	assert.Contains(t, string(data), `"sectionIndex":0`)
}

func TestOutputBudget(t *testing.T) {
	assert.Equal(t, sectionOutputFloor, outputBudget(100, false))
	assert.Equal(t, 2000, outputBudget(1000, false))
	assert.Equal(t, 3000, outputBudget(1000, true))
}
