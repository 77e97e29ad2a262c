package tools

import (
	"context"
	"strings"
	"time"

	"scholarmark/pkg/logx"
	"scholarmark/pkg/metrics"
)

// Registry routes tool invocations by name.
type Registry struct {
	tools    map[string]Tool
	order    []string
	recorder metrics.Recorder
	logger   *logx.Logger
}

// NewRegistry creates a registry with all seven standard tools registered.
// recorder may be metrics.NopRecorder{}.
func NewRegistry(recorder metrics.Recorder) *Registry {
	r := &Registry{
		tools:    make(map[string]Tool),
		recorder: recorder,
		logger:   logx.NewLogger("tools"),
	}
	r.Register(&SearchSourcesTool{})
	r.Register(&AnnotationContextTool{})
	r.Register(&DeepSourceAnalysisTool{})
	r.Register(&ProposeOutlineTool{})
	r.Register(&WriteSectionTool{})
	r.Register(&CompilePaperTool{})
	r.Register(&VerifyCitationsTool{})
	return r
}

// Register adds a tool. A later registration with the same name replaces the
// earlier one.
func (r *Registry) Register(tool Tool) {
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Definitions returns every registered tool definition in registration order,
// ready to hand to a provider for tool-calling.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches one tool invocation. An unknown tool name returns a
// descriptive in-band result, never an error: the calling agent may
// hallucinate a name and should be told so in-band. Document-tagged results
// are appended to the context's document log.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, tctx *Context) (*Result, error) {
	tool, ok := r.tools[name]
	if !ok {
		r.logger.Warn("Unknown tool requested: %s", name)
		r.recorder.ObserveToolExecution(name, false, 0)
		return messageResult("Unknown tool %q. Available tools: %s.", name, strings.Join(r.order, ", ")), nil
	}

	started := time.Now()
	result, err := tool.Exec(ctx, args, tctx)
	r.recorder.ObserveToolExecution(name, err == nil, time.Since(started))
	if err != nil {
		r.logger.Error("Tool %s failed: %v", name, err)
		return nil, err
	}

	if result.IsDocument && tctx.Documents != nil {
		tctx.Documents.Append(result.DocumentTitle, result.Content, len(tctx.History))
	}
	return result, nil
}
