// Package metrics provides Prometheus-based metrics recording and querying
// for writing pipeline runs and tool executions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline and tool metrics.
type Recorder interface {
	// ObserveRun records a completed pipeline run.
	ObserveRun(model, length string, deepWrite, success bool, errorType string, duration time.Duration)
	// ObserveTokens records provider token usage for one phase of a run.
	ObserveTokens(model, phase string, inputTokens, outputTokens int64, cost float64)
	// ObservePhase records the duration of one pipeline phase.
	ObservePhase(phase string, duration time.Duration)
	// ObserveToolExecution records a tool dispatch.
	ObserveToolExecution(tool string, success bool, duration time.Duration)
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	runsTotal      *prometheus.CounterVec
	tokensTotal    *prometheus.CounterVec
	costsTotal     *prometheus.CounterVec
	phaseDuration  *prometheus.HistogramVec
	toolExecutions *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a Prometheus-based metrics recorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writing_runs_total",
				Help: "Total number of writing pipeline runs by model, length, mode, and status",
			},
			[]string{"model", "length", "deep_write", "status", "error_type"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writing_tokens_total",
				Help: "Total number of tokens used by pipeline provider calls",
			},
			[]string{"model", "phase", "type"},
		),
		costsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writing_costs_total",
				Help: "Total cost in USD for pipeline provider calls",
			},
			[]string{"model", "phase"},
		),
		phaseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "writing_phase_duration_seconds",
				Help:    "Duration of pipeline phases in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		toolExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool dispatches by tool name and status",
			},
			[]string{"tool", "status"},
		),
		toolDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}
}

// ObserveRun records a completed pipeline run.
func (p *PrometheusRecorder) ObserveRun(model, length string, deepWrite, success bool, errorType string, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	deep := "false"
	if deepWrite {
		deep = "true"
	}
	p.runsTotal.WithLabelValues(model, length, deep, status, errorType).Inc()
	p.phaseDuration.WithLabelValues("run").Observe(duration.Seconds())
}

// ObserveTokens records provider token usage for one phase of a run.
func (p *PrometheusRecorder) ObserveTokens(model, phase string, inputTokens, outputTokens int64, cost float64) {
	p.tokensTotal.WithLabelValues(model, phase, "input").Add(float64(inputTokens))
	p.tokensTotal.WithLabelValues(model, phase, "output").Add(float64(outputTokens))
	p.costsTotal.WithLabelValues(model, phase).Add(cost)
}

// ObservePhase records the duration of one pipeline phase.
func (p *PrometheusRecorder) ObservePhase(phase string, duration time.Duration) {
	p.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// ObserveToolExecution records a tool dispatch.
func (p *PrometheusRecorder) ObserveToolExecution(tool string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	p.toolExecutions.WithLabelValues(tool, status).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// NopRecorder discards all observations. Used when metrics are disabled
// and in tests.
type NopRecorder struct{}

// ObserveRun implements Recorder.
func (NopRecorder) ObserveRun(_, _ string, _, _ bool, _ string, _ time.Duration) {}

// ObserveTokens implements Recorder.
func (NopRecorder) ObserveTokens(_, _ string, _, _ int64, _ float64) {}

// ObservePhase implements Recorder.
func (NopRecorder) ObservePhase(_ string, _ time.Duration) {}

// ObserveToolExecution implements Recorder.
func (NopRecorder) ObserveToolExecution(_ string, _ bool, _ time.Duration) {}

var (
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = NopRecorder{}
)
