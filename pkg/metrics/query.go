package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// UsageSummary represents aggregated token and cost totals for a model.
type UsageSummary struct {
	Model        string  `json:"model"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost_usd"`
}

// QueryService queries aggregated usage from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a usage query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// ModelUsage retrieves aggregated token and cost totals for a specific model
// across all recorded pipeline runs.
func (q *QueryService) ModelUsage(ctx context.Context, modelName string) (*UsageSummary, error) {
	summary := &UsageSummary{Model: modelName}

	inputQuery := fmt.Sprintf(`sum(writing_tokens_total{model=%q, type="input"})`, modelName)
	inputResult, _, err := q.queryAPI.Query(ctx, inputQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query input tokens: %w", err)
	}
	if vector, ok := inputResult.(model.Vector); ok && len(vector) > 0 {
		summary.InputTokens = int64(vector[0].Value)
	}

	outputQuery := fmt.Sprintf(`sum(writing_tokens_total{model=%q, type="output"})`, modelName)
	outputResult, _, err := q.queryAPI.Query(ctx, outputQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query output tokens: %w", err)
	}
	if vector, ok := outputResult.(model.Vector); ok && len(vector) > 0 {
		summary.OutputTokens = int64(vector[0].Value)
	}

	summary.TotalTokens = summary.InputTokens + summary.OutputTokens

	costQuery := fmt.Sprintf(`sum(writing_costs_total{model=%q})`, modelName)
	costResult, _, err := q.queryAPI.Query(ctx, costQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query total cost: %w", err)
	}
	if vector, ok := costResult.(model.Vector); ok && len(vector) > 0 {
		summary.TotalCost = float64(vector[0].Value)
	}

	return summary, nil
}

// UsageByModel retrieves usage totals broken down by every model that has
// recorded pipeline tokens.
func (q *QueryService) UsageByModel(ctx context.Context) (map[string]*UsageSummary, error) {
	result := make(map[string]*UsageSummary)

	modelsQuery := `group by (model) (writing_tokens_total)`
	modelsResult, _, err := q.queryAPI.Query(ctx, modelsQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}

	var models []string
	if vector, ok := modelsResult.(model.Vector); ok {
		for _, sample := range vector {
			if name, ok := sample.Metric["model"]; ok {
				models = append(models, string(name))
			}
		}
	}

	for _, name := range models {
		summary, err := q.ModelUsage(ctx, name)
		if err != nil {
			return nil, err
		}
		result[name] = summary
	}

	return result, nil
}
