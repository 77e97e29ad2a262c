// Package factory constructs provider clients from configuration.
package factory

import (
	"scholarmark/pkg/config"
	"scholarmark/pkg/llm"
	"scholarmark/pkg/llm/anthropic"
	"scholarmark/pkg/llm/google"
	"scholarmark/pkg/llm/ollama"
	"scholarmark/pkg/llm/openai"
)

// NewClientForModel creates the provider client responsible for the given
// model. Credentials resolve from the decrypted secrets file or the
// environment; a missing key surfaces as *config.ConfigurationError here,
// before any provider call is made.
func NewClientForModel(cfg *config.Config, model string) (llm.Client, error) {
	provider := config.ProviderForModel(model)

	apiKey, err := config.APIKeyForProvider(provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case config.ProviderAnthropic:
		return anthropic.NewClient(apiKey, model), nil
	case config.ProviderOpenAI:
		return openai.NewClient(apiKey, model), nil
	case config.ProviderGoogle:
		return google.NewClient(apiKey, model), nil
	default:
		return ollama.NewClient(cfg.Ollama.Host, model), nil
	}
}
