// Package config provides configuration loading, validation, and management
// for the writing backend. It handles the YAML config file, the model registry,
// and API-key resolution from the encrypted secrets file or the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider name constants.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Well-known model name constants.
const (
	ModelClaudeSonnetLatest = "claude-sonnet-4-5"
	ModelClaudeOpusLatest   = "claude-opus-4-1"
	ModelGPT5               = "gpt-5"
	ModelGeminiFlash        = "gemini-2.5-flash"
)

// ModelInfo contains static information about a known LLM model.
// This data is hardcoded in the application, not user-configurable.
type ModelInfo struct {
	Provider         string  // API provider (anthropic, openai, google, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
}

// KnownModels registry contains pricing and provider information for common models.
// This is optional - unknown models will be inferred via provider patterns.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	"claude-sonnet-4-5": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-opus-4-1": {
		Provider:         ProviderAnthropic,
		InputCPM:         15.0,
		OutputCPM:        75.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  16384,
	},
	"gpt-5": {
		Provider:         ProviderOpenAI,
		InputCPM:         1.25,
		OutputCPM:        10.0,
		MaxContextTokens: 400000,
		MaxOutputTokens:  128000,
	},
	"gpt-5-mini": {
		Provider:         ProviderOpenAI,
		InputCPM:         0.25,
		OutputCPM:        2.0,
		MaxContextTokens: 400000,
		MaxOutputTokens:  128000,
	},
	"gemini-2.5-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1000000,
		MaxOutputTokens:  65536,
	},
	"gemini-2.5-pro": {
		Provider:         ProviderGoogle,
		InputCPM:         1.25,
		OutputCPM:        10.0,
		MaxContextTokens: 1000000,
		MaxOutputTokens:  65536,
	},
}

// providerPatterns maps model-name prefixes to providers for models that are
// not in the KnownModels registry.
var providerPatterns = []struct {
	prefix   string
	provider string
}{
	{"claude-", ProviderAnthropic},
	{"gpt-", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini-", ProviderGoogle},
}

// ProviderForModel returns the provider responsible for the given model name.
// Registry entries win; otherwise the name prefix decides; anything else is
// assumed to be a local Ollama model.
func ProviderForModel(model string) string {
	if info, ok := KnownModels[model]; ok {
		return info.Provider
	}
	for _, p := range providerPatterns {
		if strings.HasPrefix(model, p.prefix) {
			return p.provider
		}
	}
	return ProviderOllama
}

// CostUSD computes the dollar cost of a call against the registry pricing.
// Unknown models cost zero.
func CostUSD(model string, inputTokens, outputTokens int64) float64 {
	info, ok := KnownModels[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1e6*info.InputCPM + float64(outputTokens)/1e6*info.OutputCPM
}

// ModelSet names the models a pipeline run chooses between. The deep-write
// flag selects DeepWrite for the whole run; Default is used otherwise.
type ModelSet struct {
	Default   string `yaml:"default"`
	DeepWrite string `yaml:"deep_write"`
}

// StoreConfig configures the SQLite-backed source store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig configures the optional Prometheus integration.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	PrometheusURL string `yaml:"prometheus_url"` // For the usage query service
}

// OllamaConfig configures the local provider endpoint.
type OllamaConfig struct {
	Host string `yaml:"host"`
}

// Config is the root configuration for the writing backend.
type Config struct {
	Models      ModelSet      `yaml:"models"`
	Store       StoreConfig   `yaml:"store"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Ollama      OllamaConfig  `yaml:"ollama"`
	SecretsFile string        `yaml:"secrets_file"`
}

// Default values applied when the config file omits them.
const (
	defaultStorePath  = "scholarmark.db"
	defaultOllamaHost = "http://localhost:11434"
)

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Models.Default == "" {
		c.Models.Default = ModelClaudeSonnetLatest
	}
	if c.Models.DeepWrite == "" {
		c.Models.DeepWrite = ModelClaudeOpusLatest
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Ollama.Host == "" {
		c.Ollama.Host = defaultOllamaHost
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Models.Default == "" {
		return fmt.Errorf("models.default cannot be empty")
	}
	if c.Models.DeepWrite == "" {
		return fmt.Errorf("models.deep_write cannot be empty")
	}
	if c.Metrics.Enabled && c.Metrics.PrometheusURL == "" {
		return fmt.Errorf("metrics.prometheus_url is required when metrics are enabled")
	}
	return nil
}
