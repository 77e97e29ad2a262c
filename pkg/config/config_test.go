package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ModelClaudeSonnetLatest, cfg.Models.Default)
	assert.Equal(t, ModelClaudeOpusLatest, cfg.Models.DeepWrite)
	assert.Equal(t, "scholarmark.db", cfg.Store.Path)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Host)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
models:
  default: gpt-5-mini
  deep_write: gpt-5
store:
  path: /tmp/sources.db
metrics:
  enabled: true
  prometheus_url: http://prometheus:9090
`))
	require.NoError(t, err)

	assert.Equal(t, "gpt-5-mini", cfg.Models.Default)
	assert.Equal(t, "gpt-5", cfg.Models.DeepWrite)
	assert.Equal(t, "/tmp/sources.db", cfg.Store.Path)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestParseRejectsMetricsWithoutURL(t *testing.T) {
	_, err := Parse([]byte("metrics:\n  enabled: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus_url")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("models: ["))
	require.Error(t, err)
}

func TestProviderForModel(t *testing.T) {
	tests := []struct {
		model    string
		provider string
	}{
		{"claude-sonnet-4-5", ProviderAnthropic},
		{"claude-haiku-99", ProviderAnthropic}, // prefix fallback
		{"gpt-5", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"gemini-2.5-pro", ProviderGoogle},
		{"llama3.2", ProviderOllama},
		{"qwen2.5-coder", ProviderOllama},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.provider, ProviderForModel(tt.model), tt.model)
	}
}

func TestCostUSD(t *testing.T) {
	// claude-sonnet-4-5: $3/M input, $15/M output
	cost := CostUSD("claude-sonnet-4-5", 1_000_000, 1_000_000)
	assert.InDelta(t, 18.0, cost, 0.0001)

	assert.Zero(t, CostUSD("some-local-model", 1_000_000, 1_000_000))
}

func TestSecretsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.enc")
	secrets := map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant-test123",
		"OPENAI_API_KEY":    "sk-test456",
	}

	require.NoError(t, SaveSecretsFile(path, "hunter2", secrets))
	require.NoError(t, LoadSecretsFile(path, "hunter2"))
	defer SetDecryptedSecrets(nil)

	key, err := APIKeyForProvider(ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test123", key)
}

func TestSecretsWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.enc")
	require.NoError(t, SaveSecretsFile(path, "correct", map[string]string{"ANTHROPIC_API_KEY": "x"}))

	err := LoadSecretsFile(path, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong password")
}

func TestAPIKeyEnvFallback(t *testing.T) {
	SetDecryptedSecrets(nil)
	t.Setenv("GEMINI_API_KEY", "env-key")

	key, err := APIKeyForProvider(ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
}

func TestAPIKeySecretsWinOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	SetDecryptedSecrets(map[string]string{"OPENAI_API_KEY": "file-key"})
	defer SetDecryptedSecrets(nil)

	key, err := APIKeyForProvider(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "file-key", key)
}

func TestAPIKeyMissingIsConfigurationError(t *testing.T) {
	SetDecryptedSecrets(nil)
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := APIKeyForProvider(ProviderAnthropic)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "ANTHROPIC_API_KEY")
}

func TestAPIKeyOllamaNeedsNoKey(t *testing.T) {
	key, err := APIKeyForProvider(ProviderOllama)
	require.NoError(t, err)
	assert.Empty(t, key)
}
