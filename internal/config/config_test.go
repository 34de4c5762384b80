package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty temp dir so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WEALTH_ANTHROPIC_KEY", "ANTHROPIC_API_KEY",
		"WEALTH_GEMINI_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearKeyEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, uint64(42), cfg.Generate.Seed)
	assert.Equal(t, 100, cfg.Generate.NumSamples)
	assert.Equal(t, "instructions.jsonl", cfg.Generate.Output)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 120, cfg.LLM.TimeoutSecs)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.True(t, cfg.Anthropic.CachePrompt)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "instructions.jsonl", cfg.Respond.Input)
	assert.Equal(t, "training_data_full.jsonl", cfg.Respond.Output)
	assert.Equal(t, 2000, cfg.Respond.MaxTokens)
	assert.InDelta(t, 1.0, cfg.Respond.DelaySeconds, 0.001)
	assert.Equal(t, "training_data_full.jsonl", cfg.Judge.Input)
	assert.Equal(t, "training_data_scored.jsonl", cfg.Judge.Output)
	assert.Equal(t, 1000, cfg.Judge.MaxTokens)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1000, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, 60, cfg.Circuit.ResetTimeoutSecs)
	assert.Empty(t, cfg.Anthropic.Key)
	assert.Empty(t, cfg.Pricing.Models)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: json
llm:
  provider: gemini
generate:
  num_samples: 250
respond:
  delay_seconds: 0.5
pricing:
  models:
    - model: gemini-2.5-flash
      input: 0.3
      output: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, 250, cfg.Generate.NumSamples)
	assert.InDelta(t, 0.5, cfg.Respond.DelaySeconds, 0.001)
	require.Len(t, cfg.Pricing.Models, 1)
	assert.Equal(t, "gemini-2.5-flash", cfg.Pricing.Models[0].Model)
	assert.InDelta(t, 2.5, cfg.Pricing.Models[0].Output, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 2000, cfg.Respond.MaxTokens)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("WEALTH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadProviderKeyEnv(t *testing.T) {
	chdirTemp(t)
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, "gm-test", cfg.Gemini.Key)
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	chdirTemp(t)
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-sdk")
	t.Setenv("WEALTH_ANTHROPIC_KEY", "sk-ant-prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-prefixed", cfg.Anthropic.Key)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearKeyEnv(t)
	// godotenv never overrides variables that are already set, so unset the
	// cleared one for this test.
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Gemini.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestAPIKeyAndModel(t *testing.T) {
	cfg := &Config{
		Anthropic: AnthropicConfig{Key: "a", Model: "claude-x"},
		Gemini:    GeminiConfig{Key: "g", Model: "gemini-y"},
	}

	assert.Equal(t, "a", cfg.APIKey(ProviderAnthropic))
	assert.Equal(t, "g", cfg.APIKey(ProviderGemini))
	assert.Empty(t, cfg.APIKey("openai"))
	assert.Equal(t, "claude-x", cfg.Model(ProviderAnthropic))
	assert.Equal(t, "gemini-y", cfg.Model(ProviderGemini))
	assert.Empty(t, cfg.Model("openai"))
}

func TestValidateProvider(t *testing.T) {
	cfg := &Config{}

	tests := []struct {
		name     string
		provider string
		key      string
		wantErr  string
	}{
		{"anthropic ok", ProviderAnthropic, "sk-ant", ""},
		{"gemini ok", ProviderGemini, "gm", ""},
		{"anthropic missing key", ProviderAnthropic, "", "anthropic API key is required"},
		{"gemini missing key", ProviderGemini, "", "gemini API key is required"},
		{"unknown provider", "openai", "key", `unknown provider "openai"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.ValidateProvider(tt.provider, tt.key)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
