package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Generate  GenerateConfig  `yaml:"generate" mapstructure:"generate"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Respond   RespondConfig   `yaml:"respond" mapstructure:"respond"`
	Judge     JudgeConfig     `yaml:"judge" mapstructure:"judge"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GenerateConfig configures stage 1 instruction generation.
type GenerateConfig struct {
	Seed       uint64 `yaml:"seed" mapstructure:"seed"`
	NumSamples int    `yaml:"num_samples" mapstructure:"num_samples"`
	Output     string `yaml:"output" mapstructure:"output"`
}

// LLMConfig holds settings shared by the response and scoring stages.
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	CachePrompt bool   `yaml:"cache_prompt" mapstructure:"cache_prompt"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RespondConfig configures stage 2 response generation.
type RespondConfig struct {
	Input        string  `yaml:"input" mapstructure:"input"`
	Output       string  `yaml:"output" mapstructure:"output"`
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	DelaySeconds float64 `yaml:"delay_seconds" mapstructure:"delay_seconds"`
}

// JudgeConfig configures stage 3 quality scoring.
type JudgeConfig struct {
	Input        string  `yaml:"input" mapstructure:"input"`
	Output       string  `yaml:"output" mapstructure:"output"`
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	DelaySeconds float64 `yaml:"delay_seconds" mapstructure:"delay_seconds"`
}

// RetryConfig controls backoff for transient API failures.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig controls the per-provider circuit breaker. After
// FailureThreshold consecutive records fail transiently, calls are rejected
// until ResetTimeoutSecs have passed.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// PricingConfig holds per-model pricing overrides. Entries are a list rather
// than a map because model IDs such as gemini-2.5-flash contain the viper key
// delimiter.
type PricingConfig struct {
	Models []ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Model         string  `yaml:"model" mapstructure:"model"`
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is loaded first so provider keys can live there.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider SDK conventions are honoured after the prefixed names.
	_ = v.BindEnv("anthropic.key", "WEALTH_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("gemini.key", "WEALTH_GEMINI_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("generate.seed", 42)
	v.SetDefault("generate.num_samples", 100)
	v.SetDefault("generate.output", "instructions.jsonl")
	v.SetDefault("llm.provider", ProviderAnthropic)
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.cache_prompt", true)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("respond.input", "instructions.jsonl")
	v.SetDefault("respond.output", "training_data_full.jsonl")
	v.SetDefault("respond.max_tokens", 2000)
	v.SetDefault("respond.delay_seconds", 1.0)
	v.SetDefault("judge.input", "training_data_full.jsonl")
	v.SetDefault("judge.output", "training_data_scored.jsonl")
	v.SetDefault("judge.max_tokens", 1000)
	v.SetDefault("judge.delay_seconds", 0.0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 60)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// APIKey returns the configured key for the given provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return c.Anthropic.Key
	case ProviderGemini:
		return c.Gemini.Key
	default:
		return ""
	}
}

// Model returns the configured default model for the given provider.
func (c *Config) Model(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return c.Anthropic.Model
	case ProviderGemini:
		return c.Gemini.Model
	default:
		return ""
	}
}

// ValidateProvider checks that a provider is supported and has an API key.
// These are configuration errors: callers report them before any work starts.
func (c *Config) ValidateProvider(provider, apiKey string) error {
	switch provider {
	case ProviderAnthropic:
		if apiKey == "" {
			return eris.New("anthropic API key is required (--api-key, WEALTH_ANTHROPIC_KEY or ANTHROPIC_API_KEY)")
		}
	case ProviderGemini:
		if apiKey == "" {
			return eris.New("gemini API key is required (--api-key, WEALTH_GEMINI_KEY or GEMINI_API_KEY)")
		}
	default:
		return eris.Errorf("unknown provider %q (supported: %s, %s)", provider, ProviderAnthropic, ProviderGemini)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
