package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/llm"
)

// addLLMFlags registers the provider selection flags shared by respond and
// score.
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "LLM provider: anthropic or gemini (default from llm.provider)")
	cmd.Flags().String("model", "", "model ID (default from <provider>.model)")
	cmd.Flags().String("api-key", "", "provider API key (default from environment)")
	cmd.Flags().String("input", "", "input JSONL path")
	cmd.Flags().String("output", "", "output JSONL path")
	cmd.Flags().Float64("delay", 0, "seconds between API calls")
	cmd.Flags().Int("max-samples", 0, "process at most this many records (0 = all)")
}

// llmOptions resolves flags over config and validates the provider before
// any work starts.
func llmOptions(cmd *cobra.Command) (llm.Options, error) {
	provider, _ := cmd.Flags().GetString("provider")
	if provider == "" {
		provider = cfg.LLM.Provider
	}
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")

	opts := llm.OptionsFromConfig(cfg, provider, model, apiKey)
	if err := cfg.ValidateProvider(provider, opts.APIKey); err != nil {
		return llm.Options{}, err
	}
	return opts, nil
}

func newCompleter(ctx context.Context, cmd *cobra.Command) (llm.Completer, llm.Options, error) {
	opts, err := llmOptions(cmd)
	if err != nil {
		return nil, opts, err
	}
	c, err := llm.New(ctx, opts)
	if err != nil {
		return nil, opts, err
	}
	zap.L().Info("llm configured",
		zap.String("provider", c.Provider()),
		zap.String("model", c.Model()),
	)
	return c, opts, nil
}

// stringFlag returns the flag value when set, otherwise def.
func stringFlag(cmd *cobra.Command, name, def string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return def
}

// delayFlag returns --delay as a duration, falling back to seconds from
// config.
func delayFlag(cmd *cobra.Command, defSeconds float64) time.Duration {
	secs := defSeconds
	if cmd.Flags().Changed("delay") {
		secs, _ = cmd.Flags().GetFloat64("delay")
	}
	return time.Duration(secs * float64(time.Second))
}
