// Package llm gives the response and scoring stages one completion interface
// over the hosted model providers.
package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wealth-dataset/internal/config"
	"github.com/sells-group/wealth-dataset/internal/cost"
	"github.com/sells-group/wealth-dataset/internal/resilience"
	"github.com/sells-group/wealth-dataset/pkg/anthropic"
	"github.com/sells-group/wealth-dataset/pkg/gemini"
)

// Prompt is a single-turn request: a fixed system prompt and one user message.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature *float64
}

// Completion is the text a model returned plus what it cost.
type Completion struct {
	Text    string
	Model   string
	Usage   cost.Usage
	CostUSD float64
}

// Completer produces one completion per call.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)
	Provider() string
	Model() string
}

// Options configures a Completer.
type Options struct {
	Provider string
	APIKey   string
	Model    string

	// Timeout bounds each attempt. Zero means no per-attempt deadline.
	Timeout time.Duration

	// CacheSystem marks the system prompt as cacheable where the provider
	// supports it.
	CacheSystem bool

	Backoff resilience.Backoff

	// Breakers short-circuits calls to a provider that keeps failing
	// transiently. Optional.
	Breakers *resilience.ServiceBreakers

	// Tracker accumulates usage and cost. Optional.
	Tracker *cost.Tracker
}

// OptionsFromConfig builds Options for provider from the loaded config. Empty
// model and apiKey fall back to the configured values.
func OptionsFromConfig(cfg *config.Config, provider, model, apiKey string) Options {
	if model == "" {
		model = cfg.Model(provider)
	}
	if apiKey == "" {
		apiKey = cfg.APIKey(provider)
	}
	return Options{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       model,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		CacheSystem: cfg.Anthropic.CachePrompt,
		Backoff:     resilience.FromConfig(cfg.Retry),
		Breakers:    resilience.NewServiceBreakers(resilience.FromCircuitConfig(cfg.Circuit)),
		Tracker:     cost.NewTracker(cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing))),
	}
}

// New creates a Completer for opts.Provider backed by the real SDK clients.
func New(ctx context.Context, opts Options) (Completer, error) {
	if opts.Model == "" {
		return nil, eris.Errorf("llm: no model configured for provider %q", opts.Provider)
	}

	switch opts.Provider {
	case config.ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, eris.New("llm: anthropic API key is required")
		}
		var clientOpts []anthropic.Option
		if opts.Timeout > 0 {
			clientOpts = append(clientOpts, anthropic.WithRequestTimeout(opts.Timeout))
		}
		return NewAnthropic(anthropic.NewClient(opts.APIKey, clientOpts...), opts), nil

	case config.ProviderGemini:
		if opts.APIKey == "" {
			return nil, eris.New("llm: gemini API key is required")
		}
		var clientOpts []gemini.Option
		if opts.Timeout > 0 {
			clientOpts = append(clientOpts, gemini.WithRequestTimeout(opts.Timeout))
		}
		client, err := gemini.NewClient(ctx, opts.APIKey, clientOpts...)
		if err != nil {
			return nil, eris.Wrap(err, "llm: create gemini client")
		}
		return NewGemini(client, opts), nil

	default:
		return nil, eris.Errorf("llm: unknown provider %q", opts.Provider)
	}
}

// call runs fn under the retry policy, bounding each attempt by timeout. With
// breakers configured, the whole retry sequence counts as one call against
// the provider's circuit.
func call[T any](ctx context.Context, opts Options, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	b := opts.Backoff
	if b.OnRetry == nil {
		b.OnRetry = resilience.LogRetries(opts.Provider, operation)
	}
	retry := func(ctx context.Context) (T, error) {
		return resilience.Retry(ctx, b, func(ctx context.Context) (T, error) {
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}
			return fn(ctx)
		})
	}
	if opts.Breakers == nil {
		return retry(ctx)
	}
	return resilience.ExecuteVal(ctx, opts.Breakers.Get(opts.Provider), retry)
}

func record(tracker *cost.Tracker, model string, u cost.Usage) float64 {
	if tracker == nil {
		return 0
	}
	return tracker.Record(model, u)
}
