package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wealth-dataset/internal/config"
	"github.com/sells-group/wealth-dataset/internal/cost"
	"github.com/sells-group/wealth-dataset/internal/resilience"
	"github.com/sells-group/wealth-dataset/pkg/gemini"
)

type geminiCompleter struct {
	client gemini.Client
	opts   Options
}

// NewGemini creates a Completer that sends prompts through client.
func NewGemini(client gemini.Client, opts Options) Completer {
	opts.Provider = config.ProviderGemini
	return &geminiCompleter{client: client, opts: opts}
}

func (c *geminiCompleter) Provider() string { return c.opts.Provider }
func (c *geminiCompleter) Model() string    { return c.opts.Model }

func (c *geminiCompleter) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	req := gemini.GenerateRequest{
		Model:           c.opts.Model,
		System:          p.System,
		Prompt:          p.User,
		MaxOutputTokens: int32(p.MaxTokens), //nolint:gosec // bounded by config
	}
	if p.Temperature != nil {
		t := float32(*p.Temperature)
		req.Temperature = &t
	}

	resp, err := call(ctx, c.opts, "generate_content", func(ctx context.Context) (*gemini.GenerateResponse, error) {
		resp, err := c.client.GenerateContent(ctx, req)
		if err != nil {
			var apiErr *gemini.APIError
			if errors.As(err, &apiErr) {
				return nil, resilience.MarkStatus(err, apiErr.StatusCode)
			}
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini complete")
	}

	// Implicit context caching reports cached tokens as part of the prompt.
	usage := cost.Usage{
		InputTokens:     resp.Usage.PromptTokens - resp.Usage.CachedTokens,
		OutputTokens:    resp.Usage.CandidatesTokens,
		CacheReadTokens: resp.Usage.CachedTokens,
	}

	return &Completion{
		Text:    resp.Text,
		Model:   c.opts.Model,
		Usage:   usage,
		CostUSD: record(c.opts.Tracker, c.opts.Model, usage),
	}, nil
}
