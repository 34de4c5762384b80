package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wealth-dataset/internal/config"
	"github.com/sells-group/wealth-dataset/internal/cost"
	"github.com/sells-group/wealth-dataset/internal/resilience"
	"github.com/sells-group/wealth-dataset/pkg/anthropic"
)

// promptCacheTTL keeps the system prompt cached for a whole stage run at the
// default pacing.
const promptCacheTTL = "1h"

type anthropicCompleter struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropic creates a Completer that sends prompts through client.
func NewAnthropic(client anthropic.Client, opts Options) Completer {
	opts.Provider = config.ProviderAnthropic
	return &anthropicCompleter{client: client, opts: opts}
}

func (c *anthropicCompleter) Provider() string { return c.opts.Provider }
func (c *anthropicCompleter) Model() string    { return c.opts.Model }

func (c *anthropicCompleter) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	req := anthropic.MessageRequest{
		Model:       c.opts.Model,
		MaxTokens:   int64(p.MaxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
		Temperature: p.Temperature,
	}
	if c.opts.CacheSystem && p.System != "" {
		req.System = anthropic.BuildCachedSystemBlocks(p.System, promptCacheTTL)
	} else {
		req.System = anthropic.BuildSystemBlocks(p.System)
	}

	resp, err := call(ctx, c.opts, "create_message", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		resp, err := c.client.CreateMessage(ctx, req)
		if err != nil {
			var apiErr *anthropic.APIError
			if errors.As(err, &apiErr) {
				return nil, resilience.MarkStatus(err, apiErr.StatusCode)
			}
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic complete")
	}

	usage := cost.Usage{
		InputTokens:      resp.Usage.InputTokens,
		OutputTokens:     resp.Usage.OutputTokens,
		CacheWriteTokens: resp.Usage.CacheCreationInputTokens,
		CacheReadTokens:  resp.Usage.CacheReadInputTokens,
	}
	model := resp.Model
	if model == "" {
		model = c.opts.Model
	}

	return &Completion{
		Text:    resp.Text(),
		Model:   model,
		Usage:   usage,
		CostUSD: record(c.opts.Tracker, c.opts.Model, usage),
	}, nil
}
