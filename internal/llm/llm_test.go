package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/config"
	"github.com/sells-group/wealth-dataset/internal/cost"
	"github.com/sells-group/wealth-dataset/internal/resilience"
	"github.com/sells-group/wealth-dataset/pkg/anthropic"
	anthropicmocks "github.com/sells-group/wealth-dataset/pkg/anthropic/mocks"
	"github.com/sells-group/wealth-dataset/pkg/gemini"
	geminimocks "github.com/sells-group/wealth-dataset/pkg/gemini/mocks"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fastBackoff() resilience.Backoff {
	return resilience.Backoff{
		MaxAttempts: 3,
		Initial:     time.Millisecond,
		Max:         2 * time.Millisecond,
		Multiplier:  2,
	}
}

func testOptions(model string) Options {
	return Options{
		Model:       model,
		CacheSystem: true,
		Backoff:     fastBackoff(),
		Tracker:     cost.NewTracker(cost.NewCalculator(cost.DefaultRates())),
	}
}

func TestAnthropic_Complete(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	opts := testOptions("claude-haiku-4-5-20251001")

	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 2000 &&
			len(req.System) == 1 &&
			req.System[0].CacheControl != nil &&
			req.System[0].CacheControl.TTL == promptCacheTTL &&
			len(req.Messages) == 1 &&
			req.Messages[0].Content == "Write to the client."
	})).Return(&anthropic.MessageResponse{
		Model:   "claude-haiku-4-5-20251001",
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Dear client,"}},
		Usage: anthropic.TokenUsage{
			InputTokens:          1_000_000,
			OutputTokens:         0,
			CacheReadInputTokens: 0,
		},
	}, nil).Once()

	c := NewAnthropic(client, opts)
	assert.Equal(t, config.ProviderAnthropic, c.Provider())
	assert.Equal(t, "claude-haiku-4-5-20251001", c.Model())

	out, err := c.Complete(context.Background(), Prompt{System: "You are an advisor.", User: "Write to the client.", MaxTokens: 2000})
	require.NoError(t, err)
	assert.Equal(t, "Dear client,", out.Text)
	assert.InDelta(t, 1.0, out.CostUSD, 1e-9)

	calls, usage, usd := opts.Tracker.Totals()
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1_000_000), usage.InputTokens)
	assert.InDelta(t, 1.0, usd, 1e-9)
}

func TestAnthropic_NoCacheWhenDisabled(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	opts := testOptions("claude-haiku-4-5-20251001")
	opts.CacheSystem = false

	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.System) == 1 && req.System[0].CacheControl == nil
	})).Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Text: "ok"}}}, nil).Once()

	out, err := NewAnthropic(client, opts).Complete(context.Background(), Prompt{System: "sys", User: "u", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", out.Model)
}

func TestAnthropic_RetriesTransientStatus(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	overloaded := &anthropic.APIError{StatusCode: 529, Err: errors.New("overloaded")}

	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, overloaded).Once()
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Text: "second time lucky"}},
	}, nil).Once()

	out, err := NewAnthropic(client, testOptions("claude-haiku-4-5-20251001")).
		Complete(context.Background(), Prompt{User: "hi", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", out.Text)
}

func TestAnthropic_PermanentErrorNotRetried(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	badRequest := &anthropic.APIError{StatusCode: 400, Err: errors.New("invalid model")}

	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, badRequest).Once()

	_, err := NewAnthropic(client, testOptions("claude-haiku-4-5-20251001")).
		Complete(context.Background(), Prompt{User: "hi", MaxTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: anthropic complete")
	assert.Contains(t, err.Error(), "invalid model")
}

func TestAnthropic_GivesUpAfterMaxAttempts(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	rateLimited := &anthropic.APIError{StatusCode: 429, Err: errors.New("rate limited")}

	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, rateLimited).Times(3)

	_, err := NewAnthropic(client, testOptions("claude-haiku-4-5-20251001")).
		Complete(context.Background(), Prompt{User: "hi", MaxTokens: 10})
	require.Error(t, err)

	var te *resilience.TransientError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, 429, te.StatusCode)
}

func TestAnthropic_CircuitOpensDuringOutage(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	overloaded := &anthropic.APIError{StatusCode: 529, Err: errors.New("overloaded")}

	opts := testOptions("claude-haiku-4-5-20251001")
	opts.Backoff.MaxAttempts = 2
	opts.Breakers = resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := NewAnthropic(client, opts)

	// Two failed records, two attempts each; the third record never reaches
	// the client.
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, overloaded).Times(4)

	for range 2 {
		_, err := c.Complete(context.Background(), Prompt{User: "hi", MaxTokens: 10})
		require.Error(t, err)
		assert.False(t, errors.Is(err, resilience.ErrCircuitOpen))
	}

	_, err := c.Complete(context.Background(), Prompt{User: "hi", MaxTokens: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Contains(t, err.Error(), "llm: anthropic complete")
	assert.Equal(t, resilience.CircuitOpen, opts.Breakers.Get(config.ProviderAnthropic).State())
}

func TestAnthropic_TimeoutAppliesPerAttempt(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	opts := testOptions("claude-haiku-4-5-20251001")
	opts.Timeout = 50 * time.Millisecond

	client.On("CreateMessage", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Text: "ok"}}}, nil).Once()

	_, err := NewAnthropic(client, opts).Complete(context.Background(), Prompt{User: "hi", MaxTokens: 10})
	require.NoError(t, err)
}

func TestGemini_Complete(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	opts := testOptions("gemini-2.5-flash")
	temp := 0.2

	client.On("GenerateContent", mock.Anything, mock.MatchedBy(func(req gemini.GenerateRequest) bool {
		return req.Model == "gemini-2.5-flash" &&
			req.System == "judge rubric" &&
			req.Prompt == "Evaluate" &&
			req.MaxOutputTokens == 1000 &&
			req.Temperature != nil && *req.Temperature == float32(0.2)
	})).Return(&gemini.GenerateResponse{
		Text: `{"overall_score": 9}`,
		Usage: gemini.TokenUsage{
			PromptTokens:     1_000_000,
			CandidatesTokens: 1_000_000,
		},
	}, nil).Once()

	c := NewGemini(client, opts)
	assert.Equal(t, config.ProviderGemini, c.Provider())

	out, err := c.Complete(context.Background(), Prompt{System: "judge rubric", User: "Evaluate", MaxTokens: 1000, Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, `{"overall_score": 9}`, out.Text)
	assert.Equal(t, "gemini-2.5-flash", out.Model)
	assert.InDelta(t, 0.30+2.50, out.CostUSD, 1e-9)
}

func TestGemini_CachedTokensSplitOut(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	client.On("GenerateContent", mock.Anything, mock.Anything).Return(&gemini.GenerateResponse{
		Text:  "ok",
		Usage: gemini.TokenUsage{PromptTokens: 500, CandidatesTokens: 10, CachedTokens: 400},
	}, nil).Once()

	out, err := NewGemini(client, testOptions("gemini-2.5-flash")).Complete(context.Background(), Prompt{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), out.Usage.InputTokens)
	assert.Equal(t, int64(400), out.Usage.CacheReadTokens)
}

func TestGemini_RetriesTransientStatus(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	unavailable := &gemini.APIError{StatusCode: 503, Err: errors.New("try later")}

	client.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, unavailable).Once()
	client.On("GenerateContent", mock.Anything, mock.Anything).Return(&gemini.GenerateResponse{Text: "ok"}, nil).Once()

	out, err := NewGemini(client, testOptions("gemini-2.5-flash")).Complete(context.Background(), Prompt{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
}

func TestGemini_Error(t *testing.T) {
	client := geminimocks.NewMockClient(t)
	client.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("permission denied")).Once()

	_, err := NewGemini(client, testOptions("gemini-2.5-flash")).Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: gemini complete")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"unknown provider", Options{Provider: "openai", APIKey: "k", Model: "gpt"}, `unknown provider "openai"`},
		{"missing model", Options{Provider: config.ProviderAnthropic, APIKey: "k"}, "no model configured"},
		{"anthropic missing key", Options{Provider: config.ProviderAnthropic, Model: "m"}, "anthropic API key is required"},
		{"gemini missing key", Options{Provider: config.ProviderGemini, Model: "m"}, "gemini API key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_Anthropic(t *testing.T) {
	c, err := New(context.Background(), Options{Provider: config.ProviderAnthropic, APIKey: "sk-ant", Model: "claude-haiku-4-5-20251001"})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderAnthropic, c.Provider())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		LLM:       config.LLMConfig{TimeoutSecs: 30},
		Anthropic: config.AnthropicConfig{Key: "sk-ant", Model: "claude-haiku-4-5-20251001", CachePrompt: true},
		Gemini:    config.GeminiConfig{Key: "gm", Model: "gemini-2.5-flash"},
		Retry:     config.RetryConfig{MaxAttempts: 5},
	}

	opts := OptionsFromConfig(cfg, config.ProviderGemini, "", "")
	assert.Equal(t, "gm", opts.APIKey)
	assert.Equal(t, "gemini-2.5-flash", opts.Model)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 5, opts.Backoff.MaxAttempts)
	assert.NotNil(t, opts.Tracker)
	require.NotNil(t, opts.Breakers)
	assert.Equal(t, resilience.CircuitClosed, opts.Breakers.Get(config.ProviderGemini).State())

	opts = OptionsFromConfig(cfg, config.ProviderAnthropic, "claude-sonnet-4-5", "override")
	assert.Equal(t, "override", opts.APIKey)
	assert.Equal(t, "claude-sonnet-4-5", opts.Model)
	assert.True(t, opts.CacheSystem)
}
