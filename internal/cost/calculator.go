package cost

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/config"
)

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input         float64
	Output        float64
	CacheWriteMul float64
	CacheReadMul  float64
}

// Rates maps model IDs to their pricing.
type Rates map[string]ModelRate

// Usage is the token accounting for one model call.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// Calculator computes costs for model usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Cost returns the USD cost of usage on model. Unknown models cost 0.
func (c *Calculator) Cost(model string, u Usage) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}

	inCost := (float64(u.InputTokens) / 1e6) * rate.Input
	outCost := (float64(u.OutputTokens) / 1e6) * rate.Output
	cwCost := (float64(u.CacheWriteTokens) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(u.CacheReadTokens) / 1e6) * rate.Input * rate.CacheReadMul

	return inCost + outCost + cwCost + crCost
}

// Known reports whether the calculator has a rate for model.
func (c *Calculator) Known(model string) bool {
	_, ok := c.rates[model]
	return ok
}

// DefaultRates returns list pricing for the models the CLI defaults to.
func DefaultRates() Rates {
	return Rates{
		"claude-haiku-4-5-20251001": {
			Input: 1.00, Output: 5.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-sonnet-4-5-20250929": {
			Input: 3.00, Output: 15.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-opus-4-6": {
			Input: 15.00, Output: 75.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"gemini-2.5-flash": {
			Input: 0.30, Output: 2.50,
			CacheReadMul: 0.25,
		},
		"gemini-2.5-pro": {
			Input: 1.25, Output: 10.00,
			CacheReadMul: 0.25,
		},
	}
}

// RatesFromConfig layers configured per-model pricing over DefaultRates.
func RatesFromConfig(cfg config.PricingConfig) Rates {
	rates := DefaultRates()
	for _, m := range cfg.Models {
		if m.Model == "" {
			continue
		}
		rates[m.Model] = ModelRate{
			Input:         m.Input,
			Output:        m.Output,
			CacheWriteMul: m.CacheWriteMul,
			CacheReadMul:  m.CacheReadMul,
		}
	}
	return rates
}

// Tracker accumulates usage and cost across the calls of one stage run.
type Tracker struct {
	calc *Calculator

	mu    sync.Mutex
	calls int
	usage Usage
	usd   float64
}

// NewTracker creates a Tracker pricing usage with calc.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Record adds one call's usage and returns its cost.
func (t *Tracker) Record(model string, u Usage) float64 {
	c := t.calc.Cost(model, u)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.usage.InputTokens += u.InputTokens
	t.usage.OutputTokens += u.OutputTokens
	t.usage.CacheWriteTokens += u.CacheWriteTokens
	t.usage.CacheReadTokens += u.CacheReadTokens
	t.usd += c
	return c
}

// Totals returns the call count, summed usage and summed cost.
func (t *Tracker) Totals() (calls int, usage Usage, usd float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls, t.usage, t.usd
}

// Log writes the accumulated totals as one structured log line.
func (t *Tracker) Log(phase string) {
	calls, u, usd := t.Totals()
	zap.L().Info("cost summary",
		zap.String("phase", phase),
		zap.Int("calls", calls),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheWriteTokens),
		zap.Int64("cache_read_tokens", u.CacheReadTokens),
		zap.Float64("estimated_cost_usd", usd),
	)
}
