// Package responder turns advisor instructions into client-facing responses
// through a hosted model.
package responder

import (
	"context"
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wealth-dataset/internal/cost"
	"github.com/sells-group/wealth-dataset/internal/dataset"
	"github.com/sells-group/wealth-dataset/internal/llm"
)

//go:embed system_prompt.md
var systemPrompt string

// DefaultMaxTokens caps the length of one response.
const DefaultMaxTokens = 2000

// SystemPrompt returns the advisor persona and style guide sent with every
// request.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// Options configures a Responder.
type Options struct {
	MaxTokens int
	// SystemPrompt overrides the embedded prompt when non-empty.
	SystemPrompt string
}

// Responder generates one response per instruction.
type Responder struct {
	completer llm.Completer
	system    string
	maxTokens int
}

// New creates a Responder.
func New(completer llm.Completer, opts Options) *Responder {
	r := &Responder{
		completer: completer,
		system:    opts.SystemPrompt,
		maxTokens: opts.MaxTokens,
	}
	if r.system == "" {
		r.system = SystemPrompt()
	}
	if r.maxTokens <= 0 {
		r.maxTokens = DefaultMaxTokens
	}
	return r
}

// Result is the outcome of one generation: either Text or Err is set.
type Result struct {
	Text    string
	Err     error
	Model   string
	Usage   cost.Usage
	CostUSD float64
}

// OK reports whether a response was generated.
func (r Result) OK() bool {
	return r.Err == nil
}

// Record builds the dataset record for instruction. A failed result keeps the
// marker text in response and the raw error in generation_error.
func (r Result) Record(instruction string) dataset.Record {
	rec := dataset.Record{Instruction: instruction}
	if r.OK() {
		rec.Response = r.Text
		return rec
	}
	rec.Response = dataset.ErrorMarker(r.Err.Error())
	rec.GenerationError = r.Err.Error()
	return rec
}

// Respond asks the model for a response to instruction. Failures are returned
// in the Result, never as a panic or a separate error.
func (r *Responder) Respond(ctx context.Context, instruction string) Result {
	out, err := r.completer.Complete(ctx, llm.Prompt{
		System:    r.system,
		User:      instruction,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return Result{Err: err, Model: r.completer.Model()}
	}

	res := Result{
		Text:    out.Text,
		Model:   out.Model,
		Usage:   out.Usage,
		CostUSD: out.CostUSD,
	}
	if strings.TrimSpace(out.Text) == "" {
		res.Err = eris.New("responder: model returned an empty response")
	}
	return res
}
