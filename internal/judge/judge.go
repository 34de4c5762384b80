// Package judge scores generated responses against a rubric using a hosted
// model as the evaluator.
package judge

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/cost"
	"github.com/sells-group/wealth-dataset/internal/dataset"
	"github.com/sells-group/wealth-dataset/internal/llm"
)

//go:embed rubric.md
var rubric string

// DefaultMaxTokens caps the length of one evaluation.
const DefaultMaxTokens = 1000

// Explanations used for the zero-score fallbacks.
const (
	ParseFailureExplanation = "Error: Could not parse evaluation"
	ParseFailureImprovement = "Failed to evaluate properly"
	SkippedExplanation      = "Skipped: response generation failed"
)

// rawExcerpt is how much of an unparseable evaluation is logged from each end.
const rawExcerpt = 500

// Rubric returns the evaluator system prompt.
func Rubric() string {
	return strings.TrimSpace(rubric)
}

// Prompt builds the user message for one instruction/response pair.
func Prompt(instruction, response string) string {
	return fmt.Sprintf("Evaluate this wealth management communication:\n\n"+
		"**ADVISOR INSTRUCTION:**\n%s\n\n"+
		"**DRAFT CLIENT COMMUNICATION:**\n%s\n\n"+
		"Provide scores and feedback in JSON format.", instruction, response)
}

// Options configures a Judge.
type Options struct {
	MaxTokens int
	// Rubric overrides the embedded rubric when non-empty.
	Rubric string
}

// Judge evaluates responses.
type Judge struct {
	completer llm.Completer
	rubric    string
	maxTokens int
}

// New creates a Judge.
func New(completer llm.Completer, opts Options) *Judge {
	j := &Judge{
		completer: completer,
		rubric:    opts.Rubric,
		maxTokens: opts.MaxTokens,
	}
	if j.rubric == "" {
		j.rubric = Rubric()
	}
	if j.maxTokens <= 0 {
		j.maxTokens = DefaultMaxTokens
	}
	return j
}

// Evaluation is the outcome of scoring one response. Scores is always
// usable; on failure it holds zero scores and Err says why.
type Evaluation struct {
	Scores  dataset.QualityScores
	Err     error
	Usage   cost.Usage
	CostUSD float64
}

// OK reports whether the judge produced real scores.
func (e Evaluation) OK() bool {
	return e.Err == nil
}

// Score evaluates response. It never fails the caller: transport and parse
// errors become zero-score evaluations.
func (j *Judge) Score(ctx context.Context, instruction, response string) Evaluation {
	out, err := j.completer.Complete(ctx, llm.Prompt{
		System:    j.rubric,
		User:      Prompt(instruction, response),
		MaxTokens: j.maxTokens,
	})
	if err != nil {
		zap.L().Warn("judge: evaluation request failed", zap.Error(err))
		return Evaluation{
			Scores: ZeroScores("Error: "+err.Error(), nil),
			Err:    err,
		}
	}

	ev := Evaluation{Usage: out.Usage, CostUSD: out.CostUSD}
	scores, err := ParseScores(out.Text)
	if err != nil {
		head, tail := excerpt(out.Text, rawExcerpt)
		zap.L().Warn("judge: could not parse evaluation",
			zap.Error(err),
			zap.String("raw_head", head),
			zap.String("raw_tail", tail),
		)
		ev.Scores = ZeroScores(ParseFailureExplanation, []string{ParseFailureImprovement})
		ev.Err = err
		return ev
	}

	ev.Scores = *scores
	return ev
}

// ZeroScores returns an all-zero evaluation carrying explanation.
func ZeroScores(explanation string, improvements []string) dataset.QualityScores {
	if improvements == nil {
		improvements = []string{}
	}
	return dataset.QualityScores{
		Explanation:  explanation,
		Strengths:    []string{},
		Improvements: improvements,
	}
}

// Skipped returns the scores recorded for a response that was never
// generated.
func Skipped() dataset.QualityScores {
	return ZeroScores(SkippedExplanation, nil)
}

// excerpt returns the first and last n runes of s. Short strings are
// returned whole as head.
func excerpt(s string, n int) (head, tail string) {
	r := []rune(s)
	if len(r) <= n {
		return s, ""
	}
	head = string(r[:n])
	tail = string(r[max(n, len(r)-n):])
	return head, tail
}
