package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/dataset"
	"github.com/sells-group/wealth-dataset/internal/responder"
)

// ResponseStage generates a response for every instruction in Input and
// appends the resulting records to Output.
type ResponseStage struct {
	Responder  *responder.Responder
	Input      string
	Output     string
	MaxSamples int
	Delay      time.Duration
	Out        io.Writer
}

// ResponseSummary reports what a response run did.
type ResponseSummary struct {
	RunID     string
	Total     int
	Generated int
	Failed    int
	CostUSD   float64
}

func (s *ResponseStage) loadInstructions() ([]string, error) {
	if err := requireFile(s.Input, "instructions"); err != nil {
		return nil, err
	}
	recs, err := dataset.ReadFile[dataset.Instruction](s.Input)
	if err != nil {
		return nil, err
	}
	if s.MaxSamples > 0 && len(recs) > s.MaxSamples {
		recs = recs[:s.MaxSamples]
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Instruction
	}
	return out, nil
}

// Run processes every instruction. Generation failures are recorded and the
// run continues; only input, output and cancellation errors stop it.
func (s *ResponseStage) Run(ctx context.Context) (*ResponseSummary, error) {
	instructions, err := s.loadInstructions()
	if err != nil {
		return nil, err
	}

	sum := &ResponseSummary{RunID: newRunID(), Total: len(instructions)}
	log := zap.L().With(zap.String("run_id", sum.RunID), zap.String("stage", "respond"))
	log.Info("pipeline: starting response generation",
		zap.String("input", s.Input),
		zap.String("output", s.Output),
		zap.Int("instructions", sum.Total),
	)

	fmt.Fprintf(s.Out, "Generating responses for %d instructions...\n", sum.Total)
	fmt.Fprintf(s.Out, "Input: %s\nOutput: %s\n\n", s.Input, s.Output)

	w, err := dataset.Append(s.Output)
	if err != nil {
		return nil, err
	}
	defer w.Close() //nolint:errcheck

	pacer := newPacer(s.Delay)
	for i, instruction := range instructions {
		if err := pacer.Wait(ctx); err != nil {
			return sum, eris.Wrap(err, "pipeline: response generation interrupted")
		}

		fmt.Fprintf(s.Out, "[%d/%d] Generating response...\n", i+1, sum.Total)
		fmt.Fprintf(s.Out, "  Instruction: %s\n", truncate(instruction, 80))

		res := s.Responder.Respond(ctx, instruction)
		if ctx.Err() != nil {
			return sum, eris.Wrap(ctx.Err(), "pipeline: response generation interrupted")
		}
		if err := w.Write(res.Record(instruction)); err != nil {
			return sum, err
		}
		sum.CostUSD += res.CostUSD

		if !res.OK() {
			sum.Failed++
			log.Warn("pipeline: response generation failed", zap.Int("index", i), zap.Error(res.Err))
			fmt.Fprintf(s.Out, "  Failed: %v\n", res.Err)
			continue
		}

		sum.Generated++
		log.Debug("pipeline: response generated",
			zap.Int("index", i),
			zap.String("model", res.Model),
			zap.Int64("input_tokens", res.Usage.InputTokens),
			zap.Int64("output_tokens", res.Usage.OutputTokens),
			zap.Int64("cache_read_tokens", res.Usage.CacheReadTokens),
			zap.Float64("estimated_cost_usd", res.CostUSD),
		)
		fmt.Fprintf(s.Out, "  Response generated (%d chars)\n", utf8.RuneCountInString(res.Text))
	}

	log.Info("pipeline: response generation complete",
		zap.Int("generated", sum.Generated),
		zap.Int("failed", sum.Failed),
		zap.Float64("estimated_cost_usd", sum.CostUSD),
	)
	fmt.Fprintf(s.Out, "\nDataset complete!\n  Total samples: %d\n  Failed: %d\n  Saved to: %s\n",
		sum.Total, sum.Failed, s.Output)
	return sum, nil
}

// Preview generates one response for the first instruction and prints it
// without writing any output.
func (s *ResponseStage) Preview(ctx context.Context) error {
	if err := requireFile(s.Input, "instructions"); err != nil {
		return err
	}
	recs, err := dataset.ReadFile[dataset.Instruction](s.Input)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return eris.Errorf("pipeline: no instructions in %s", s.Input)
	}

	instruction := recs[0].Instruction
	fmt.Fprintf(s.Out, "Instruction (advisor brief):\n%s\n\n", instruction)

	res := s.Responder.Respond(ctx, instruction)
	if !res.OK() {
		return eris.Wrap(res.Err, "pipeline: preview response")
	}
	fmt.Fprintf(s.Out, "Response (draft for client):\n%s\n", res.Text)
	return nil
}
