package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/dataset"
	"github.com/sells-group/wealth-dataset/internal/judge"
)

// ScoreStage scores every record in Input, appends each scored record to
// Output as it completes, and finally writes a copy sorted by overall score.
type ScoreStage struct {
	Judge      *judge.Judge
	Input      string
	Output     string
	MaxSamples int
	Delay      time.Duration
	Out        io.Writer
}

// ScoreSummary reports what a scoring run did.
type ScoreSummary struct {
	RunID      string
	Total      int
	Scored     int
	Failed     int
	Skipped    int
	SortedPath string
	Stats      dataset.ScoreStats
	CostUSD    float64
}

// Run scores every record. Judge failures produce zero scores and the run
// continues.
func (s *ScoreStage) Run(ctx context.Context) (*ScoreSummary, error) {
	if err := requireFile(s.Input, "input"); err != nil {
		return nil, err
	}
	records, err := dataset.ReadFile[dataset.Record](s.Input)
	if err != nil {
		return nil, err
	}
	if s.MaxSamples > 0 && len(records) > s.MaxSamples {
		records = records[:s.MaxSamples]
	}

	sum := &ScoreSummary{RunID: newRunID(), Total: len(records), SortedPath: dataset.SortedPath(s.Output)}
	log := zap.L().With(zap.String("run_id", sum.RunID), zap.String("stage", "score"))
	log.Info("pipeline: starting scoring",
		zap.String("input", s.Input),
		zap.String("output", s.Output),
		zap.Int("records", sum.Total),
	)

	fmt.Fprintf(s.Out, "Scoring %d training samples...\n", sum.Total)
	fmt.Fprintf(s.Out, "Input: %s\nOutput: %s\n\n", s.Input, s.Output)

	w, err := dataset.Create(s.Output)
	if err != nil {
		return nil, err
	}
	defer w.Close() //nolint:errcheck

	pacer := newPacer(s.Delay)
	scored := make([]dataset.Record, 0, len(records))
	for i, rec := range records {
		fmt.Fprintf(s.Out, "[%d/%d] Scoring sample...\n", i+1, sum.Total)

		var scores dataset.QualityScores
		if rec.Failed() {
			scores = judge.Skipped()
			sum.Skipped++
			log.Info("pipeline: skipping failed generation", zap.Int("index", i))
		} else {
			if err := pacer.Wait(ctx); err != nil {
				return sum, eris.Wrap(err, "pipeline: scoring interrupted")
			}
			ev := s.Judge.Score(ctx, rec.Instruction, rec.Response)
			if ctx.Err() != nil {
				return sum, eris.Wrap(ctx.Err(), "pipeline: scoring interrupted")
			}
			scores = ev.Scores
			sum.CostUSD += ev.CostUSD
			if ev.OK() {
				sum.Scored++
			} else {
				sum.Failed++
				log.Warn("pipeline: evaluation failed", zap.Int("index", i), zap.Error(ev.Err))
			}
		}

		rec.QualityScores = &scores
		if err := w.Write(rec); err != nil {
			return sum, err
		}
		scored = append(scored, rec)

		fmt.Fprintf(s.Out, "  Overall Score: %.1f/10\n", scores.OverallScore)
		fmt.Fprintf(s.Out, "    %s\n", truncate(scores.Explanation, 80))
	}

	dataset.SortByScore(scored)
	if err := dataset.WriteFile(sum.SortedPath, scored); err != nil {
		return sum, err
	}

	sum.Stats = dataset.ComputeScoreStats(scored)
	log.Info("pipeline: scoring complete",
		zap.Int("scored", sum.Scored),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Float64("average_score", sum.Stats.Average),
		zap.Float64("estimated_cost_usd", sum.CostUSD),
	)

	fmt.Fprintf(s.Out, "\nScoring complete!\n  Scored dataset: %s\n  Sorted by quality: %s\n", s.Output, sum.SortedPath)
	if sum.Stats.Count > 0 {
		PrintScoreStats(s.Out, sum.Stats)
	}
	return sum, nil
}

// PrintScoreStats writes the quality summary block.
func PrintScoreStats(w io.Writer, st dataset.ScoreStats) {
	fmt.Fprintf(w, "\nQuality Statistics:\n")
	fmt.Fprintf(w, "  Average score: %.2f/10\n", st.Average)
	fmt.Fprintf(w, "  Highest score: %.1f/10\n", st.Highest)
	fmt.Fprintf(w, "  Lowest score: %.1f/10\n", st.Lowest)
	fmt.Fprintf(w, "  Samples >= 8.0: %d\n", st.AtLeast8)
	fmt.Fprintf(w, "  Samples >= 7.0: %d\n", st.AtLeast7)
}
