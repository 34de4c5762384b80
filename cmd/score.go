package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/wealth-dataset/internal/judge"
	"github.com/sells-group/wealth-dataset/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score each sample with an LLM judge",
	Long: "Stage 3: rates every instruction/response record against the communication rubric, " +
		"writes the scored records in input order and a copy sorted by overall score.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		completer, opts, err := newCompleter(ctx, cmd)
		if err != nil {
			return err
		}
		maxSamples, _ := cmd.Flags().GetInt("max-samples")

		stage := &pipeline.ScoreStage{
			Judge:      judge.New(completer, judge.Options{MaxTokens: cfg.Judge.MaxTokens}),
			Input:      stringFlag(cmd, "input", cfg.Judge.Input),
			Output:     stringFlag(cmd, "output", cfg.Judge.Output),
			MaxSamples: maxSamples,
			Delay:      delayFlag(cmd, cfg.Judge.DelaySeconds),
			Out:        cmd.OutOrStdout(),
		}
		defer opts.Tracker.Log("score")

		_, err = stage.Run(ctx)
		return err
	},
}

func init() {
	addLLMFlags(scoreCmd)
	rootCmd.AddCommand(scoreCmd)
}
