package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/wealth-dataset/internal/pipeline"
	"github.com/sells-group/wealth-dataset/internal/responder"
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Generate client communications for each instruction",
	Long: "Stage 2: sends every instruction to the configured LLM with the advisor system prompt " +
		"and appends each instruction/response record to the output file as soon as it is generated.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		completer, opts, err := newCompleter(ctx, cmd)
		if err != nil {
			return err
		}
		maxSamples, _ := cmd.Flags().GetInt("max-samples")
		preview, _ := cmd.Flags().GetBool("preview")

		stage := &pipeline.ResponseStage{
			Responder:  responder.New(completer, responder.Options{MaxTokens: cfg.Respond.MaxTokens}),
			Input:      stringFlag(cmd, "input", cfg.Respond.Input),
			Output:     stringFlag(cmd, "output", cfg.Respond.Output),
			MaxSamples: maxSamples,
			Delay:      delayFlag(cmd, cfg.Respond.DelaySeconds),
			Out:        cmd.OutOrStdout(),
		}
		defer opts.Tracker.Log("respond")

		if preview {
			return stage.Preview(ctx)
		}
		_, err = stage.Run(ctx)
		return err
	},
}

func init() {
	addLLMFlags(respondCmd)
	respondCmd.Flags().Bool("preview", false, "generate and print one response for the first instruction")
	rootCmd.AddCommand(respondCmd)
}
