package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "wealth-dataset",
	Short: "Synthetic wealth-advisor training data pipeline",
	Long: "Generates advisor instruction prompts from persona, market and tier tables, " +
		"collects client communications for them from an LLM, and scores each sample with an LLM judge.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
