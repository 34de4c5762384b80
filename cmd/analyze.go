package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/wealth-dataset/internal/analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Print statistics for a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cmd.Flags().Changed("sample") {
			i, _ := cmd.Flags().GetInt("sample")
			return analyze.PrintSample(out, args[0], i)
		}

		report, err := analyze.File(args[0])
		if err != nil {
			return err
		}
		report.Print(out)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Int("sample", 0, "print the record at this 0-based index instead of statistics")
	rootCmd.AddCommand(analyzeCmd)
}
