package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/dataset"
	"github.com/sells-group/wealth-dataset/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export a scored dataset to XLSX or CSV for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		output, _ := cmd.Flags().GetString("output")

		records, err := dataset.ReadFile[dataset.Record](args[0])
		if err != nil {
			return err
		}
		rows := export.Rows(records, minScore)

		if output == "" {
			output = exportPath(args[0], format)
		}
		switch format {
		case "xlsx":
			err = export.WriteXLSX(rows, output)
		case "csv":
			err = writeCSVFile(rows, output)
		default:
			return eris.Errorf("unknown export format %q (supported: xlsx, csv)", format)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", output),
			zap.String("format", format),
			zap.Int("rows", len(rows)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d of %d records to %s\n", len(rows), len(records), output)
		return nil
	},
}

func exportPath(input, format string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

func writeCSVFile(rows []export.Row, path string) (err error) {
	f, err := os.Create(path) //nolint:gosec // user-supplied output path
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = eris.Wrapf(cerr, "export: close %s", path)
		}
	}()
	return export.WriteCSV(rows, f)
}

func init() {
	exportCmd.Flags().String("format", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().Float64("min-score", 0, "only export records scoring at least this")
	exportCmd.Flags().String("output", "", "output path (default: input path with the format's extension)")
	rootCmd.AddCommand(exportCmd)
}
