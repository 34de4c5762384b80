package main

import (
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/wealth-dataset/internal/catalog"
	"github.com/sells-group/wealth-dataset/internal/composer"
	"github.com/sells-group/wealth-dataset/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate advisor instruction prompts",
	Long: "Stage 1: composes advisor-facing instruction prompts from the persona, market and tier tables " +
		"and writes them to a JSONL file. The same seed always produces the same file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed := cfg.Generate.Seed
		if cmd.Flags().Changed("seed") {
			seed, _ = cmd.Flags().GetUint64("seed")
		}
		n := cfg.Generate.NumSamples
		if cmd.Flags().Changed("num-samples") {
			n, _ = cmd.Flags().GetInt("num-samples")
		}
		output := cfg.Generate.Output
		if cmd.Flags().Changed("output") {
			output, _ = cmd.Flags().GetString("output")
		}
		preview, _ := cmd.Flags().GetInt("preview")
		catalogDir, _ := cmd.Flags().GetString("catalog-dir")

		cat, err := loadCatalog(catalogDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		rng := rand.New(rand.NewPCG(seed, seed))
		em := pipeline.NewEmitter(composer.New(cat, rng), cat.Personas, rng)

		if preview > 0 {
			em.Preview(out, preview)
		}
		_, err = em.EmitFile(output, n, out)
		return err
	},
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(os.DirFS(dir))
}

func init() {
	generateCmd.Flags().Uint64("seed", 42, "random seed (default from generate.seed)")
	generateCmd.Flags().Int("num-samples", 100, "number of instructions to generate (default from generate.num_samples)")
	generateCmd.Flags().String("output", "instructions.jsonl", "output JSONL path (default from generate.output)")
	generateCmd.Flags().Int("preview", 5, "number of sample instructions to print first (0 disables)")
	generateCmd.Flags().String("catalog-dir", "", "directory with personas.yaml, markets.yaml, tiers.yaml and products.yaml (default: built-in tables)")
	rootCmd.AddCommand(generateCmd)
}
