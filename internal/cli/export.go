package cli

import (
	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a columnar dataset to line-delimited JSON",
	Long: `Convert a columnar dataset file into line-delimited JSON, one commit object
per line, named after the input file in the output directory.

Dates keep the dataset's DD.MM.YYYY HH:MM:SS format.

Examples:
  ccsminer export --input splits/ccs_commits_train.parquet --output-dir json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath, err := dataset.ExportJSONL(cfg.Dataset.Input, cfg.Split.OutputDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Export: JSONL conversion")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input dataset file (required)")
	exportCmd.Flags().StringVar(&cfg.Split.OutputDir, flags.FlagOutputDir, "", "Directory for the JSONL file (required)")
	mustMarkRequired(exportCmd, flags.FlagInput, flags.FlagOutputDir)
}
