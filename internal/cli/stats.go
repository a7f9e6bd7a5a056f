package cli

import (
	"fmt"

	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Language, type and scope distribution reports",
	Long: `Compute language, commit-type and commit-scope distributions for a dataset
and write them as a text report plus CSV breakdowns.

Expects the type/scope columns produced by "ccsminer extract"; rows without
them land in the None bucket.

Examples:
  ccsminer stats --input splits/ccs_commits_full.parquet --output-dir stats
  ccsminer stats --input commits_final.parquet --output-dir stats --top-n 20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		rows, err := dataset.ReadCommits(cfg.Dataset.Input)
		if err != nil {
			return err
		}

		stats := report.Collect(rows)
		out := cmd.OutOrStdout()
		report.Section(out, "Dataset statistics")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Total records", stats.TotalCommits)
		fmt.Fprintln(out)
		stats.WriteText(out, cfg.Filter.TopN)

		paths, err := stats.WriteFiles(cfg.Split.OutputDir, cfg.Filter.TopN)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		for _, p := range paths {
			report.KV(out, "Written", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input dataset file (required)")
	statsCmd.Flags().StringVar(&cfg.Split.OutputDir, flags.FlagOutputDir, "", "Directory for the report and CSV files (required)")
	statsCmd.Flags().IntVar(&cfg.Filter.TopN, flags.FlagTopN, cfg.Filter.TopN, "How many buckets to show in ranked distributions")
	mustMarkRequired(statsCmd, flags.FlagInput, flags.FlagOutputDir)
}
