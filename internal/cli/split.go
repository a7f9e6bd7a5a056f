package cli

import (
	"fmt"
	"path/filepath"

	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/report"
	"ccsminer/internal/split"

	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Chronological train/valid/test split with common-repo intersection",
	Long: `Sort the dataset chronologically, cut it into train/valid/test portions by
ratio, and keep only repositories that appear in all three portions. The
intersection keeps every repository's style visible at training, validation
and test time.

Four files are written to the output directory:
  ccs_commits_train.parquet
  ccs_commits_valid.parquet
  ccs_commits_test.parquet
  ccs_commits_full.parquet   (the full dataset, common repos only)

Examples:
  ccsminer split --input commits_final.parquet --output-dir splits
  ccsminer split --input commits_final.parquet --output-dir splits --train-ratio 0.7 --valid-ratio 0.15`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		rows, err := dataset.ReadCommits(cfg.Dataset.Input)
		if err != nil {
			return err
		}

		ratios := split.Ratios{Train: cfg.Split.TrainRatio, Valid: cfg.Split.ValidRatio}
		train, valid, test, err := split.ByTime(rows, ratios)
		if err != nil {
			return err
		}

		common := split.CommonRepos(train, valid, test)
		train = split.Filter(train, common)
		valid = split.Filter(valid, common)
		test = split.Filter(test, common)
		full := split.Filter(rows, common)

		outputs := []struct {
			name string
			rows []dataset.CommitRecord
		}{
			{"ccs_commits_train.parquet", train},
			{"ccs_commits_valid.parquet", valid},
			{"ccs_commits_test.parquet", test},
			{"ccs_commits_full.parquet", full},
		}
		for _, o := range outputs {
			if err := dataset.WriteCommits(filepath.Join(cfg.Split.OutputDir, o.name), o.rows); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Split: chronological partition")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output directory", cfg.Split.OutputDir)
		fmt.Fprintf(out, "Ratios: train=%.0f%% valid=%.0f%% test=%.0f%%\n",
			ratios.Train*100, ratios.Valid*100, (1-ratios.Train-ratios.Valid)*100)
		report.KV(out, "Common repositories", len(common))
		report.Countf(out, "Train commits", len(train), len(rows))
		report.Countf(out, "Valid commits", len(valid), len(rows))
		report.Countf(out, "Test commits", len(test), len(rows))
		report.Countf(out, "Full (common repos)", len(full), len(rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input dataset file (required)")
	splitCmd.Flags().StringVar(&cfg.Split.OutputDir, flags.FlagOutputDir, "", "Directory for the split files (required)")
	splitCmd.Flags().Float64Var(&cfg.Split.TrainRatio, flags.FlagTrainRatio, cfg.Split.TrainRatio, "Training portion of the chronologically ordered dataset")
	splitCmd.Flags().Float64Var(&cfg.Split.ValidRatio, flags.FlagValidRatio, cfg.Split.ValidRatio, "Validation portion; the remainder becomes the test portion")
	mustMarkRequired(splitCmd, flags.FlagInput, flags.FlagOutputDir)
}
