package cli

import (
	"fmt"

	"ccsminer/internal/ccs"
	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Classify every commit and add the is_CCS column",
	Long: `Classify every commit message against the Conventional Commits subject-line
grammar and write the dataset back with an added is_CCS column (1 compliant,
0 not).

Classification inspects only the first line of the message. Malformed or
empty messages are labeled non-compliant, never skipped.

Examples:
  ccsminer label --input commits.parquet --output commits_labeled.parquet`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		rows, err := dataset.ReadCommits(cfg.Dataset.Input)
		if err != nil {
			return err
		}

		compliant := 0
		for i := range rows {
			ok := ccs.Classify(rows[i].Message)
			rows[i].IsCCS = dataset.Label(ok)
			if ok {
				compliant++
			}
		}

		if err := dataset.WriteCommits(cfg.Dataset.Output, rows); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Label: subject-line classification")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output", cfg.Dataset.Output)
		report.KV(out, "Total commits", len(rows))
		report.Countf(out, "Compliant", compliant, len(rows))
		report.Countf(out, "Non-compliant", len(rows)-compliant, len(rows))
		report.KV(out, "Repositories", len(dataset.UniqueRepos(rows)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)

	labelCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input dataset file (required)")
	labelCmd.Flags().StringVar(&cfg.Dataset.Output, flags.FlagOutput, "", "Output dataset file (required)")
	mustMarkRequired(labelCmd, flags.FlagInput, flags.FlagOutput)
}

func mustMarkRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("cli: mark %s required on %s: %v", name, cmd.Name(), err))
		}
	}
}
