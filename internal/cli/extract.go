package cli

import (
	"errors"
	"fmt"

	"ccsminer/internal/adoption"
	"ccsminer/internal/ccs"
	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Keep compliant commits of high-compliance repositories",
	Long: `Keep only the compliant commits of repositories whose compliance rate is
strictly above the threshold, then parse each kept subject line into
commit_type and commit_scope columns.

A repository at exactly the threshold is excluded. Subject lines the strict
parser rejects (unbalanced scope parentheses, missing delimiter) keep empty
type and scope columns.

Examples:
  ccsminer extract --input commits_pruned.parquet --output commits_ccs.parquet
  ccsminer extract --input commits_pruned.parquet --output commits_ccs.parquet --min-rate 0.9`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		rows, err := dataset.ReadCommits(cfg.Dataset.Input)
		if err != nil {
			return err
		}
		if !dataset.HasComplianceColumn(rows) {
			return errors.New("input has no is_CCS column; run \"ccsminer label\" first")
		}

		stats := adoption.BuildRepoStats(rows)
		highRate := adoption.HighRateRepos(stats, cfg.Filter.MinRate)
		kept := adoption.FilterHighRate(rows, stats, cfg.Filter.MinRate)

		parsed := 0
		for i := range kept {
			typ, scope := ccs.Parse(kept[i].Message)
			if typ == "" {
				continue
			}
			parsed++
			t, s := typ, scope
			kept[i].CommitType = &t
			if s != "" {
				kept[i].CommitScope = &s
			}
		}

		if err := dataset.WriteCommits(cfg.Dataset.Output, kept); err != nil {
			return err
		}

		highRateStats := make(map[string]adoption.RepoStats, len(highRate))
		for repo := range highRate {
			highRateStats[repo] = stats[repo]
		}
		analysisPath := analysisPathFor(cfg.Dataset.Analysis, cfg.Dataset.Output, "ccs_extract_analysis.json")
		analysis := adoption.ExtractAnalysis{
			Timestamp: adoption.Now(),
			FilterCriteria: adoption.FilterCriteria{
				MinRate:     cfg.Filter.MinRate,
				Description: fmt.Sprintf("repositories with compliance rate strictly above %.2f, compliant commits only", cfg.Filter.MinRate),
			},
			Statistics: adoption.ExtractStatistics{
				TotalRepos:    len(stats),
				FilteredRepos: len(highRate),
				RemovedRepos:  len(stats) - len(highRate),
				TotalCommits:  len(kept),
			},
			HighRateRepos: highRateStats,
		}
		if err := adoption.WriteArtifact(analysisPath, analysis); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Extract: compliance-rate threshold")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output", cfg.Dataset.Output)
		report.KV(out, "Analysis", analysisPath)
		report.KV(out, "Min rate (exclusive)", cfg.Filter.MinRate)
		report.Countf(out, "Repositories kept", len(highRate), len(stats))
		report.KV(out, "Commits kept", len(kept))
		report.Countf(out, "Subjects parsed", parsed, len(kept))

		top := adoption.TopByRate(stats, highRate, cfg.Filter.TopN)
		if len(top) > 0 {
			fmt.Fprintf(out, "\nTop %d repositories by compliance rate:\n", len(top))
			for _, repo := range top {
				s := stats[repo]
				fmt.Fprintf(out, "  %-40s rate=%.4f commits=%d\n", repo, s.ComplianceRate, s.TotalCommits)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input labeled dataset file (required)")
	extractCmd.Flags().StringVar(&cfg.Dataset.Output, flags.FlagOutput, "", "Output dataset file (required)")
	extractCmd.Flags().StringVar(&cfg.Dataset.Analysis, flags.FlagAnalysis, "", fmt.Sprintf("Analysis artifact path (default: ccs_extract_analysis.json next to --%s)", flags.FlagOutput))
	extractCmd.Flags().Float64Var(&cfg.Filter.MinRate, flags.FlagMinRate, cfg.Filter.MinRate, "Compliance-rate threshold, exclusive (default: 0.8)")
	extractCmd.Flags().IntVar(&cfg.Filter.TopN, flags.FlagTopN, cfg.Filter.TopN, "How many top repositories to list in the summary")
	mustMarkRequired(extractCmd, flags.FlagInput, flags.FlagOutput)
}
