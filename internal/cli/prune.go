package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ccsminer/internal/adoption"
	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop repositories without a single compliant commit",
	Long: `Drop every repository that does not contain at least one compliant commit.

Repositories passing this self-consistency check keep ALL their commits,
compliant or not; the positive examples need genuinely mixed repositories
around them. A per-repo breakdown is written as a JSON analysis artifact.

The input must carry the is_CCS column (run "ccsminer label" first).

Examples:
  ccsminer prune --input commits_labeled.parquet --output commits_pruned.parquet`,
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
		kept := adoption.FilterSelfConsistent(rows, stats)
		trueCCS := len(adoption.SelfConsistentRepos(stats))

		if err := dataset.WriteCommits(cfg.Dataset.Output, kept); err != nil {
			return err
		}

		analysisPath := analysisPathFor(cfg.Dataset.Analysis, cfg.Dataset.Output, "repo_ccs_analysis.json")
		analysis := adoption.PruneAnalysis{
			Timestamp: adoption.Now(),
			Statistics: adoption.PruneStatistics{
				TotalRecords:    len(rows),
				FilteredRecords: len(kept),
				RemovedRecords:  len(rows) - len(kept),
				TotalRepos:      len(stats),
				TrueCCSRepos:    trueCCS,
				FalseCCSRepos:   len(stats) - trueCCS,
			},
			RepoDetails: stats,
		}
		if err := adoption.WriteArtifact(analysisPath, analysis); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Prune: repository self-consistency")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output", cfg.Dataset.Output)
		report.KV(out, "Analysis", analysisPath)
		report.Countf(out, "Commits kept", len(kept), len(rows))
		report.Countf(out, "Repositories kept", trueCCS, len(stats))
		return nil
	},
}

// analysisPathFor derives the analysis artifact path next to the stage
// output when no explicit --analysis path is given.
func analysisPathFor(explicit, output, defaultName string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return filepath.Join(filepath.Dir(output), defaultName)
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input labeled dataset file (required)")
	pruneCmd.Flags().StringVar(&cfg.Dataset.Output, flags.FlagOutput, "", "Output dataset file (required)")
	pruneCmd.Flags().StringVar(&cfg.Dataset.Analysis, flags.FlagAnalysis, "", fmt.Sprintf("Analysis artifact path (default: repo_ccs_analysis.json next to --%s)", flags.FlagOutput))
	mustMarkRequired(pruneCmd, flags.FlagInput, flags.FlagOutput)
}
