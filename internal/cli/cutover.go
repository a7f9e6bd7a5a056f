package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ccsminer/internal/adoption"
	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/remote"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
)

var cutoverCmd = &cobra.Command{
	Use:   "cutover",
	Short: "Trim commits older than each repository's adoption date",
	Long: `Resolve the date each repository adopted the convention and drop its commits
dated strictly before that point. A commit at exactly the adoption instant is
kept.

The adoption date is the author date of the earliest commit whose diff adds
the convention keyword to a file that mentions it today. Repositories without
any keyword evidence keep their full history; repositories that vanished from
GitHub are skipped.

Adoption metadata persists to a JSON cache after every repository, so an
interrupted run resumes where it stopped. On SIGINT/SIGTERM the stage stops
and writes the partial filtered output.

Examples:
  ccsminer cutover --input commits_verified.parquet --output commits_final.parquet --cache repo_metadata.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		rows, err := dataset.ReadCommits(cfg.Dataset.Input)
		if err != nil {
			return err
		}
		repos := dataset.UniqueRepos(rows)
		byRepo := make(map[string][]dataset.CommitRecord, len(repos))
		for _, r := range rows {
			byRepo[r.Repo] = append(byRepo[r.Repo], r)
		}

		cache, err := adoption.LoadMetadataCache(cfg.Remote.CachePath)
		if err != nil {
			return err
		}

		ctx, stop := stageContext()
		defer stop()

		backend, err := newRemoteBackend(ctx)
		if err != nil {
			return err
		}
		resolver := remote.NewAdoptionDateResolver(backend, backend, cfg.Remote.Keyword, os.Stderr)

		var kept []dataset.CommitRecord
		interrupted := false
		processed, skipped := 0, 0

		for _, repo := range repos {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			repoRows := byRepo[repo]

			meta, cached := cache.Get(repo)
			if !cached {
				date, err := resolver.ResolveAdoptionDate(ctx, repo)
				switch {
				case errors.Is(err, remote.ErrNotFound):
					fmt.Fprintf(os.Stderr, "cutover %s: repository gone, dropping its commits\n", repo)
					skipped++
					continue
				case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
					interrupted = true
				case err != nil:
					return fmt.Errorf("cutover %s: %w", repo, err)
				}
				if interrupted {
					break
				}

				cache.SetAdoption(repo, date, len(repoRows))
				meta, _ = cache.Get(repo)
			}

			filtered, err := adoption.ApplyCutover(repoRows, meta)
			if err != nil {
				return fmt.Errorf("cutover %s: %w", repo, err)
			}
			kept = append(kept, filtered...)
			processed++

			if err := cache.Save(); err != nil {
				return err
			}
		}

		if interrupted {
			fmt.Fprintln(os.Stderr, "interrupted; flushing metadata cache and partial output")
			if err := cache.Save(); err != nil {
				return err
			}
		}

		if err := dataset.WriteCommits(cfg.Dataset.Output, kept); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Cutover: adoption-date trim")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output", cfg.Dataset.Output)
		report.KV(out, "Cache", cfg.Remote.CachePath)
		report.Countf(out, "Repositories processed", processed, len(repos))
		if skipped > 0 {
			report.KV(out, "Repositories gone", skipped)
		}
		report.Countf(out, "Commits kept", len(kept), len(rows))
		if interrupted {
			report.KV(out, "Status", "interrupted (partial output)")
			return fmt.Errorf("cutover interrupted after %d of %d repositories", processed, len(repos))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cutoverCmd)

	cutoverCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input dataset file (required)")
	cutoverCmd.Flags().StringVar(&cfg.Dataset.Output, flags.FlagOutput, "", "Output dataset file (required)")
	cutoverCmd.Flags().StringVar(&cfg.Remote.CachePath, flags.FlagCache, "", "Adoption metadata cache file, persisted after every repository (required)")
	cutoverCmd.Flags().StringVar(&cfg.Remote.Keyword, flags.FlagKeyword, cfg.Remote.Keyword, "Keyword whose introduction marks adoption")
	cutoverCmd.Flags().DurationVar(&cfg.Remote.MinInterval, flags.FlagMinInterval, cfg.Remote.MinInterval, "Minimum spacing between GitHub API requests")
	cutoverCmd.Flags().DurationVar(&cfg.Remote.Timeout, flags.FlagTimeout, 0, "Overall stage timeout (0 = none)")
	mustMarkRequired(cutoverCmd, flags.FlagInput, flags.FlagOutput, flags.FlagCache)
}
