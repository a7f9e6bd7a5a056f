package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"ccsminer/internal/adoption"
	"ccsminer/internal/dataset"
	"ccsminer/internal/flags"
	"ccsminer/internal/remote"
	"ccsminer/internal/report"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Confirm convention adoption via GitHub code search",
	Long: `Confirm that each repository genuinely adopted the convention by searching
its files for the convention keyword on GitHub. Only commits of repositories
with a positive verdict are kept.

Verdicts persist to a JSON cache after every repository, so an interrupted
run resumes where it stopped; repositories that vanished from GitHub and
search failures yield negative verdicts rather than aborting the stage.

On SIGINT/SIGTERM the stage stops, flushes the verdict cache and writes the
partial filtered output.

Authentication:
  A GitHub token is required: GITHUB_TOKEN, or GitHub CLI login (gh auth login).

Examples:
  ccsminer verify --input commits_ccs.parquet --output commits_verified.parquet --cache repo_cache_keyword.json
  ccsminer verify --input commits_ccs.parquet --output commits_verified.parquet --cache cache.json --concurrency 3`,
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

		cache, err := adoption.LoadVerdictCache(cfg.Remote.CachePath, cfg.Remote.Keyword)
		if err != nil {
			return err
		}

		ctx, stop := stageContext()
		defer stop()

		backend, err := newRemoteBackend(ctx)
		if err != nil {
			return err
		}
		verifier := remote.NewKeywordVerifier(backend, cfg.Remote.Keyword, os.Stderr)
		verifier.Seed(cache.Verdicts)

		var pending []string
		for _, repo := range repos {
			if _, ok := cache.Get(repo); !ok {
				pending = append(pending, repo)
			}
		}

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Remote.Concurrency)
		for _, repo := range pending {
			repo := repo
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				verdict := verifier.Verify(gctx, repo)
				if gctx.Err() != nil {
					return gctx.Err()
				}

				mu.Lock()
				defer mu.Unlock()
				cache.Set(repo, verdict)
				return cache.Save()
			})
		}

		interrupted := false
		if err := g.Wait(); err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			interrupted = true
			fmt.Fprintln(os.Stderr, "interrupted; flushing verdict cache and partial output")
		}

		// The verifier holds every verdict of this run, seeded or fresh;
		// flush them all so the cache is complete even if a per-repo save
		// raced the interrupt.
		verdicts := verifier.Verdicts()
		for repo, verdict := range verdicts {
			cache.Set(repo, verdict)
		}
		if err := cache.Save(); err != nil {
			return err
		}

		verified := make(map[string]struct{})
		for repo, verdict := range verdicts {
			if verdict {
				verified[repo] = struct{}{}
			}
		}
		kept := adoption.FilterByRepoSet(rows, verified)
		if err := dataset.WriteCommits(cfg.Dataset.Output, kept); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report.Section(out, "Verify: keyword adoption check")
		report.KV(out, "Input", cfg.Dataset.Input)
		report.KV(out, "Output", cfg.Dataset.Output)
		report.KV(out, "Cache", cfg.Remote.CachePath)
		report.KV(out, "Keyword", cfg.Remote.Keyword)
		report.Countf(out, "Repositories verified", len(verified), len(repos))
		report.Countf(out, "Commits kept", len(kept), len(rows))
		if interrupted {
			report.KV(out, "Status", "interrupted (partial output)")
			return fmt.Errorf("verify interrupted after %d of %d repositories", len(cache.Verdicts), len(repos))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&cfg.Dataset.Input, flags.FlagInput, "", "Input dataset file (required)")
	verifyCmd.Flags().StringVar(&cfg.Dataset.Output, flags.FlagOutput, "", "Output dataset file (required)")
	verifyCmd.Flags().StringVar(&cfg.Remote.CachePath, flags.FlagCache, "", "Verdict cache file, persisted after every repository (required)")
	verifyCmd.Flags().StringVar(&cfg.Remote.Keyword, flags.FlagKeyword, cfg.Remote.Keyword, "Keyword searched for in repository files")
	verifyCmd.Flags().DurationVar(&cfg.Remote.MinInterval, flags.FlagMinInterval, cfg.Remote.MinInterval, "Minimum spacing between GitHub API requests")
	verifyCmd.Flags().IntVar(&cfg.Remote.Concurrency, flags.FlagConcurrency, cfg.Remote.Concurrency, "Repositories verified in parallel over the shared request budget")
	verifyCmd.Flags().DurationVar(&cfg.Remote.Timeout, flags.FlagTimeout, 0, "Overall stage timeout (0 = none)")
	mustMarkRequired(verifyCmd, flags.FlagInput, flags.FlagOutput, flags.FlagCache)
}
