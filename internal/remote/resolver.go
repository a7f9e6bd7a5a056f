package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const defaultResolveBackoff = 30 * time.Second

// AdoptionDateResolver pins down when a repository adopted the convention:
// the author date of the earliest commit whose diff adds the keyword to one
// of the files that mention it today.
type AdoptionDateResolver struct {
	search  CodeSearchClient
	history HistoryClient
	keyword string
	backoff time.Duration
	logw    io.Writer

	sleep func(ctx context.Context, d time.Duration) error
}

func NewAdoptionDateResolver(search CodeSearchClient, history HistoryClient, keyword string, logw io.Writer) *AdoptionDateResolver {
	if keyword == "" {
		keyword = Keyword
	}
	if logw == nil {
		logw = io.Discard
	}
	return &AdoptionDateResolver{
		search:  search,
		history: history,
		keyword: keyword,
		backoff: defaultResolveBackoff,
		logw:    logw,
	}
}

// ResolveAdoptionDate returns the adoption date for repo, or nil when the
// repository has no files mentioning the keyword. A nil date with a nil
// error means "no adoption evidence"; callers keep the repository's full
// history in that case.
//
// Transient API failures are retried indefinitely with a fixed backoff,
// bounded only by ctx. ErrNotFound is definitive: the repository (or a
// commit of it) is gone, and the caller should skip it.
func (r *AdoptionDateResolver) ResolveAdoptionDate(ctx context.Context, repo string) (*time.Time, error) {
	result, err := r.searchKeyword(ctx, repo)
	if err != nil {
		return nil, err
	}
	if result.TotalCount == 0 || len(result.Paths) == 0 {
		return nil, nil
	}

	var earliest *time.Time
	for _, path := range result.Paths {
		introduced, err := r.traceIntroduction(ctx, repo, path)
		if err != nil {
			return nil, err
		}
		if introduced == nil {
			continue
		}
		if earliest == nil || introduced.Before(*earliest) {
			earliest = introduced
		}
	}
	return earliest, nil
}

func (r *AdoptionDateResolver) searchKeyword(ctx context.Context, repo string) (CodeSearchResult, error) {
	var out CodeSearchResult
	err := r.retry(ctx, fmt.Sprintf("search %s", repo), func() error {
		result, err := r.search.SearchCode(ctx, repo, r.keyword)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

// traceIntroduction walks the history of one file, oldest commit first, and
// returns the author date of the first commit whose diff adds the keyword.
// When no diff shows the addition (squashes, renames), it falls back to the
// file's oldest commit.
func (r *AdoptionDateResolver) traceIntroduction(ctx context.Context, repo, path string) (*time.Time, error) {
	commits, err := r.fileHistory(ctx, repo, path)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, nil
	}

	// ListCommits pages are newest first; walk from the tail for the
	// chronologically earliest introduction.
	for i := len(commits) - 1; i >= 0; i-- {
		commit := commits[i]

		var diff string
		err := r.retry(ctx, fmt.Sprintf("diff %s@%s", repo, shortSHA(commit.SHA)), func() error {
			d, err := r.history.CommitDiff(ctx, repo, commit.SHA)
			if err != nil {
				return err
			}
			diff = d
			return nil
		})
		if err != nil {
			return nil, err
		}

		if diffAddsKeyword(diff, r.keyword) {
			date := commit.AuthorDate
			return &date, nil
		}
	}

	oldest := commits[len(commits)-1].AuthorDate
	return &oldest, nil
}

func (r *AdoptionDateResolver) fileHistory(ctx context.Context, repo, path string) ([]CommitMeta, error) {
	var all []CommitMeta
	for page := 1; ; page++ {
		var batch []CommitMeta
		err := r.retry(ctx, fmt.Sprintf("history %s:%s page %d", repo, path, page), func() error {
			commits, err := r.history.ListCommits(ctx, repo, path, page, historyPageSize)
			if err != nil {
				return err
			}
			batch = commits
			return nil
		})
		if err != nil {
			return nil, err
		}

		all = append(all, batch...)
		if len(batch) < historyPageSize {
			return all, nil
		}
	}
}

// retry runs fn until it succeeds, sleeping a fixed backoff between
// attempts. Context cancellation and ErrNotFound stop the retry loop.
func (r *AdoptionDateResolver) retry(ctx context.Context, op string, fn func() error) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		fmt.Fprintf(r.logw, "%s: %v; retrying in %s\n", op, err, r.backoff)
		if serr := sleep(ctx, r.backoff); serr != nil {
			return serr
		}
	}
}

// diffAddsKeyword reports whether a unified diff contains an added line
// mentioning the keyword. "+++" file headers are not additions.
func diffAddsKeyword(diff, keyword string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
