package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
)

// ErrNotFound reports that a repository (or one of its commits) is gone on
// the remote side: deleted, renamed, or made private. Callers treat this as
// a definitive answer, not a transient failure.
var ErrNotFound = errors.New("remote: not found")

const (
	searchPageSize  = 100
	historyPageSize = 100
)

// CodeSearchResult is the outcome of a keyword code search, scoped to one
// repository.
type CodeSearchResult struct {
	TotalCount int
	// Paths lists the matched file paths on the first result page, the files
	// most relevant to the keyword.
	Paths []string
}

// CommitMeta is the subset of commit metadata the adoption tracer needs.
type CommitMeta struct {
	SHA        string
	AuthorDate time.Time
}

// CodeSearchClient answers whether a repository still exists and whether its
// files mention a keyword.
type CodeSearchClient interface {
	RepoExists(ctx context.Context, repo string) (bool, error)
	SearchCode(ctx context.Context, repo, keyword string) (CodeSearchResult, error)
}

// HistoryClient walks a repository's commit history and fetches diffs.
type HistoryClient interface {
	// ListCommits returns one page of commits touching path (most recent
	// first, GitHub's native order). An empty path means the whole tree.
	ListCommits(ctx context.Context, repo, path string, page, perPage int) ([]CommitMeta, error)
	// CommitDiff returns the unified diff of a single commit.
	CommitDiff(ctx context.Context, repo, sha string) (string, error)
}

// GitHub implements CodeSearchClient and HistoryClient against the GitHub
// REST API, with every call gated by a shared request budget and retried
// through rate-limit windows.
type GitHub struct {
	client *Client
	budget *RequestBudget

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

var (
	_ CodeSearchClient = (*GitHub)(nil)
	_ HistoryClient    = (*GitHub)(nil)
)

func NewGitHub(client *Client, budget *RequestBudget) *GitHub {
	return &GitHub{
		client: client,
		budget: budget,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// SplitRepo splits an "owner/name" slug.
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("remote: invalid repository slug %q (want owner/name)", repo)
	}
	return owner, name, nil
}

func (g *GitHub) RepoExists(ctx context.Context, repo string) (bool, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return false, err
	}

	err = g.withRetry(ctx, func() (*github.Response, error) {
		_, resp, err := g.client.GH.Repositories.Get(ctx, owner, name)
		return resp, err
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *GitHub) SearchCode(ctx context.Context, repo, keyword string) (CodeSearchResult, error) {
	if _, _, err := SplitRepo(repo); err != nil {
		return CodeSearchResult{}, err
	}

	query := fmt.Sprintf("%q repo:%s", keyword, repo)
	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: searchPageSize},
	}

	var out CodeSearchResult
	err := g.withRetry(ctx, func() (*github.Response, error) {
		result, resp, err := g.client.GH.Search.Code(ctx, query, opts)
		if err != nil {
			return resp, err
		}
		out = CodeSearchResult{TotalCount: result.GetTotal()}
		for _, match := range result.CodeResults {
			if p := match.GetPath(); p != "" {
				out.Paths = append(out.Paths, p)
			}
		}
		return resp, nil
	})
	if err != nil {
		return CodeSearchResult{}, err
	}
	return out, nil
}

func (g *GitHub) ListCommits(ctx context.Context, repo, path string, page, perPage int) ([]CommitMeta, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	if perPage <= 0 {
		perPage = historyPageSize
	}

	opts := &github.CommitsListOptions{
		Path: path,
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	var out []CommitMeta
	err = g.withRetry(ctx, func() (*github.Response, error) {
		commits, resp, err := g.client.GH.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return resp, err
		}
		out = out[:0]
		for _, c := range commits {
			out = append(out, CommitMeta{
				SHA:        c.GetSHA(),
				AuthorDate: c.GetCommit().GetAuthor().GetDate().Time,
			})
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *GitHub) CommitDiff(ctx context.Context, repo, sha string) (string, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return "", err
	}

	var diff string
	err = g.withRetry(ctx, func() (*github.Response, error) {
		raw, resp, err := g.client.GH.Repositories.GetCommitRaw(ctx, owner, name, sha, github.RawOptions{Type: github.Diff})
		if err != nil {
			return resp, err
		}
		diff = raw
		return resp, nil
	})
	if err != nil {
		return "", err
	}
	return diff, nil
}

// withRetry runs one API call under the request budget. Rate-limit rejections
// (primary and secondary) are slept through and retried; a 404 becomes
// ErrNotFound; everything else is returned as-is.
func (g *GitHub) withRetry(ctx context.Context, call func() (*github.Response, error)) error {
	for {
		if err := g.budget.Acquire(ctx); err != nil {
			return err
		}

		resp, err := call()
		if resp != nil {
			g.budget.UpdateFromResponse(resp.Response)
		}
		if err == nil {
			return nil
		}

		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}

		wait, retryable := g.retryDelay(resp, err)
		if !retryable {
			return err
		}
		g.budget.CooldownUntil(g.now().Add(wait))
		if serr := g.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
}

// retryDelay classifies a failed call. It returns how long to wait before
// retrying, or retryable=false for errors that won't heal with time.
func (g *GitHub) retryDelay(resp *github.Response, err error) (time.Duration, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		wait := rle.Rate.Reset.Time.Sub(g.now()) + time.Second
		if wait < time.Second {
			wait = time.Second
		}
		return wait, true
	}

	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		wait := time.Minute
		if abuse.RetryAfter != nil && *abuse.RetryAfter > 0 {
			wait = *abuse.RetryAfter
		}
		return wait, true
	}

	// Secondary limits sometimes arrive as a bare 403 carrying only the
	// reset header.
	if resp != nil && resp.StatusCode == http.StatusForbidden {
		if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
			if unix, perr := strconv.ParseInt(reset, 10, 64); perr == nil && unix > 0 {
				wait := time.Unix(unix, 0).Sub(g.now()) + time.Second
				if wait < time.Second {
					wait = time.Second
				}
				return wait, true
			}
		}
	}

	return 0, false
}
