package remote

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Keyword is the marker searched for in repository files to confirm a
// project has actually adopted the convention rather than matching its
// message grammar by accident.
const Keyword = "conventionalcommits.org"

// KeywordVerifier decides, per repository, whether its files mention the
// keyword. Verdicts are memoized for the lifetime of the verifier and
// concurrent lookups for the same repository are collapsed into one API
// call.
//
// Lookups degrade rather than fail: a missing repository or a search error
// yields a negative verdict, so a long run never stalls on one bad repo.
type KeywordVerifier struct {
	search  CodeSearchClient
	keyword string
	logw    io.Writer

	group singleflight.Group

	mu       sync.Mutex
	verdicts map[string]bool
}

func NewKeywordVerifier(search CodeSearchClient, keyword string, logw io.Writer) *KeywordVerifier {
	if keyword == "" {
		keyword = Keyword
	}
	if logw == nil {
		logw = io.Discard
	}
	return &KeywordVerifier{
		search:   search,
		keyword:  keyword,
		logw:     logw,
		verdicts: make(map[string]bool),
	}
}

// Keyword returns the keyword this verifier searches for.
func (v *KeywordVerifier) Keyword() string {
	return v.keyword
}

// Seed preloads verdicts from a persisted cache so already-verified
// repositories are never re-queried across runs.
func (v *KeywordVerifier) Seed(verdicts map[string]bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for repo, verdict := range verdicts {
		v.verdicts[repo] = verdict
	}
}

// Verdicts returns a copy of all verdicts recorded so far.
func (v *KeywordVerifier) Verdicts() map[string]bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]bool, len(v.verdicts))
	for repo, verdict := range v.verdicts {
		out[repo] = verdict
	}
	return out
}

// Verify reports whether the repository mentions the keyword. The verdict is
// cached; only the first call per repository hits the API.
func (v *KeywordVerifier) Verify(ctx context.Context, repo string) bool {
	v.mu.Lock()
	if verdict, ok := v.verdicts[repo]; ok {
		v.mu.Unlock()
		return verdict
	}
	v.mu.Unlock()

	result, _, _ := v.group.Do(repo, func() (interface{}, error) {
		verdict := v.lookup(ctx, repo)
		v.mu.Lock()
		v.verdicts[repo] = verdict
		v.mu.Unlock()
		return verdict, nil
	})
	return result.(bool)
}

func (v *KeywordVerifier) lookup(ctx context.Context, repo string) bool {
	exists, err := v.search.RepoExists(ctx, repo)
	if err != nil {
		fmt.Fprintf(v.logw, "verify %s: repo lookup failed: %v\n", repo, err)
		return false
	}
	if !exists {
		fmt.Fprintf(v.logw, "verify %s: repository no longer exists\n", repo)
		return false
	}

	result, err := v.search.SearchCode(ctx, repo, v.keyword)
	if err != nil {
		fmt.Fprintf(v.logw, "verify %s: code search failed: %v\n", repo, err)
		return false
	}
	return result.TotalCount > 0
}
