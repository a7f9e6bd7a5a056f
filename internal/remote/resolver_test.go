package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeHistory serves canned commit pages and diffs keyed by file path and
// SHA. Pages are stored newest first, mirroring the live API.
type fakeHistory struct {
	commits map[string][]CommitMeta // path -> commits, newest first
	diffs   map[string]string       // sha -> unified diff

	diffErrs  map[string]error
	diffCalls []string
}

func (f *fakeHistory) ListCommits(_ context.Context, _ string, path string, page, perPage int) ([]CommitMeta, error) {
	all := f.commits[path]
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeHistory) CommitDiff(_ context.Context, _ string, sha string) (string, error) {
	f.diffCalls = append(f.diffCalls, sha)
	if err := f.diffErrs[sha]; err != nil {
		return "", err
	}
	return f.diffs[sha], nil
}

func date(day int) time.Time {
	return time.Date(2023, time.March, day, 12, 0, 0, 0, time.UTC)
}

func addingDiff(keyword string) string {
	return "--- a/README.md\n+++ b/README.md\n@@\n+see " + keyword + " for the rules\n"
}

func TestResolveAdoptionDate(t *testing.T) {
	ctx := context.Background()

	t.Run("no keyword hits means no adoption date", func(t *testing.T) {
		r := NewAdoptionDateResolver(&fakeSearch{exists: map[string]bool{"acme/app": true}}, &fakeHistory{}, "", nil)

		got, err := r.ResolveAdoptionDate(ctx, "acme/app")
		if err != nil {
			t.Fatalf("ResolveAdoptionDate failed: %v", err)
		}
		if got != nil {
			t.Fatalf("Expected nil adoption date, got %v", got)
		}
	})

	t.Run("earliest adding commit wins", func(t *testing.T) {
		search := &fakeSearch{results: map[string]CodeSearchResult{
			"acme/app": {TotalCount: 1, Paths: []string{"README.md"}},
		}}
		history := &fakeHistory{
			commits: map[string][]CommitMeta{
				"README.md": {
					{SHA: "c3", AuthorDate: date(30)},
					{SHA: "c2", AuthorDate: date(20)},
					{SHA: "c1", AuthorDate: date(10)},
				},
			},
			diffs: map[string]string{
				"c1": "--- a/README.md\n+++ b/README.md\n@@\n+initial readme\n",
				"c2": addingDiff(Keyword),
				"c3": addingDiff(Keyword),
			},
		}
		r := NewAdoptionDateResolver(search, history, "", nil)

		got, err := r.ResolveAdoptionDate(ctx, "acme/app")
		if err != nil {
			t.Fatalf("ResolveAdoptionDate failed: %v", err)
		}
		if got == nil || !got.Equal(date(20)) {
			t.Fatalf("Expected %v, got %v", date(20), got)
		}
		// Oldest-first walk stops at the first adding commit.
		if len(history.diffCalls) != 2 || history.diffCalls[0] != "c1" || history.diffCalls[1] != "c2" {
			t.Fatalf("Expected diff walk [c1 c2], got %v", history.diffCalls)
		}
	})

	t.Run("falls back to oldest commit when no diff adds the keyword", func(t *testing.T) {
		search := &fakeSearch{results: map[string]CodeSearchResult{
			"acme/app": {TotalCount: 1, Paths: []string{"docs/contributing.md"}},
		}}
		history := &fakeHistory{
			commits: map[string][]CommitMeta{
				"docs/contributing.md": {
					{SHA: "b2", AuthorDate: date(15)},
					{SHA: "b1", AuthorDate: date(5)},
				},
			},
			diffs: map[string]string{
				"b1": "+++ b/docs/contributing.md\n+unrelated\n",
				"b2": "+++ b/docs/contributing.md\n+still unrelated\n",
			},
		}
		r := NewAdoptionDateResolver(search, history, "", nil)

		got, err := r.ResolveAdoptionDate(ctx, "acme/app")
		if err != nil {
			t.Fatalf("ResolveAdoptionDate failed: %v", err)
		}
		if got == nil || !got.Equal(date(5)) {
			t.Fatalf("Expected fallback to oldest commit %v, got %v", date(5), got)
		}
	})

	t.Run("minimum across multiple matched files", func(t *testing.T) {
		search := &fakeSearch{results: map[string]CodeSearchResult{
			"acme/app": {TotalCount: 2, Paths: []string{"README.md", "CONTRIBUTING.md"}},
		}}
		history := &fakeHistory{
			commits: map[string][]CommitMeta{
				"README.md":       {{SHA: "r1", AuthorDate: date(25)}},
				"CONTRIBUTING.md": {{SHA: "k1", AuthorDate: date(12)}},
			},
			diffs: map[string]string{
				"r1": addingDiff(Keyword),
				"k1": addingDiff(Keyword),
			},
		}
		r := NewAdoptionDateResolver(search, history, "", nil)

		got, err := r.ResolveAdoptionDate(ctx, "acme/app")
		if err != nil {
			t.Fatalf("ResolveAdoptionDate failed: %v", err)
		}
		if got == nil || !got.Equal(date(12)) {
			t.Fatalf("Expected earliest across files %v, got %v", date(12), got)
		}
	})

	t.Run("paginates until a short page", func(t *testing.T) {
		var commits []CommitMeta
		for i := historyPageSize + 10; i >= 1; i-- {
			commits = append(commits, CommitMeta{SHA: shaN(i), AuthorDate: date(1).Add(time.Duration(i) * time.Minute)})
		}
		search := &fakeSearch{results: map[string]CodeSearchResult{
			"acme/app": {TotalCount: 1, Paths: []string{"README.md"}},
		}}
		history := &fakeHistory{
			commits: map[string][]CommitMeta{"README.md": commits},
			diffs:   map[string]string{shaN(1): addingDiff(Keyword)},
		}
		r := NewAdoptionDateResolver(search, history, "", nil)

		got, err := r.ResolveAdoptionDate(ctx, "acme/app")
		if err != nil {
			t.Fatalf("ResolveAdoptionDate failed: %v", err)
		}
		want := date(1).Add(time.Minute)
		if got == nil || !got.Equal(want) {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	})

	t.Run("not found is definitive", func(t *testing.T) {
		search := &fakeSearch{searchErr: ErrNotFound}
		r := NewAdoptionDateResolver(search, &fakeHistory{}, "", nil)

		_, err := r.ResolveAdoptionDate(ctx, "gone/repo")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("transient errors are retried", func(t *testing.T) {
		search := &fakeSearch{results: map[string]CodeSearchResult{
			"acme/app": {TotalCount: 1, Paths: []string{"README.md"}},
		}}
		history := &fakeHistory{
			commits: map[string][]CommitMeta{
				"README.md": {{SHA: "c1", AuthorDate: date(10)}},
			},
			diffs:    map[string]string{"c1": addingDiff(Keyword)},
			diffErrs: map[string]error{"c1": errors.New("transient")},
		}
		r := NewAdoptionDateResolver(search, history, "", nil)
		r.backoff = 0
		attempts := 0
		r.sleep = func(ctx context.Context, _ time.Duration) error {
			attempts++
			// Heal the fake after the first failure.
			history.diffErrs = nil
			return ctx.Err()
		}

		got, err := r.ResolveAdoptionDate(ctx, "acme/app")
		if err != nil {
			t.Fatalf("ResolveAdoptionDate failed: %v", err)
		}
		if got == nil || !got.Equal(date(10)) {
			t.Fatalf("Expected %v, got %v", date(10), got)
		}
		if attempts != 1 {
			t.Fatalf("Expected one retry sleep, got %d", attempts)
		}
	})
}

func shaN(i int) string {
	return fmt.Sprintf("sha-%03d", i)
}

func TestDiffAddsKeyword(t *testing.T) {
	cases := []struct {
		name string
		diff string
		want bool
	}{
		{"added line mentions keyword", "+uses conventionalcommits.org\n", true},
		{"file header is not an addition", "+++ b/conventionalcommits.org.md\n", false},
		{"removed line does not count", "-see conventionalcommits.org\n", false},
		{"context line does not count", " see conventionalcommits.org\n", false},
		{"empty diff", "", false},
		{
			"mixed hunk",
			"--- a/README.md\n+++ b/README.md\n@@ -1,2 +1,3 @@\n context\n-old line\n+new line with conventionalcommits.org badge\n",
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := diffAddsKeyword(tc.diff, Keyword); got != tc.want {
				t.Fatalf("diffAddsKeyword(%q) = %v, want %v", tc.diff, got, tc.want)
			}
		})
	}
}
