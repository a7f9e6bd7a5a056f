package remote

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-github/v81/github"
)

// retryHarness wires a GitHub backend with a virtual clock shared by the
// backend and its budget, so retry waits are recorded instead of slept.
type retryHarness struct {
	g       *GitHub
	current time.Time
	sleeps  []time.Duration
}

func newRetryHarness() *retryHarness {
	h := &retryHarness{current: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	sleep := func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		h.current = h.current.Add(d)
		return ctx.Err()
	}
	now := func() time.Time { return h.current }

	budget := NewRequestBudget(0)
	budget.now = now
	budget.sleep = sleep

	h.g = &GitHub{budget: budget, sleep: sleep, now: now}
	return h
}

func ghResponse(status int, header http.Header) *github.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &github.Response{Response: &http.Response{StatusCode: status, Header: header}}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("403 with reset header sleeps until reset then retries", func(t *testing.T) {
		h := newRetryHarness()
		reset := h.current.Add(30 * time.Second)
		header := make(http.Header)
		header.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		calls := 0
		err := h.g.withRetry(ctx, func() (*github.Response, error) {
			calls++
			if calls == 1 {
				return ghResponse(http.StatusForbidden, header), errors.New("403 rate limit exceeded")
			}
			return ghResponse(http.StatusOK, nil), nil
		})
		if err != nil {
			t.Fatalf("withRetry failed: %v", err)
		}
		if calls != 2 {
			t.Fatalf("Expected 2 calls, got %d", calls)
		}
		if len(h.sleeps) != 1 || h.sleeps[0] != 31*time.Second {
			t.Fatalf("Expected one 31s sleep, got %v", h.sleeps)
		}
	})

	t.Run("403 with reset in the past waits at least a second", func(t *testing.T) {
		h := newRetryHarness()
		header := make(http.Header)
		header.Set("X-RateLimit-Reset", strconv.FormatInt(h.current.Add(-time.Minute).Unix(), 10))

		calls := 0
		err := h.g.withRetry(ctx, func() (*github.Response, error) {
			calls++
			if calls == 1 {
				return ghResponse(http.StatusForbidden, header), errors.New("403 rate limit exceeded")
			}
			return ghResponse(http.StatusOK, nil), nil
		})
		if err != nil {
			t.Fatalf("withRetry failed: %v", err)
		}
		if len(h.sleeps) != 1 || h.sleeps[0] != time.Second {
			t.Fatalf("Expected one 1s floor sleep, got %v", h.sleeps)
		}
	})

	t.Run("404 maps to ErrNotFound without retrying", func(t *testing.T) {
		h := newRetryHarness()

		calls := 0
		err := h.g.withRetry(ctx, func() (*github.Response, error) {
			calls++
			return ghResponse(http.StatusNotFound, nil), errors.New("404 not found")
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("Expected a single call, got %d", calls)
		}
		if len(h.sleeps) != 0 {
			t.Fatalf("Expected no sleeps, got %v", h.sleeps)
		}
	})

	t.Run("RateLimitError sleeps past its reset then retries", func(t *testing.T) {
		h := newRetryHarness()
		rle := &github.RateLimitError{
			Rate: github.Rate{Reset: github.Timestamp{Time: h.current.Add(10 * time.Second)}},
		}

		calls := 0
		err := h.g.withRetry(ctx, func() (*github.Response, error) {
			calls++
			if calls == 1 {
				return nil, rle
			}
			return ghResponse(http.StatusOK, nil), nil
		})
		if err != nil {
			t.Fatalf("withRetry failed: %v", err)
		}
		if calls != 2 {
			t.Fatalf("Expected 2 calls, got %d", calls)
		}
		if len(h.sleeps) != 1 || h.sleeps[0] != 11*time.Second {
			t.Fatalf("Expected one 11s sleep, got %v", h.sleeps)
		}
	})

	t.Run("AbuseRateLimitError honors RetryAfter", func(t *testing.T) {
		h := newRetryHarness()
		after := 5 * time.Second
		abuse := &github.AbuseRateLimitError{RetryAfter: &after}

		calls := 0
		err := h.g.withRetry(ctx, func() (*github.Response, error) {
			calls++
			if calls == 1 {
				return nil, abuse
			}
			return ghResponse(http.StatusOK, nil), nil
		})
		if err != nil {
			t.Fatalf("withRetry failed: %v", err)
		}
		if len(h.sleeps) != 1 || h.sleeps[0] != 5*time.Second {
			t.Fatalf("Expected one 5s sleep, got %v", h.sleeps)
		}
	})

	t.Run("non-retryable error is returned as-is", func(t *testing.T) {
		h := newRetryHarness()
		boom := errors.New("boom")

		calls := 0
		err := h.g.withRetry(ctx, func() (*github.Response, error) {
			calls++
			return ghResponse(http.StatusInternalServerError, nil), boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected the original error, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("Expected a single call, got %d", calls)
		}
	})

	t.Run("canceled context stops the retry loop", func(t *testing.T) {
		h := newRetryHarness()
		header := make(http.Header)
		header.Set("X-RateLimit-Reset", strconv.FormatInt(h.current.Add(time.Minute).Unix(), 10))

		cctx, cancel := context.WithCancel(ctx)
		err := h.g.withRetry(cctx, func() (*github.Response, error) {
			cancel()
			return ghResponse(http.StatusForbidden, header), errors.New("403 rate limit exceeded")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := SplitRepo("acme/app")
	if err != nil || owner != "acme" || name != "app" {
		t.Fatalf("SplitRepo: got (%q, %q, %v)", owner, name, err)
	}
	for _, bad := range []string{"", "acme", "/app", "acme/"} {
		if _, _, err := SplitRepo(bad); err == nil {
			t.Fatalf("Expected error for slug %q", bad)
		}
	}
}
