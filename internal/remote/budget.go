package remote

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget throttles outgoing API calls. It enforces a minimum spacing
// between consecutive requests, process-wide, and honors server-announced
// cooldowns (Retry-After, X-RateLimit-Reset) observed on responses.
//
// There is one budget per run; every remote call acquires it first, so
// per-repository serial ordering of requests is preserved even if callers
// process repositories in parallel.
type RequestBudget struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	cooldown time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRequestBudget(interval time.Duration) *RequestBudget {
	return &RequestBudget{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Acquire blocks until the next request may be issued: at least the minimum
// interval after the previous request, and not before any active cooldown.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()

		next := b.last.Add(b.interval)
		if b.cooldown.After(next) {
			next = b.cooldown
		}
		if !now.Before(next) {
			b.last = now
			b.mu.Unlock()
			return nil
		}
		wait := next.Sub(now)
		b.mu.Unlock()

		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// UpdateFromResponse records rate-limit state announced by the server. A
// Retry-After header or an exhausted X-RateLimit-Remaining with a reset
// timestamp both extend the cooldown; Acquire waits it out before the next
// request.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if b == nil || resp == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			until := b.now().Add(time.Duration(seconds) * time.Second)
			if until.After(b.cooldown) {
				b.cooldown = until
			}
		}
	}

	remaining := resp.Header.Get("X-RateLimit-Remaining")
	reset := resp.Header.Get("X-RateLimit-Reset")
	if remaining == "" || reset == "" {
		return
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return
	}
	if unix, err := strconv.ParseInt(reset, 10, 64); err == nil && unix > 0 {
		until := time.Unix(unix, 0).Add(time.Second)
		if until.After(b.cooldown) {
			b.cooldown = until
		}
	}
}

// CooldownUntil force-extends the cooldown, used when the server rejects a
// request with a rate-limit error carrying its own reset time.
func (b *RequestBudget) CooldownUntil(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.After(b.cooldown) {
		b.cooldown = t
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
