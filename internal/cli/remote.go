package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ccsminer/internal/remote"
)

// stageContext returns a context that ends on SIGINT/SIGTERM and, when a
// timeout is configured, after the timeout. Remote stages use it so an
// interrupted run can still flush caches and partial output.
func stageContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if cfg.Remote.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Remote.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// newRemoteBackend resolves the GitHub token, builds the authenticated
// client and wraps it in a budgeted API backend shared by all calls of the
// stage.
func newRemoteBackend(ctx context.Context) (*remote.GitHub, error) {
	token, source, err := remote.ResolveToken(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Runtime.Verbose {
		fmt.Fprintf(os.Stderr, "[verbose] github token resolved via %s\n", source)
	}

	client, err := remote.NewClient(ctx, token, remote.WithVerbose(cfg.Runtime.Verbose, nil))
	if err != nil {
		return nil, err
	}
	budget := remote.NewRequestBudget(cfg.Remote.MinInterval)
	return remote.NewGitHub(client, budget), nil
}
