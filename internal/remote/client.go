// Package remote talks to GitHub: keyword code search, commit history and
// diff retrieval, all behind a shared request budget.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

type Client struct {
	GH   *github.Client
	HTTP *http.Client
}

type options struct {
	verbose bool
	// writer controls where verbose HTTP logs go (typically stderr) so stage
	// summaries on stdout stay clean and tests can capture logs.
	writer io.Writer
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// loggingRoundTripper traces every API call: one line going out, one line
// coming back with the status and elapsed time. Only the method and URL are
// logged, never headers.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.w == nil {
		return t.base.RoundTrip(req)
	}

	start := time.Now()
	fmt.Fprintf(t.w, "[verbose] -> %s %s\n", req.Method, req.URL)

	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		fmt.Fprintf(t.w, "[verbose] <- %s %s failed after %s: %v\n", req.Method, req.URL.Path, elapsed, err)
		return resp, err
	}
	fmt.Fprintf(t.w, "[verbose] <- %d %s %s (%s)\n", resp.StatusCode, req.Method, req.URL.Path, elapsed)
	return resp, nil
}

// NewClient builds a GitHub client authenticated with the given bearer
// token. The token is required: every remote stage of the pipeline talks to
// authenticated endpoints.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("remote client: ctx is nil")
	}
	if token == "" {
		return nil, fmt.Errorf("remote client: token is required")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	transport = &oauth2.Transport{Source: ts, Base: transport}
	tc := &http.Client{Transport: transport}

	return &Client{
		GH:   github.NewClient(tc),
		HTTP: tc,
	}, nil
}
