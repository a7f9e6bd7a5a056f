package remote

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type TokenSource string

const (
	TokenSourceEnv TokenSource = "env:GITHUB_TOKEN"
	TokenSourceGH  TokenSource = "gh"
)

// ErrNoToken is returned when no GitHub token can be resolved. Remote stages
// treat this as a fatal configuration error at startup.
var ErrNoToken = errors.New("remote: GitHub token is required (set GITHUB_TOKEN or run 'gh auth login')")

// ResolveToken resolves the GitHub bearer token used for all remote calls.
//
// Precedence:
//  1. GITHUB_TOKEN env var
//  2. GitHub CLI: `gh auth token -h github.com`
//
// It never prints the token.
func ResolveToken(ctx context.Context) (string, TokenSource, error) {
	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, TokenSourceEnv, nil
	}

	tok, ok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", "", err
	}
	if ok {
		return tok, TokenSourceGH, nil
	}
	return "", "", ErrNoToken
}

func tokenFromGitHubCLI(ctx context.Context) (token string, ok bool, err error) {
	if _, lookErr := exec.LookPath("gh"); lookErr != nil {
		return "", false, nil
	}

	// Keep this bounded so a broken gh config or credential helper doesn't
	// hang the stage at startup.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	out, runErr := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com").Output()
	if runErr != nil {
		if cmdCtx.Err() != nil {
			return "", false, cmdCtx.Err()
		}
		// gh installed but not logged in (or otherwise failing): no token.
		return "", false, nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", false, nil
	}
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("remote: invalid token returned by gh: contains whitespace")
	}
	return tok, true, nil
}
