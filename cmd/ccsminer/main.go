package main

import (
	"ccsminer/internal/cli"

	"github.com/joho/godotenv"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Best effort: a missing .env just means GITHUB_TOKEN comes from the
	// environment or the gh CLI.
	_ = godotenv.Load()

	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
