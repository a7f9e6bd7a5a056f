package cli

import (
	"fmt"
	"os"

	"ccsminer/internal/config"
	"ccsminer/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "ccsminer",
	Short: "Build a labeled Conventional Commits dataset from a commit corpus",
	Long: `ccsminer turns a raw commit corpus into a labeled Conventional Commits dataset.

The pipeline runs as a sequence of stages, each reading a columnar dataset
file and writing a new one:

  label    classify every commit subject line (adds the is_CCS column)
  prune    drop repositories without a single compliant commit
  extract  keep compliant commits of high-compliance repos, parse type/scope
  verify   confirm adoption via GitHub code search for the convention keyword
  cutover  trim commits older than each repository's adoption date
  split    chronological train/valid/test split with common-repo intersection
  stats    language/type/scope distribution reports
  export   convert the columnar dataset to line-delimited JSON

Examples:
	# Label a corpus
	ccsminer label --input commits.parquet --output labeled.parquet

	# Full help for a stage
	ccsminer verify --help

	# Print build info
	ccsminer version`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
