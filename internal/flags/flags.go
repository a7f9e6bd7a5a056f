package flags

// Package flags defines canonical CLI flag names shared across the stage
// commands. Keeping these as constants avoids drift between Cobra flag
// wiring and code paths that reference flags in error messages.
// IMPORTANT: These are flag *names* without leading dashes.
const (
	// Dataset I/O
	FlagInput     = "input"
	FlagOutput    = "output"
	FlagOutputDir = "output-dir"
	FlagAnalysis  = "analysis"

	// Filtering
	FlagMinRate = "min-rate"
	FlagTopN    = "top-n"

	// Remote
	FlagKeyword     = "keyword"
	FlagMinInterval = "min-interval"
	FlagCache       = "cache"
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"

	// Split
	FlagTrainRatio = "train-ratio"
	FlagValidRatio = "valid-ratio"

	// Runtime
	FlagVerbose = "verbose"
)
