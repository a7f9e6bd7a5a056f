package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: if you add/change/remove fields that affect stage
	// behavior, keep the CLI flag wiring in internal/cli in sync.
	Dataset Dataset
	Filter  Filter
	Remote  Remote
	Split   Split
	Runtime Runtime
}

type Dataset struct {
	// Input is the path of the columnar commit dataset a stage reads (see --input).
	Input string

	// Output is the path a stage writes its filtered dataset to (see --output).
	Output string

	// Analysis is the path of the per-stage JSON analysis artifact (see --analysis).
	// Empty means the stage derives it from Output.
	Analysis string
}

type Filter struct {
	// MinRate is the compliance-rate threshold for the extract stage
	// (see --min-rate). Repositories pass only with a rate strictly above it.
	MinRate float64

	// TopN bounds ranked listings in reports (see --top-n).
	TopN int
}

type Remote struct {
	// Keyword is the marker searched for in repository files (see --keyword).
	Keyword string

	// MinInterval is the minimum spacing between GitHub API requests
	// (see --min-interval).
	MinInterval time.Duration

	// CachePath is where per-repo verdicts or adoption metadata persist
	// between runs (see --cache).
	CachePath string

	// Concurrency is how many repositories are processed in parallel over
	// the shared request budget (see --concurrency). Must be >= 1.
	Concurrency int

	// Timeout bounds a whole remote stage run (see --timeout). 0 means no limit.
	Timeout time.Duration
}

type Split struct {
	// TrainRatio and ValidRatio divide the chronologically ordered dataset;
	// the remainder is the test portion (see --train-ratio, --valid-ratio).
	TrainRatio float64
	ValidRatio float64

	// OutputDir receives the train/valid/test files (see --output-dir).
	OutputDir string
}

type Runtime struct {
	// Verbose enables per-request HTTP logging and extra diagnostics.
	Verbose bool
}

func New() *Config {
	return &Config{
		Filter: Filter{
			MinRate: 0.8,
			TopN:    50,
		},
		Remote: Remote{
			Keyword:     "conventionalcommits.org",
			MinInterval: 2 * time.Second,
			Concurrency: 1,
		},
		Split: Split{
			TrainRatio: 0.8,
			ValidRatio: 0.1,
		},
	}
}

func (c *Config) Validate() error {
	c.Remote.Keyword = strings.TrimSpace(c.Remote.Keyword)

	if c.Filter.MinRate < 0 || c.Filter.MinRate >= 1 {
		return fmt.Errorf("--min-rate must be in [0, 1), got %v", c.Filter.MinRate)
	}
	if c.Filter.TopN <= 0 {
		return errors.New("--top-n must be >= 1")
	}

	if c.Remote.Keyword == "" {
		return errors.New("--keyword must not be empty")
	}
	if c.Remote.MinInterval < 0 {
		return errors.New("--min-interval must be >= 0")
	}
	if c.Remote.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Remote.Timeout < 0 {
		return errors.New("--timeout must be >= 0")
	}

	if c.Split.TrainRatio <= 0 || c.Split.ValidRatio <= 0 {
		return errors.New("--train-ratio and --valid-ratio must be > 0")
	}
	if c.Split.TrainRatio+c.Split.ValidRatio >= 1 {
		return fmt.Errorf("--train-ratio + --valid-ratio must leave room for a test portion, got %v",
			c.Split.TrainRatio+c.Split.ValidRatio)
	}

	return nil
}
