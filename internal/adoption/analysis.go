package adoption

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArtifactTimeLayout is the timestamp format used inside analysis artifacts
// and the adoption metadata cache.
const ArtifactTimeLayout = "2006-01-02 15:04:05"

// PruneAnalysis is the artifact written by the self-consistency stage.
type PruneAnalysis struct {
	Timestamp   string               `json:"timestamp"`
	Statistics  PruneStatistics      `json:"statistics"`
	RepoDetails map[string]RepoStats `json:"repo_details"`
}

type PruneStatistics struct {
	TotalRecords    int `json:"total_records"`
	FilteredRecords int `json:"filtered_records"`
	RemovedRecords  int `json:"removed_records"`
	TotalRepos      int `json:"total_repos"`
	TrueCCSRepos    int `json:"true_ccs_repos"`
	FalseCCSRepos   int `json:"false_ccs_repos"`
}

// ExtractAnalysis is the artifact written by the rate-threshold stage.
type ExtractAnalysis struct {
	Timestamp      string               `json:"timestamp"`
	FilterCriteria FilterCriteria       `json:"filter_criteria"`
	Statistics     ExtractStatistics    `json:"statistics"`
	HighRateRepos  map[string]RepoStats `json:"high_rate_repos"`
}

type FilterCriteria struct {
	MinRate     float64 `json:"min_ccs_rate"`
	Description string  `json:"description"`
}

type ExtractStatistics struct {
	TotalRepos    int `json:"total_repos"`
	FilteredRepos int `json:"filtered_repos"`
	RemovedRepos  int `json:"removed_repos"`
	TotalCommits  int `json:"total_commits"`
}

// WriteArtifact writes an analysis artifact as indented JSON, creating
// parent directories as needed.
func WriteArtifact(path string, v any) error {
	if path == "" {
		return fmt.Errorf("adoption: artifact path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("adoption: create artifact directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("adoption: marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("adoption: write artifact %s: %w", path, err)
	}
	return nil
}

// Now returns the current time formatted for artifacts; a var so tests can
// pin it.
var Now = func() string {
	return time.Now().Format(ArtifactTimeLayout)
}
