package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ReadCommits loads all commit rows from a parquet file. Rows are fully
// materialized; pipeline stages transform the slice and write a new file.
func ReadCommits(path string) ([]CommitRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	rows, err := parquet.ReadFile[CommitRecord](path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return rows, nil
}

// WriteCommits writes rows as a parquet file, creating parent directories as
// needed. The file is written in one shot to its own path so an interrupted
// run never leaves a half-overwritten input behind.
func WriteCommits(path string, rows []CommitRecord) error {
	if path == "" {
		return fmt.Errorf("dataset: output path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: create output directory: %w", err)
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return nil
}

// HasComplianceColumn reports whether any row carries an is_CCS label.
// Stages that consume labels use this to fail fast when the label stage has
// not been run on the input.
func HasComplianceColumn(rows []CommitRecord) bool {
	for _, r := range rows {
		if r.Labeled() {
			return true
		}
	}
	return false
}
