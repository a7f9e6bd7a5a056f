package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSONL streams rows to w as line-delimited JSON, one record per line.
func WriteJSONL(w io.Writer, rows []CommitRecord) error {
	encoder := json.NewEncoder(w)
	for i := range rows {
		if err := encoder.Encode(rows[i]); err != nil {
			return fmt.Errorf("dataset: encode row %d: %w", i, err)
		}
	}
	return nil
}

// ExportJSONL converts a parquet dataset file into a .json JSONL file in
// outDir, named after the input file.
func ExportJSONL(inPath, outDir string) (string, error) {
	rows, err := ReadCommits(inPath)
	if err != nil {
		return "", err
	}

	base := filepath.Base(inPath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	outPath := filepath.Join(outDir, base+".json")

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("dataset: create output directory: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("dataset: create %s: %w", outPath, err)
	}
	if err := WriteJSONL(f, rows); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("dataset: close %s: %w", outPath, err)
	}
	return outPath, nil
}
