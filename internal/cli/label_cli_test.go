package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"ccsminer/internal/dataset"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestLabelCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "commits.parquet")
	out := filepath.Join(dir, "labeled.parquet")

	rows := []dataset.CommitRecord{
		{Repo: "acme/app", Message: "feat(api): add pagination", Date: "01.02.2023 10:00:00"},
		{Repo: "acme/app", Message: "update stuff", Date: "02.02.2023 10:00:00"},
		{Repo: "acme/lib", Message: "fix!: crash on empty input", Date: "03.02.2023 10:00:00"},
	}
	if err := dataset.WriteCommits(in, rows); err != nil {
		t.Fatalf("write input: %v", err)
	}

	output, err := runCommand(t, "label", "--input", in, "--output", out)
	if err != nil {
		t.Fatalf("label failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Total commits: 3") {
		t.Fatalf("summary missing total, got:\n%s", output)
	}

	labeled, err := dataset.ReadCommits(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(labeled) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(labeled))
	}
	wantCompliant := []bool{true, false, true}
	for i, row := range labeled {
		if !row.Labeled() {
			t.Fatalf("row %d not labeled", i)
		}
		if row.Compliant() != wantCompliant[i] {
			t.Fatalf("row %d: compliant=%v, want %v", i, row.Compliant(), wantCompliant[i])
		}
	}
}

func TestLabelCommandValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "commits.parquet")
	if err := dataset.WriteCommits(in, []dataset.CommitRecord{
		{Repo: "acme/app", Message: "feat: x", Date: "01.02.2023 10:00:00"},
	}); err != nil {
		t.Fatalf("write input: %v", err)
	}

	orig := cfg.Filter.MinRate
	cfg.Filter.MinRate = 1.5
	t.Cleanup(func() { cfg.Filter.MinRate = orig })

	output, err := runCommand(t, "label", "--input", in, "--output", filepath.Join(dir, "out.parquet"))
	if err == nil {
		t.Fatalf("expected validation error, got output:\n%s", output)
	}
	if !strings.Contains(err.Error(), "min-rate") {
		t.Fatalf("error %q does not mention min-rate", err)
	}
}

func TestLabelCommandMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := runCommand(t, "label",
		"--input", filepath.Join(dir, "missing.parquet"),
		"--output", filepath.Join(dir, "out.parquet"))
	if err == nil {
		t.Fatalf("expected error for missing input file")
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(output, "ccsminer") {
		t.Fatalf("unexpected version output: %s", output)
	}
}
