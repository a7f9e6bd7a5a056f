package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"ccsminer/internal/dataset"
)

// noneBucket collects rows whose type or scope column is empty.
const noneBucket = "None"

// Count is one bucket of a distribution.
type Count struct {
	Key string
	N   int
}

// Distribution is an ordered list of buckets, largest first; ties break on
// the key so output is deterministic.
type Distribution []Count

func Tally(values []string) Distribution {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	out := make(Distribution, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (d Distribution) Top(n int) Distribution {
	if n <= 0 || n >= len(d) {
		return d
	}
	return d[:n]
}

func (d Distribution) Total() int {
	sum := 0
	for _, c := range d {
		sum += c.N
	}
	return sum
}

// DatasetStats summarizes a labeled, type-extracted commit dataset.
type DatasetStats struct {
	TotalCommits int
	TotalRepos   int

	// RepoLanguages counts unique (repo, language) pairs per language;
	// CommitLanguages counts every commit row.
	RepoLanguages   Distribution
	CommitLanguages Distribution

	Types  Distribution
	Scopes Distribution

	TypedCommits  int
	ScopedCommits int
}

// Collect builds the full statistics for a dataset in one pass.
func Collect(rows []dataset.CommitRecord) DatasetStats {
	repoLangSeen := make(map[string]bool)
	var repoLangs, commitLangs, types, scopes []string

	for _, row := range rows {
		lang := row.Language
		if lang == "" {
			lang = noneBucket
		}
		commitLangs = append(commitLangs, lang)

		pair := row.Repo + "\x00" + lang
		if !repoLangSeen[pair] {
			repoLangSeen[pair] = true
			repoLangs = append(repoLangs, lang)
		}

		types = append(types, orNone(row.CommitType))
		scopes = append(scopes, orNone(row.CommitScope))
	}

	stats := DatasetStats{
		TotalCommits:    len(rows),
		TotalRepos:      len(dataset.UniqueRepos(rows)),
		RepoLanguages:   Tally(repoLangs),
		CommitLanguages: Tally(commitLangs),
		Types:           Tally(types),
		Scopes:          Tally(scopes),
	}
	for _, row := range rows {
		if row.CommitType != nil && *row.CommitType != "" {
			stats.TypedCommits++
		}
		if row.CommitScope != nil && *row.CommitScope != "" {
			stats.ScopedCommits++
		}
	}
	return stats
}

func orNone(s *string) string {
	if s == nil || *s == "" {
		return noneBucket
	}
	return *s
}

// WriteText renders the four analyses as a console/text report.
func (s DatasetStats) WriteText(w io.Writer, topN int) {
	rule := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(w, "Analysis 1: Language distribution across repositories")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total repositories: %d\n", s.TotalRepos)
	fmt.Fprintf(w, "Number of unique languages: %d\n\n", len(s.RepoLanguages))
	writeTable(w, "Language", "Repo Count", 20, s.RepoLanguages)

	fmt.Fprintln(w, "\nAnalysis 2: Language distribution across commits")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total commits: %d\n", s.TotalCommits)
	fmt.Fprintf(w, "Number of unique languages: %d\n\n", len(s.CommitLanguages))
	writeTable(w, "Language", "Commit Count", 20, s.CommitLanguages)

	fmt.Fprintln(w, "\nAnalysis 3: Distribution of commit types")
	fmt.Fprintln(w, rule)
	Countf(w, "Records with valid type", s.TypedCommits, s.TotalCommits)
	fmt.Fprintf(w, "Number of unique types: %d\n\n", len(s.Types))
	writeTable(w, "Type", "Commit Count", 20, s.Types.Top(topN))

	fmt.Fprintln(w, "\nAnalysis 4: Distribution of commit scopes")
	fmt.Fprintln(w, rule)
	Countf(w, "Records with scope", s.ScopedCommits, s.TotalCommits)
	fmt.Fprintf(w, "Number of unique scopes: %d\n\n", len(s.Scopes))
	writeTable(w, "Scope", "Commit Count", 40, s.Scopes.Top(topN))
}

func writeTable(w io.Writer, keyHeader, countHeader string, keyWidth int, d Distribution) {
	fmt.Fprintf(w, "%-*s %s\n", keyWidth, keyHeader, countHeader)
	fmt.Fprintln(w, strings.Repeat("-", keyWidth+20))
	for _, c := range d {
		key := c.Key
		if len(key) > keyWidth {
			key = key[:keyWidth]
		}
		fmt.Fprintf(w, "%-*s %d\n", keyWidth, key, c.N)
	}
}

// WriteFiles writes the text report and the four CSV breakdowns to dir and
// returns the paths, text report first.
func (s DatasetStats) WriteFiles(dir string, topN int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stats output dir: %w", err)
	}

	textPath := filepath.Join(dir, "ccs_statistics_report.txt")
	f, err := os.Create(textPath)
	if err != nil {
		return nil, fmt.Errorf("stats text report: %w", err)
	}
	s.WriteText(f, topN)
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("stats text report: %w", err)
	}

	files := []struct {
		name   string
		header []string
		dist   Distribution
		total  int
	}{
		{"repo_language_statistics.csv", []string{"language", "repo_count"}, s.RepoLanguages, 0},
		{"commit_language_statistics.csv", []string{"language", "commit_count"}, s.CommitLanguages, 0},
		{"commit_type_statistics.csv", []string{"type", "commit_count", "percentage"}, s.Types, s.TotalCommits},
		{"commit_scope_statistics.csv", []string{"scope", "commit_count", "percentage"}, s.Scopes, s.TotalCommits},
	}

	paths := []string{textPath}
	for _, out := range files {
		path := filepath.Join(dir, out.name)
		if err := writeCSV(path, out.header, out.dist, out.total); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSV(path string, header []string, d Distribution, total int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats csv %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("stats csv %s: %w", filepath.Base(path), err)
	}
	for _, c := range d {
		row := []string{c.Key, strconv.Itoa(c.N)}
		if total > 0 {
			row = append(row, fmt.Sprintf("%.2f", float64(c.N)/float64(total)*100))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("stats csv %s: %w", filepath.Base(path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("stats csv %s: %w", filepath.Base(path), err)
	}
	return nil
}
