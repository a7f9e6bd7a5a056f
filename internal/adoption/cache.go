package adoption

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"ccsminer/internal/dataset"
)

// RepoMetadata records the adoption verdict for one repository.
//
// AdoptionDate is null while unresolved or when no adoption point could be
// found. KeptCount + FilteredCount always equals OriginalCount once the
// cutover filter has run.
type RepoMetadata struct {
	AdoptionDate  *string `json:"adoption_date"`
	OriginalCount int     `json:"original_count"`
	KeptCount     int     `json:"kept_count"`
	FilteredCount int     `json:"filtered_count"`
}

// AdoptionTime parses the metadata's adoption date. It returns nil when no
// adoption date is recorded.
func (m *RepoMetadata) AdoptionTime() (*time.Time, error) {
	if m == nil || m.AdoptionDate == nil || *m.AdoptionDate == "" {
		return nil, nil
	}
	t, err := time.Parse(ArtifactTimeLayout, *m.AdoptionDate)
	if err != nil {
		return nil, fmt.Errorf("adoption: parse adoption date %q: %w", *m.AdoptionDate, err)
	}
	return &t, nil
}

// MetadataCache is the persisted repo -> RepoMetadata mapping. It is loaded
// at startup and saved after every resolved repository, so an interrupted
// run loses at most one repository's work. It is the single source of truth
// for "has this repo already been verified".
type MetadataCache struct {
	path  string
	Repos map[string]*RepoMetadata
}

type metadataCacheFile struct {
	Method     string                   `json:"method"`
	LastUpdate string                   `json:"last_update"`
	Repos      map[string]*RepoMetadata `json:"repo_details"`
}

// LoadMetadataCache reads the cache file at path. A missing file yields an
// empty cache bound to that path.
func LoadMetadataCache(path string) (*MetadataCache, error) {
	c := &MetadataCache{path: path, Repos: make(map[string]*RepoMetadata)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adoption: read cache %s: %w", path, err)
	}

	var file metadataCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("adoption: parse cache %s: %w", path, err)
	}
	if file.Repos != nil {
		c.Repos = file.Repos
	}
	return c, nil
}

// Get returns the cached metadata for repo, if any.
func (c *MetadataCache) Get(repo string) (*RepoMetadata, bool) {
	m, ok := c.Repos[repo]
	return m, ok
}

// SetAdoption records a resolved adoption date (nil when none was found) and
// the repository's original commit count.
func (c *MetadataCache) SetAdoption(repo string, date *time.Time, originalCount int) {
	m := &RepoMetadata{OriginalCount: originalCount}
	if date != nil {
		s := date.Format(ArtifactTimeLayout)
		m.AdoptionDate = &s
	}
	c.Repos[repo] = m
}

// Save persists the cache. The file is written to a temporary sibling and
// renamed into place so a crash never corrupts the previous cache.
func (c *MetadataCache) Save() error {
	if c.path == "" {
		return fmt.Errorf("adoption: cache path required")
	}
	file := metadataCacheFile{
		Method:     "diff_deep_trace",
		LastUpdate: Now(),
		Repos:      c.Repos,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("adoption: marshal cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("adoption: create cache directory: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("adoption: write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("adoption: replace cache: %w", err)
	}
	return nil
}

// VerdictCache is the persisted repo -> keyword-verification verdict mapping
// used by the verify stage.
type VerdictCache struct {
	path     string
	Keyword  string
	Verdicts map[string]bool
}

type verdictCacheFile struct {
	Method            string          `json:"method"`
	Keyword           string          `json:"keyword"`
	Timestamp         string          `json:"timestamp"`
	TotalRepos        int             `json:"total_repos"`
	ConventionalRepos int             `json:"conventional_repos"`
	Verdicts          map[string]bool `json:"cache"`
}

// LoadVerdictCache reads the verdict cache at path; a missing file yields an
// empty cache bound to that path.
func LoadVerdictCache(path, keyword string) (*VerdictCache, error) {
	c := &VerdictCache{path: path, Keyword: keyword, Verdicts: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adoption: read cache %s: %w", path, err)
	}

	var file verdictCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("adoption: parse cache %s: %w", path, err)
	}
	if file.Verdicts != nil {
		c.Verdicts = file.Verdicts
	}
	return c, nil
}

// Set records a verdict for repo.
func (c *VerdictCache) Set(repo string, adopted bool) {
	c.Verdicts[repo] = adopted
}

// Get returns the cached verdict for repo, if any.
func (c *VerdictCache) Get(repo string) (bool, bool) {
	v, ok := c.Verdicts[repo]
	return v, ok
}

// Save persists the verdict cache with the same temp-and-rename discipline
// as MetadataCache.Save.
func (c *VerdictCache) Save() error {
	if c.path == "" {
		return fmt.Errorf("adoption: cache path required")
	}
	adopted := 0
	for _, v := range c.Verdicts {
		if v {
			adopted++
		}
	}
	file := verdictCacheFile{
		Method:            "keyword_search",
		Keyword:           c.Keyword,
		Timestamp:         Now(),
		TotalRepos:        len(c.Verdicts),
		ConventionalRepos: adopted,
		Verdicts:          c.Verdicts,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("adoption: marshal cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("adoption: create cache directory: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("adoption: write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("adoption: replace cache: %w", err)
	}
	return nil
}

// ApplyCutover drops the repository's commits dated strictly before the
// resolved adoption date and updates the metadata counts. Records whose date
// column cannot be parsed are dropped and counted as filtered. When no
// adoption date is recorded, all commits are kept unchanged.
func ApplyCutover(rows []dataset.CommitRecord, meta *RepoMetadata) ([]dataset.CommitRecord, error) {
	adoption, err := meta.AdoptionTime()
	if err != nil {
		return nil, err
	}

	meta.OriginalCount = len(rows)
	if adoption == nil {
		meta.KeptCount = len(rows)
		meta.FilteredCount = 0
		return rows, nil
	}

	kept := make([]dataset.CommitRecord, 0, len(rows))
	for _, r := range rows {
		t, err := r.Time()
		if err != nil {
			continue
		}
		if t.Before(*adoption) {
			continue
		}
		kept = append(kept, r)
	}
	meta.KeptCount = len(kept)
	meta.FilteredCount = len(rows) - len(kept)
	return kept, nil
}
