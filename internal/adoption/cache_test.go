package adoption

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ccsminer/internal/dataset"
)

func TestMetadataCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "adoption.json")

	c, err := LoadMetadataCache(path)
	require.NoError(t, err)
	require.Empty(t, c.Repos)

	adopted := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetAdoption("acme/lib", &adopted, 10)
	c.SetAdoption("acme/never", nil, 4)
	require.NoError(t, c.Save())

	reloaded, err := LoadMetadataCache(path)
	require.NoError(t, err)

	m, ok := reloaded.Get("acme/lib")
	require.True(t, ok)
	require.Equal(t, 10, m.OriginalCount)
	got, err := m.AdoptionTime()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.Equal(adopted))

	m, ok = reloaded.Get("acme/never")
	require.True(t, ok)
	require.Nil(t, m.AdoptionDate)
	got, err = m.AdoptionTime()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestVerdictCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verdicts.json")

	c, err := LoadVerdictCache(path, "conventionalcommits.org")
	require.NoError(t, err)

	c.Set("acme/lib", true)
	c.Set("acme/dead", false)
	require.NoError(t, c.Save())

	reloaded, err := LoadVerdictCache(path, "conventionalcommits.org")
	require.NoError(t, err)

	v, ok := reloaded.Get("acme/lib")
	require.True(t, ok)
	require.True(t, v)
	v, ok = reloaded.Get("acme/dead")
	require.True(t, ok)
	require.False(t, v)
	_, ok = reloaded.Get("acme/unknown")
	require.False(t, ok)
}

func TestApplyCutover(t *testing.T) {
	adopted := time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC)
	date := func(t time.Time) string { return t.Format(dataset.DateLayout) }

	rows := []dataset.CommitRecord{
		{Repo: "acme/lib", Message: "feat: before", Date: date(adopted.Add(-time.Hour))},
		{Repo: "acme/lib", Message: "feat: at adoption", Date: date(adopted)},
		{Repo: "acme/lib", Message: "feat: after", Date: date(adopted.Add(time.Hour))},
	}

	meta := &RepoMetadata{}
	s := adopted.Format(ArtifactTimeLayout)
	meta.AdoptionDate = &s

	kept, err := ApplyCutover(rows, meta)
	require.NoError(t, err)

	// Strictly-earlier commits are excluded; the commit at exactly the
	// adoption instant is kept.
	require.Len(t, kept, 2)
	require.Equal(t, "feat: at adoption", kept[0].Message)
	require.Equal(t, 3, meta.OriginalCount)
	require.Equal(t, 2, meta.KeptCount)
	require.Equal(t, 1, meta.FilteredCount)
	require.Equal(t, meta.OriginalCount, meta.KeptCount+meta.FilteredCount)
}

func TestApplyCutoverWithoutAdoptionDateKeepsAll(t *testing.T) {
	rows := []dataset.CommitRecord{
		{Repo: "acme/lib", Message: "a", Date: "01.01.2020 00:00:00"},
		{Repo: "acme/lib", Message: "b", Date: "02.01.2020 00:00:00"},
	}
	meta := &RepoMetadata{}

	kept, err := ApplyCutover(rows, meta)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	require.Equal(t, 2, meta.KeptCount)
	require.Zero(t, meta.FilteredCount)
}
