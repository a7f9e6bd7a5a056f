package split

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ccsminer/internal/dataset"
)

func makeRows(n int, repo string) []dataset.CommitRecord {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.CommitRecord, n)
	for i := range rows {
		rows[i] = dataset.CommitRecord{
			Repo:    repo,
			Message: fmt.Sprintf("feat: change %d", i),
			Date:    base.Add(time.Duration(i) * time.Hour).Format(dataset.DateLayout),
		}
	}
	return rows
}

func TestByTimeRanges(t *testing.T) {
	rows := makeRows(10, "acme/lib")
	// Shuffle deterministically so the sort actually does something.
	rows[0], rows[7] = rows[7], rows[0]
	rows[3], rows[9] = rows[9], rows[3]

	train, valid, test, err := ByTime(rows, Ratios{Train: 0.8, Valid: 0.1})
	require.NoError(t, err)
	require.Len(t, train, 8)
	require.Len(t, valid, 1)
	require.Len(t, test, 1)

	// Chronological ordering across the three ranges.
	all := append(append(append([]dataset.CommitRecord{}, train...), valid...), test...)
	for i := 1; i < len(all); i++ {
		prev, err := all[i-1].Time()
		require.NoError(t, err)
		cur, err := all[i].Time()
		require.NoError(t, err)
		require.False(t, cur.Before(prev), "rows out of order at %d", i)
	}

	require.Len(t, rows, 10, "input must not be mutated")
}

func TestByTimeValidation(t *testing.T) {
	rows := makeRows(4, "acme/lib")

	_, _, _, err := ByTime(rows, Ratios{Train: 0, Valid: 0.1})
	require.Error(t, err)

	_, _, _, err = ByTime(rows, Ratios{Train: 0.9, Valid: 0.2})
	require.Error(t, err)

	rows[2].Date = "not a date"
	_, _, _, err = ByTime(rows, Ratios{Train: 0.8, Valid: 0.1})
	require.Error(t, err)
}

func TestCommonReposAndFilter(t *testing.T) {
	everywhere := makeRows(30, "acme/everywhere")
	early := makeRows(3, "acme/early") // all dated before the everywhere rows end

	rows := append(append([]dataset.CommitRecord{}, everywhere...), early...)
	train, valid, test, err := ByTime(rows, Ratios{Train: 0.8, Valid: 0.1})
	require.NoError(t, err)

	common := CommonRepos(train, valid, test)
	require.Contains(t, common, "acme/everywhere")
	require.NotContains(t, common, "acme/early")

	filtered := Filter(train, common)
	for _, r := range filtered {
		require.Equal(t, "acme/everywhere", r.Repo)
	}
}
