// Package split partitions a commit dataset chronologically into
// train/valid/test subsets.
package split

import (
	"fmt"
	"sort"

	"ccsminer/internal/dataset"
)

// Ratios describes the chronological split proportions. The test share is
// the remainder after train and valid.
type Ratios struct {
	Train float64
	Valid float64
}

// Validate checks that the ratios describe three non-degenerate ranges.
func (r Ratios) Validate() error {
	if r.Train <= 0 || r.Valid <= 0 {
		return fmt.Errorf("split: ratios must be > 0 (train=%g valid=%g)", r.Train, r.Valid)
	}
	if r.Train+r.Valid >= 1 {
		return fmt.Errorf("split: train+valid must be < 1 (got %g)", r.Train+r.Valid)
	}
	return nil
}

// ByTime sorts rows by their date column and slices them into three
// contiguous index ranges. It is a pure function of the row list and the
// ratios; the input slice is not modified. Rows with unparsable dates are
// rejected.
func ByTime(rows []dataset.CommitRecord, r Ratios) (train, valid, test []dataset.CommitRecord, err error) {
	if err := r.Validate(); err != nil {
		return nil, nil, nil, err
	}

	type dated struct {
		row dataset.CommitRecord
		ts  int64
	}
	sorted := make([]dated, 0, len(rows))
	for i, row := range rows {
		t, err := row.Time()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("split: row %d: %w", i, err)
		}
		sorted = append(sorted, dated{row: row, ts: t.Unix()})
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ts < sorted[j].ts })

	total := len(sorted)
	trainEnd := int(float64(total) * r.Train)
	validEnd := int(float64(total) * (r.Train + r.Valid))

	out := make([]dataset.CommitRecord, total)
	for i, d := range sorted {
		out[i] = d.row
	}
	return out[:trainEnd], out[trainEnd:validEnd], out[validEnd:], nil
}

// CommonRepos returns the repositories present in all three splits.
func CommonRepos(train, valid, test []dataset.CommitRecord) map[string]struct{} {
	inValid := repoSet(valid)
	inTest := repoSet(test)

	common := make(map[string]struct{})
	for _, r := range train {
		if _, ok := common[r.Repo]; ok {
			continue
		}
		if _, ok := inValid[r.Repo]; !ok {
			continue
		}
		if _, ok := inTest[r.Repo]; !ok {
			continue
		}
		common[r.Repo] = struct{}{}
	}
	return common
}

// Filter keeps the rows whose repository is in the given set.
func Filter(rows []dataset.CommitRecord, repos map[string]struct{}) []dataset.CommitRecord {
	out := make([]dataset.CommitRecord, 0, len(rows))
	for _, r := range rows {
		if _, ok := repos[r.Repo]; ok {
			out = append(out, r)
		}
	}
	return out
}

func repoSet(rows []dataset.CommitRecord) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range rows {
		set[r.Repo] = struct{}{}
	}
	return set
}
