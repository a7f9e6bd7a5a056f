// Package dataset defines the commit dataset schema and its columnar storage.
package dataset

import (
	"sort"
	"time"
)

// DateLayout is the timestamp format carried in the corpus date column.
const DateLayout = "02.01.2006 15:04:05"

// CommitRecord is one row of the commit dataset.
//
// The corpus columns (repo, message, date, author, language, hash) are carried
// through every pipeline stage unchanged. The pipeline appends is_CCS at the
// label stage and commit_type/commit_scope at the extract stage; before those
// stages run, the added columns are null.
type CommitRecord struct {
	Repo     string `parquet:"repo" json:"repo"`
	Message  string `parquet:"message" json:"message"`
	Date     string `parquet:"date" json:"date"`
	Author   string `parquet:"author,optional" json:"author,omitempty"`
	Language string `parquet:"language,optional" json:"language,omitempty"`
	Hash     string `parquet:"hash,optional" json:"hash,omitempty"`

	IsCCS       *int32  `parquet:"is_CCS,optional" json:"is_CCS,omitempty"`
	CommitType  *string `parquet:"commit_type,optional" json:"commit_type,omitempty"`
	CommitScope *string `parquet:"commit_scope,optional" json:"commit_scope,omitempty"`
}

// Compliant reports whether the record has been labeled CCS-compliant.
func (r CommitRecord) Compliant() bool {
	return r.IsCCS != nil && *r.IsCCS == 1
}

// Labeled reports whether the record carries an is_CCS value at all.
func (r CommitRecord) Labeled() bool {
	return r.IsCCS != nil
}

// Time parses the record's date column.
func (r CommitRecord) Time() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// Label returns the is_CCS column value for a compliance verdict.
func Label(compliant bool) *int32 {
	v := int32(0)
	if compliant {
		v = 1
	}
	return &v
}

// UniqueRepos returns the sorted set of repository names present in rows.
func UniqueRepos(rows []CommitRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.Repo] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for repo := range seen {
		out = append(out, repo)
	}
	sort.Strings(out)
	return out
}
