// Package adoption decides which repositories genuinely adopt the
// Conventional Commits convention, based on their labeled commit corpus.
package adoption

import (
	"sort"

	"ccsminer/internal/dataset"
)

// RepoStats summarizes the compliance of one repository's commits.
type RepoStats struct {
	TotalCommits        int     `json:"total_commits"`
	CompliantCommits    int     `json:"ccs_commits"`
	NonCompliantCommits int     `json:"non_ccs_commits"`
	ComplianceRate      float64 `json:"ccs_rate"`
	TrueCCS             bool    `json:"is_true_ccs"`
}

// BuildRepoStats groups labeled commit rows by repository and computes
// per-repo compliance counts and rates.
func BuildRepoStats(rows []dataset.CommitRecord) map[string]RepoStats {
	stats := make(map[string]RepoStats)
	for _, r := range rows {
		s := stats[r.Repo]
		s.TotalCommits++
		if r.Compliant() {
			s.CompliantCommits++
		}
		stats[r.Repo] = s
	}
	for repo, s := range stats {
		s.NonCompliantCommits = s.TotalCommits - s.CompliantCommits
		if s.TotalCommits > 0 {
			s.ComplianceRate = float64(s.CompliantCommits) / float64(s.TotalCommits)
		}
		s.TrueCCS = s.CompliantCommits > 0
		stats[repo] = s
	}
	return stats
}

// SelfConsistentRepos returns the repositories with at least one compliant
// commit. Repositories failing this check are dropped entirely.
func SelfConsistentRepos(stats map[string]RepoStats) map[string]struct{} {
	keep := make(map[string]struct{})
	for repo, s := range stats {
		if s.TrueCCS {
			keep[repo] = struct{}{}
		}
	}
	return keep
}

// HighRateRepos returns the repositories whose compliance rate strictly
// exceeds threshold. A repo at exactly the threshold is excluded.
func HighRateRepos(stats map[string]RepoStats, threshold float64) map[string]struct{} {
	keep := make(map[string]struct{})
	for repo, s := range stats {
		if s.ComplianceRate > threshold {
			keep[repo] = struct{}{}
		}
	}
	return keep
}

// FilterSelfConsistent keeps every commit (compliant or not) of repositories
// that pass the self-consistency check.
func FilterSelfConsistent(rows []dataset.CommitRecord, stats map[string]RepoStats) []dataset.CommitRecord {
	keep := SelfConsistentRepos(stats)
	out := make([]dataset.CommitRecord, 0, len(rows))
	for _, r := range rows {
		if _, ok := keep[r.Repo]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterHighRate keeps only the compliant commits of repositories whose
// compliance rate strictly exceeds threshold.
func FilterHighRate(rows []dataset.CommitRecord, stats map[string]RepoStats, threshold float64) []dataset.CommitRecord {
	keep := HighRateRepos(stats, threshold)
	out := make([]dataset.CommitRecord, 0, len(rows))
	for _, r := range rows {
		if _, ok := keep[r.Repo]; !ok {
			continue
		}
		if !r.Compliant() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByRepoSet keeps the commits belonging to the given repositories.
func FilterByRepoSet(rows []dataset.CommitRecord, repos map[string]struct{}) []dataset.CommitRecord {
	out := make([]dataset.CommitRecord, 0, len(rows))
	for _, r := range rows {
		if _, ok := repos[r.Repo]; ok {
			out = append(out, r)
		}
	}
	return out
}

// TopByRate returns up to n repository names ordered by descending compliance
// rate (name ascending on ties), considering only repos in the given set.
func TopByRate(stats map[string]RepoStats, set map[string]struct{}, n int) []string {
	names := make([]string, 0, len(set))
	for repo := range set {
		names = append(names, repo)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := stats[names[i]].ComplianceRate, stats[names[j]].ComplianceRate
		if ri != rj {
			return ri > rj
		}
		return names[i] < names[j]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}
