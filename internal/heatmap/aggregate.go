package heatmap

import (
	"slices"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/churnmap/pkg/gitlib"
)

// Aggregate folds records into one FileStat per path. Every record counts as
// one change. The result is ordered by Changes descending; paths with equal
// counts keep the order in which they were first seen.
func Aggregate(records []gitlib.ChangeRecord) []FileStat {
	index := make(map[string]int, len(records))
	stats := make([]FileStat, 0, len(records))

	for _, record := range records {
		pos, seen := index[record.Path]
		if !seen {
			index[record.Path] = len(stats)
			stats = append(stats, FileStat{
				Path:         record.Path,
				Changes:      1,
				Insertions:   record.Insertions,
				Deletions:    record.Deletions,
				LastModified: record.Timestamp,
				Authors:      []string{record.Author},
			})

			continue
		}

		stat := &stats[pos]
		stat.Changes++
		stat.Insertions += record.Insertions
		stat.Deletions += record.Deletions

		if !slices.Contains(stat.Authors, record.Author) {
			stat.Authors = append(stat.Authors, record.Author)
		}

		if record.Timestamp.After(stat.LastModified) {
			stat.LastModified = record.Timestamp
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Changes > stats[j].Changes
	})

	return stats
}

// MaxChanges returns the largest Changes value in files, or 0 when files is empty.
func MaxChanges(files []FileStat) int {
	maxChanges := 0

	for _, file := range files {
		maxChanges = max(maxChanges, file.Changes)
	}

	return maxChanges
}

// Summarize computes the summary of an analysis. records are all records read;
// files are the filtered statistics. The date range covers every record with a
// timestamp and collapses to now when there are none.
func Summarize(records []gitlib.ChangeRecord, files []FileStat, now time.Time) Summary {
	summary := Summary{
		TotalFiles:   len(files),
		TotalChanges: len(records),
	}

	commits := make(map[string]struct{})

	var from, to time.Time

	for _, record := range records {
		if record.Commit != "" {
			commits[record.Commit] = struct{}{}
		}

		if record.Timestamp.IsZero() {
			continue
		}

		if from.IsZero() || record.Timestamp.Before(from) {
			from = record.Timestamp
		}

		if to.IsZero() || record.Timestamp.After(to) {
			to = record.Timestamp
		}
	}

	if from.IsZero() {
		from, to = now, now
	}

	summary.TotalCommits = len(commits)
	summary.DateRange = DateRange{From: from, To: to}

	return summary
}
