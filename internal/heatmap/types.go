// Package heatmap folds per-commit change records into per-file statistics
// and rolls them up into a directory tree with cumulative change counts.
package heatmap

import (
	"errors"
	"time"
)

// RootPath is the path of the tree root. Root-level files are its direct children.
const RootPath = "."

// ErrPathCollision is returned when one path is both a file and a directory.
var ErrPathCollision = errors.New("path is both a file and a directory")

// FileStat is the aggregated change history of one path.
type FileStat struct {
	Path         string    `json:"path"         yaml:"path"`
	Changes      int       `json:"changes"      yaml:"changes"`
	Insertions   int       `json:"insertions"   yaml:"insertions"`
	Deletions    int       `json:"deletions"    yaml:"deletions"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
	Authors      []string  `json:"authors"      yaml:"authors"`
}

// DateRange spans the timestamps of the analyzed history.
type DateRange struct {
	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to"   yaml:"to"`
}

// Summary describes one analysis.
type Summary struct {
	// TotalFiles is the number of files left after filtering.
	TotalFiles int `json:"totalFiles" yaml:"totalFiles"`
	// TotalChanges is the number of change records read, before filtering.
	TotalChanges int `json:"totalChanges" yaml:"totalChanges"`
	// TotalCommits is the number of distinct commits among the records read.
	TotalCommits int       `json:"totalCommits" yaml:"totalCommits"`
	DateRange    DateRange `json:"dateRange"    yaml:"dateRange"`
}
