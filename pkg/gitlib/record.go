// Package gitlib reads per-file change history from git repositories, either
// by running the git binary or natively through libgit2.
package gitlib

import (
	"errors"
	"time"
)

var (
	// ErrInvalidRepository is returned when a path is not a git working tree.
	ErrInvalidRepository = errors.New("not a valid git repository")
	// ErrHistoryUnavailable is returned when the history could not be read.
	ErrHistoryUnavailable = errors.New("git history unavailable")
	// ErrHistoryTimeout is returned when reading the history exceeded the configured bound.
	ErrHistoryTimeout = errors.New("git history timed out")
)

// ChangeRecord is one file's line statistics attributed to a single commit.
type ChangeRecord struct {
	Commit     string
	Path       string
	Insertions int
	Deletions  int
	Author     string
	Timestamp  time.Time
}

// LogOptions bounds the history that is read.
// Since and Until are handed to git verbatim by LogReader; NativeReader
// parses them with ParseTime.
type LogOptions struct {
	Since string
	Until string
}
