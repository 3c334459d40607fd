package heatmap

import (
	"strings"

	"github.com/src-d/enry/v2"
)

// FilterOptions selects which files take part in the tree. Patterns are
// literal, case-sensitive substrings of the full relative path.
type FilterOptions struct {
	// Include keeps a file when any pattern matches. Empty keeps everything.
	Include []string
	// Exclude drops a file when any pattern matches. Applied after Include.
	Exclude []string
	// SkipVendor drops vendored and generated paths such as vendor/ or node_modules/.
	SkipVendor bool
}

// IsZero reports whether opts lets every file through.
func (opts FilterOptions) IsZero() bool {
	return len(opts.Include) == 0 && len(opts.Exclude) == 0 && !opts.SkipVendor
}

// Filter returns the files accepted by opts, in their original order.
func Filter(files []FileStat, opts FilterOptions) []FileStat {
	kept := make([]FileStat, 0, len(files))

	for _, file := range files {
		if opts.Keep(file.Path) {
			kept = append(kept, file)
		}
	}

	return kept
}

// Keep reports whether path passes opts.
func (opts FilterOptions) Keep(path string) bool {
	if len(opts.Include) > 0 && !containsAny(path, opts.Include) {
		return false
	}

	if containsAny(path, opts.Exclude) {
		return false
	}

	if opts.SkipVendor && enry.IsVendor(path) {
		return false
	}

	return true
}

func containsAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}

	return false
}
