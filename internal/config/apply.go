package config

import (
	"strings"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// AnalysisOptions converts the history and filter sections into pipeline options.
func (c *Config) AnalysisOptions() heatmap.Options {
	return heatmap.Options{
		Since: c.History.Since,
		Until: c.History.Until,
		Filter: heatmap.FilterOptions{
			Include:    SplitPatterns(c.Filter.Include),
			Exclude:    SplitPatterns(c.Filter.Exclude),
			SkipVendor: c.Filter.SkipVendor,
		},
	}
}

// SplitPatterns flattens comma-separated entries, trimming blanks and dropping
// empty patterns. It returns nil when nothing is left.
func SplitPatterns(values []string) []string {
	var patterns []string

	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				patterns = append(patterns, part)
			}
		}
	}

	return patterns
}
