package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/churnmap/internal/config"
)

// Flag names shared by the analysis commands.
const (
	flagSince      = "since"
	flagUntil      = "until"
	flagInclude    = "include"
	flagExclude    = "exclude"
	flagSkipVendor = "skip-vendor"
	flagMaxFiles   = "max-files"
	flagBackend    = "backend"
)

// analysisFlags override the history, filter and graph sections of the config.
// A flag only wins when it was set on the command line.
type analysisFlags struct {
	since      string
	until      string
	include    []string
	exclude    []string
	skipVendor bool
	maxFiles   int
	backend    string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.since, flagSince, "", `only count commits after this date (e.g. "2024-01-01", "2 weeks ago")`)
	flags.StringVar(&f.until, flagUntil, "", "only count commits before this date")
	flags.StringSliceVar(&f.include, flagInclude, nil, "keep only paths containing one of these substrings")
	flags.StringSliceVar(&f.exclude, flagExclude, nil, "drop paths containing one of these substrings")
	flags.BoolVar(&f.skipVendor, flagSkipVendor, false, "drop vendored and generated paths")
	flags.IntVar(&f.maxFiles, flagMaxFiles, config.DefaultMaxFiles, "maximum number of file nodes in the graph")
	flags.StringVar(&f.backend, flagBackend, config.DefaultBackend, "history backend: exec or libgit2")
}

// apply copies the changed flags into cfg and revalidates it.
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed(flagSince) {
		cfg.History.Since = f.since
	}

	if flags.Changed(flagUntil) {
		cfg.History.Until = f.until
	}

	if flags.Changed(flagInclude) {
		cfg.Filter.Include = f.include
	}

	if flags.Changed(flagExclude) {
		cfg.Filter.Exclude = f.exclude
	}

	if flags.Changed(flagSkipVendor) {
		cfg.Filter.SkipVendor = f.skipVendor
	}

	if flags.Changed(flagMaxFiles) {
		cfg.Graph.MaxFiles = f.maxFiles
	}

	if flags.Changed(flagBackend) {
		cfg.History.Backend = f.backend
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	return nil
}
