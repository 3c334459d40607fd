// Package commands implements CLI command handlers for churnmap.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/churnmap/internal/config"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/server"
	"github.com/Sumatoshi-tech/churnmap/pkg/gitlib"
)

// ReaderFactory builds the history reader for the configured backend.
type ReaderFactory func(cfg config.HistoryConfig) heatmap.HistoryReader

// Deps are the collaborators the commands reach outside the process with.
// Zero-value fields use the production defaults.
type Deps struct {
	Validator   heatmap.RepositoryValidator
	NewReader   ReaderFactory
	OpenBrowser server.BrowserOpener
}

// DefaultDeps returns the production collaborators: libgit2 validation, the
// configured history backend and the platform browser opener.
func DefaultDeps() Deps {
	return Deps{
		Validator:   gitlib.Validator{},
		NewReader:   HistoryReader,
		OpenBrowser: server.OpenBrowser,
	}
}

func (d Deps) withDefaults() Deps {
	defaults := DefaultDeps()

	if d.Validator == nil {
		d.Validator = defaults.Validator
	}

	if d.NewReader == nil {
		d.NewReader = defaults.NewReader
	}

	if d.OpenBrowser == nil {
		d.OpenBrowser = defaults.OpenBrowser
	}

	return d
}

// HistoryReader returns the reader of the configured backend: the git binary
// for "exec" and libgit2 for "libgit2".
func HistoryReader(cfg config.HistoryConfig) heatmap.HistoryReader {
	if cfg.Backend == config.BackendLibgit2 {
		return gitlib.NativeReader{}
	}

	return gitlib.NewLogReader(cfg.Timeout)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
	logJSON    bool
}

// NewRootCommand creates the churnmap command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	deps = deps.withDefaults()
	globals := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "churnmap",
		Short: "Change heatmap of a git repository",
		Long: `churnmap reads the history of a git repository, counts how often every file
changed and draws the repository tree as a force-directed graph colored by change
frequency.

Commands:
  analyze   Analyze a repository and print or save the result
  serve     Analyze a repository and serve the interactive heatmap
  render    Render a saved snapshot as HTML
  mcp       Start the MCP server for AI agents`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.configPath, "config", "", "config file (default is ./.churnmap.yaml or $HOME/.churnmap.yaml)")
	flags.BoolVarP(&globals.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&globals.logJSON, "log-json", false, "log in JSON format")

	rootCmd.AddCommand(
		newAnalyzeCommand(globals, deps),
		newServeCommand(globals, deps),
		newRenderCommand(globals),
		newMCPCommand(globals, deps),
		newVersionCommand(),
	)

	return rootCmd
}
