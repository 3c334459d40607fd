package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/churnmap/internal/config"
	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/render"
	"github.com/Sumatoshi-tech/churnmap/internal/server"
	"github.com/Sumatoshi-tech/churnmap/internal/snapshot"
)

const (
	renderCmdUse   = "render <snapshot>"
	renderCmdShort = "Render a saved snapshot as HTML"
	renderArgCount = 1
)

type renderOptions struct {
	output   string
	maxFiles int
	title    string
}

func newRenderCommand(globals *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   renderCmdUse,
		Short: renderCmdShort,
		Long: `Render draws the heatmap page of a snapshot written by
"churnmap analyze --format snapshot". The repository is not needed.`,
		Args: cobra.ExactArgs(renderArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], globals, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "write the page to this file instead of stdout")
	flags.IntVar(&opts.maxFiles, flagMaxFiles, config.DefaultMaxFiles, "maximum number of file nodes in the graph")
	flags.StringVar(&opts.title, "title", "", "page title (default: repository directory name)")

	return cmd
}

func runRender(cmd *cobra.Command, snapshotPath string, globals *globalOptions, opts *renderOptions) error {
	snap, err := snapshot.Load(snapshotPath)
	if err != nil {
		return err
	}

	result, err := snap.Result()
	if err != nil {
		return fmt.Errorf("rebuild tree: %w", err)
	}

	g, err := graph.Project(result.Tree, result.Files, result.MaxChanges, opts.maxFiles)
	if err != nil {
		return err
	}

	title := opts.title
	if title == "" {
		title = server.Title(snap.Repository)
	}

	if globals.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot of %s taken %s: %d files, %d nodes\n",
			snap.Repository, snap.CreatedAt.Format("2006-01-02 15:04"), len(snap.Files), len(g.Nodes))
	}

	return writeOutput(cmd.OutOrStdout(), opts.output, func(w io.Writer) error {
		return render.WriteHTML(w, g, result.Summary, title)
	})
}
