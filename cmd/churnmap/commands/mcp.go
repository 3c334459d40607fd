package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/churnmap/internal/mcp"
	"github.com/Sumatoshi-tech/churnmap/internal/observability"
)

func newMCPCommand(globals *globalOptions, deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the heatmap as tools that AI agents can discover and invoke:
  - churnmap_heatmap: directory/file graph with change counts and heat colors
  - churnmap_hotspots: most changed files and directories

Logs are written to stderr as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(cmd, globals, deps, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer sess.close(cmd.Context())

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Analyzer: sess,
				Logger:   sess.logger(),
				Metrics:  red,
				Tracer:   sess.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
