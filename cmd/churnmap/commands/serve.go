package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/observability"
	"github.com/Sumatoshi-tech/churnmap/internal/prompt"
	"github.com/Sumatoshi-tech/churnmap/internal/server"
)

const meterName = "churnmap"

type serveOptions struct {
	analysisFlags

	host        string
	port        int
	noOpen      bool
	interactive bool
	accessible  bool
	title       string
}

func newServeCommand(globals *globalOptions, deps Deps) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Analyze a repository and serve the interactive heatmap",
		Long: `Serve analyzes the repository at path (default: the working directory), starts
an HTTP server with the heatmap page and opens it in the browser.

Endpoints:
  /             heatmap page
  /api/graph    graph as JSON (?max_files=N)
  /api/stats    summary and cache counters
  /health       liveness
  /metrics      Prometheus metrics

With --interactive the repository, port, date range and graph size are asked for.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, globals, deps, opts)
		},
	}

	opts.register(cmd)

	flags := cmd.Flags()
	flags.StringVar(&opts.host, "host", "", "interface to listen on (default from config: localhost)")
	flags.IntVarP(&opts.port, "port", "p", 0, "port to listen on (default from config: 3000)")
	flags.BoolVar(&opts.noOpen, "no-open", false, "do not open the browser")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "ask for the options interactively")
	flags.BoolVar(&opts.accessible, "accessible", false, "plain line-based prompts for screen readers")
	flags.StringVar(&opts.title, "title", "", "page title (default: repository directory name)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string, globals *globalOptions, deps Deps, opts *serveOptions) error {
	ctx := cmd.Context()

	repoPath, err := repoPathArg(args)
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, globals, deps, observability.ModeServe)
	if err != nil {
		return err
	}
	defer sess.close(ctx)

	err = opts.applyServe(cmd, sess)
	if err != nil {
		return err
	}

	var result *heatmap.Result

	if opts.interactive {
		repoPath, result, err = promptAndAnalyze(cmd, sess, opts, repoPath)
	} else {
		result, err = sess.Analyze(ctx, repoPath, sess.cfg.AnalysisOptions())
	}

	if err != nil {
		return err
	}

	return serveResult(cmd, sess, opts, repoPath, result)
}

// applyServe copies the changed server flags into the session config.
func (o *serveOptions) applyServe(cmd *cobra.Command, sess *session) error {
	flags := cmd.Flags()

	if flags.Changed("host") {
		sess.cfg.Server.Host = o.host
	}

	if flags.Changed("port") {
		sess.cfg.Server.Port = o.port
	}

	if flags.Changed("no-open") {
		sess.cfg.Server.Open = !o.noOpen
	}

	return o.apply(cmd, sess.cfg)
}

// promptAndAnalyze asks for the serve options, then analyzes behind a spinner.
func promptAndAnalyze(
	cmd *cobra.Command,
	sess *session,
	opts *serveOptions,
	repoPath string,
) (string, *heatmap.Result, error) {
	cfg := sess.cfg
	prompter := &prompt.Prompter{
		Validator:  sess.deps.Validator,
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
		Accessible: opts.accessible,
	}

	answers, err := prompter.Run(cmd.Context(), prompt.Options{
		Path:        repoPath,
		Port:        cfg.Server.Port,
		Since:       cfg.History.Since,
		Until:       cfg.History.Until,
		MaxFiles:    cfg.Graph.MaxFiles,
		OpenBrowser: cfg.Server.Open,
	})
	if err != nil {
		return "", nil, err
	}

	prompter.Summary(answers)

	cfg.Server.Port = answers.Port
	cfg.History.Since = answers.Since
	cfg.History.Until = answers.Until
	cfg.Graph.MaxFiles = answers.MaxFiles
	cfg.Server.Open = answers.OpenBrowser

	err = cfg.Validate()
	if err != nil {
		return "", nil, fmt.Errorf("invalid answers: %w", err)
	}

	var result *heatmap.Result

	err = prompter.Spin(cmd.Context(), "Analyzing git history...", func(ctx context.Context) error {
		var analyzeErr error

		result, analyzeErr = sess.Analyze(ctx, answers.Path, cfg.AnalysisOptions())

		return analyzeErr
	})
	if err != nil {
		return "", nil, err
	}

	prompter.Done(fmt.Sprintf("Found %d files in %d commits", result.Summary.TotalFiles, result.Summary.TotalCommits))

	return answers.Path, result, nil
}

// serveResult runs the HTTP server and the browser launcher until ctx is
// canceled or the server fails. A browser that cannot be opened is logged.
func serveResult(cmd *cobra.Command, sess *session, opts *serveOptions, repoPath string, result *heatmap.Result) error {
	ctx := cmd.Context()
	cfg := sess.cfg

	meterProvider, metricsHandler, err := observability.NewPrometheusProvider()
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := meterProvider.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			sess.logger().Warn("metrics shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(meterProvider.Meter(meterName))
	if err != nil {
		return err
	}

	title := opts.title
	if title == "" {
		title = server.Title(repoPath)
	}

	srv, err := server.New(result, server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CacheEntries: cfg.Server.CacheEntries,
		MaxFiles:     cfg.Graph.MaxFiles,
		Title:        title,
	}, server.Deps{
		Logger:         sess.logger(),
		Tracer:         sess.providers.Tracer,
		RED:            red,
		MetricsHandler: metricsHandler,
	})
	if err != nil {
		return err
	}

	ln, err := srv.Listen(ctx)
	if err != nil {
		return err
	}

	url := server.URL(ln)

	fmt.Fprintf(cmd.OutOrStdout(), "Heatmap ready at %s (press Ctrl+C to stop)\n", url)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return srv.Serve(groupCtx, ln)
	})

	if cfg.Server.Open {
		group.Go(func() error {
			openErr := sess.deps.OpenBrowser(groupCtx, url)
			if openErr != nil {
				sess.logger().WarnContext(groupCtx, "could not open browser", "url", url, "error", openErr)
			}

			return nil
		})
	}

	return group.Wait()
}
