package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/churnmap/internal/config"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/observability"
	"github.com/Sumatoshi-tech/churnmap/pkg/version"
)

// session is the per-invocation state of a command: the resolved config and
// the observability providers.
type session struct {
	cfg       *config.Config
	deps      Deps
	providers observability.Providers
	metrics   *observability.AnalysisMetrics
}

// newSession loads the config, applies the persistent flags and initializes
// observability for mode. Logs go to the command's stderr.
func newSession(cmd *cobra.Command, globals *globalOptions, deps Deps, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(globals.configPath)
	if err != nil {
		return nil, err
	}

	if globals.verbose {
		cfg.Logging.Level = "debug"
	}

	if globals.logJSON || mode == observability.ModeMCP {
		cfg.Logging.JSON = true
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Get().Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.HeadersFromEnv()
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("analysis metrics: %w", err)
	}

	slog.SetDefault(providers.Logger)

	return &session{cfg: cfg, deps: deps, providers: providers, metrics: metrics}, nil
}

func (s *session) logger() *slog.Logger {
	return s.providers.Logger
}

// close flushes the telemetry. Failures are logged, not returned.
func (s *session) close(ctx context.Context) {
	err := s.providers.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		s.logger().Warn("observability shutdown failed", "error", err)
	}
}

// Analyze runs the pipeline on repoPath with the configured backend and
// records the run in the analysis metrics.
func (s *session) Analyze(ctx context.Context, repoPath string, opts heatmap.Options) (*heatmap.Result, error) {
	analyzer := heatmap.NewAnalyzer(s.deps.Validator, s.deps.NewReader(s.cfg.History))
	analyzer.Tracer = s.providers.Tracer

	start := time.Now()

	result, err := analyzer.Analyze(ctx, repoPath, opts)

	stats := observability.AnalysisStats{
		Backend:  s.cfg.History.Backend,
		Duration: time.Since(start),
		Err:      err,
	}

	if result != nil {
		stats.Records = result.Summary.TotalChanges
		stats.Files = result.Summary.TotalFiles
	}

	s.metrics.RecordRun(ctx, stats)

	if err != nil {
		return nil, err
	}

	s.logger().InfoContext(ctx, "analysis finished",
		"repo", repoPath,
		"backend", s.cfg.History.Backend,
		"records", stats.Records,
		"files", stats.Files,
		"duration", stats.Duration.Round(time.Millisecond),
	)

	return result, nil
}

// repoPathArg returns the absolute repository path from the optional
// positional argument, defaulting to the working directory.
func repoPathArg(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	return abs, nil
}
