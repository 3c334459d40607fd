// Package server serves an analyzed repository as an interactive heatmap page
// plus JSON endpoints for the graph and the summary.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/churnmap/internal/cache"
	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/observability"
	"github.com/Sumatoshi-tech/churnmap/internal/render"
)

const (
	tracerName = "churnmap/server"

	// maxFilesParam selects the number of file nodes on / and /api/graph.
	maxFilesParam = "max_files"

	idleTimeout     = 120 * time.Second
	shutdownTimeout = 5 * time.Second
)

var (
	// ErrNoResult is returned by New when there is no analysis to serve.
	ErrNoResult = errors.New("server needs an analysis result")

	// ErrNotServing is reported by /readyz outside of Serve and once shutdown starts.
	ErrNotServing = errors.New("server is not accepting connections")
)

// Config holds the listener and projection settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// CacheEntries bounds the number of projections kept per max_files value.
	CacheEntries int
	// MaxFiles is the default number of file nodes.
	MaxFiles int
	// Title is shown in the page header, usually the repository name.
	Title string
}

// Deps are the optional collaborators of a Server. Zero values fall back to
// the global tracer, slog.Default and no metrics.
type Deps struct {
	Logger         *slog.Logger
	Tracer         trace.Tracer
	RED            *observability.REDMetrics
	MetricsHandler http.Handler
}

// Server serves one analysis result. It is safe for concurrent requests; the
// result is never mutated.
type Server struct {
	cfg         Config
	result      *heatmap.Result
	projections *cache.LRU[int, *graph.Graph]
	deps        Deps
	handler     http.Handler
	serving     atomic.Bool
}

// StatsResponse is the body of /api/stats.
type StatsResponse struct {
	Summary    heatmap.Summary `json:"summary"`
	MaxChanges int             `json:"maxChanges"`
	MaxFiles   int             `json:"maxFiles"`
	Cache      CacheStats      `json:"cache"`
}

// CacheStats reports the projection cache counters.
type CacheStats struct {
	Entries   int     `json:"entries"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hitRate"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server for result.
func New(result *heatmap.Result, cfg Config, deps Deps) (*Server, error) {
	if result == nil || result.Tree == nil {
		return nil, ErrNoResult
	}

	if cfg.MaxFiles < 1 {
		return nil, fmt.Errorf("%w: got %d", graph.ErrInvalidMaxFiles, cfg.MaxFiles)
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}

	srv := &Server{
		cfg:         cfg,
		result:      result,
		projections: cache.NewLRU[int, *graph.Graph](cfg.CacheEntries),
		deps:        deps,
	}

	srv.handler = observability.HTTPMiddleware(deps.Tracer, deps.Logger, deps.RED, srv.routes())

	return srv, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("GET /health", observability.HealthHandler())
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.ready))

	if s.deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.deps.MetricsHandler)
	}

	return mux
}

// Handler returns the instrumented route handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Listen binds the configured address. Port 0 picks a free port.
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}

	return ln, nil
}

// URL returns the browser address for a bound listener.
func URL(ln net.Listener) string {
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return "http://" + ln.Addr().String()
	}

	host := "localhost"
	if !addr.IP.IsUnspecified() && !addr.IP.IsLoopback() {
		host = addr.IP.String()
	}

	return "http://" + net.JoinHostPort(host, strconv.Itoa(addr.Port))
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	s.serving.Store(true)
	defer s.serving.Store(false)

	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	// Report unready while in-flight requests drain.
	s.serving.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.deps.Logger.InfoContext(ctx, "server stopped")

	return nil
}

// Run listens on the configured address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen(ctx)
	if err != nil {
		return err
	}

	s.deps.Logger.InfoContext(ctx, "server running", "url", URL(ln))

	return s.Serve(ctx, ln)
}

// Projection returns the graph for maxFiles, computing it at most once per
// cached value.
func (s *Server) Projection(maxFiles int) (*graph.Graph, error) {
	return s.projections.GetOrCompute(maxFiles, func() (*graph.Graph, error) {
		return graph.Project(s.result.Tree, s.result.Files, s.result.MaxChanges, maxFiles)
	})
}

func (s *Server) ready(context.Context) error {
	if !s.serving.Load() {
		return ErrNotServing
	}

	return nil
}

func (s *Server) maxFiles(hr *http.Request) (int, error) {
	raw := hr.URL.Query().Get(maxFilesParam)
	if raw == "" {
		return s.cfg.MaxFiles, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", graph.ErrInvalidMaxFiles, raw)
	}

	return n, nil
}

func (s *Server) handlePage(rw http.ResponseWriter, hr *http.Request) {
	maxFiles, err := s.maxFiles(hr)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	g, err := s.Projection(maxFiles)
	if err != nil {
		s.internalError(rw, hr, "project graph", err)

		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")

	err = render.WriteHTML(rw, g, s.result.Summary, s.title())
	if err != nil {
		s.deps.Logger.ErrorContext(hr.Context(), "render page failed", "error", err)
	}
}

func (s *Server) handleGraph(rw http.ResponseWriter, hr *http.Request) {
	maxFiles, err := s.maxFiles(hr)
	if err != nil {
		writeJSON(hr.Context(), rw, http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	g, err := s.Projection(maxFiles)
	if err != nil {
		s.internalError(rw, hr, "project graph", err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, g)
}

func (s *Server) handleStats(rw http.ResponseWriter, hr *http.Request) {
	stats := s.projections.Stats()

	writeJSON(hr.Context(), rw, http.StatusOK, StatsResponse{
		Summary:    s.result.Summary,
		MaxChanges: s.result.MaxChanges,
		MaxFiles:   s.cfg.MaxFiles,
		Cache: CacheStats{
			Entries:   stats.Entries,
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Evictions: stats.Evictions,
			HitRate:   stats.HitRate(),
		},
	})
}

func (s *Server) internalError(rw http.ResponseWriter, hr *http.Request, op string, err error) {
	s.deps.Logger.ErrorContext(hr.Context(), op+" failed", "error", err)
	writeJSON(hr.Context(), rw, http.StatusInternalServerError, errorResponse{Error: op + " failed"})
}

func (s *Server) title() string {
	if s.cfg.Title != "" {
		return s.cfg.Title
	}

	return "churnmap"
}

// Title derives a page title from a repository path.
func Title(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return filepath.Base(repoPath)
	}

	return filepath.Base(abs)
}

// writeJSON encodes value as the JSON response body.
func writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
