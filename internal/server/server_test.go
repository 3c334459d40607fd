package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/observability"
	"github.com/Sumatoshi-tech/churnmap/internal/server"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleResult(t *testing.T) *heatmap.Result {
	t.Helper()

	files := []heatmap.FileStat{
		{Path: "a/b.txt", Changes: 5},
		{Path: "d.txt", Changes: 3},
		{Path: "a/c.txt", Changes: 1},
	}

	result, err := heatmap.Assemble(files, heatmap.Summary{TotalFiles: 3, TotalChanges: 9, TotalCommits: 4})
	require.NoError(t, err)

	return result
}

func newServer(t *testing.T, deps server.Deps) *server.Server {
	t.Helper()

	if deps.Logger == nil {
		deps.Logger = discardLogger
	}

	srv, err := server.New(sampleResult(t), server.Config{
		Host:         "127.0.0.1",
		Port:         0,
		CacheEntries: 4,
		MaxFiles:     100,
		Title:        "demo",
	}, deps)
	require.NoError(t, err)

	return srv
}

func get(t *testing.T, srv *server.Server, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))

	return rec
}

func TestNew_NilResult_Fails(t *testing.T) {
	t.Parallel()

	_, err := server.New(nil, server.Config{MaxFiles: 1}, server.Deps{})

	require.ErrorIs(t, err, server.ErrNoResult)
}

func TestNew_ZeroMaxFiles_Fails(t *testing.T) {
	t.Parallel()

	_, err := server.New(sampleResult(t), server.Config{}, server.Deps{})

	require.ErrorIs(t, err, graph.ErrInvalidMaxFiles)
}

func TestServer_Page_ServesHTML(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t, server.Deps{}), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>demo</title>")
	assert.Contains(t, rec.Body.String(), `"name":"a/b.txt"`)
}

func TestServer_Health_ReturnsOK(t *testing.T) {
	t.Parallel()

	srv := newServer(t, server.Deps{})

	for _, path := range []string{"/health", "/healthz"} {
		rec := get(t, srv, path)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String(), path)
	}
}

func TestServer_Ready_UnavailableBeforeServe(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t, server.Deps{}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestServer_Ready_FollowsServeLifecycle(t *testing.T) {
	t.Parallel()

	srv := newServer(t, server.Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := srv.Listen(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get(server.URL(ln) + "/readyz") //nolint:noctx // test request.
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/readyz").Code)
}

func TestServer_UnknownPath_NotFound(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t, server.Deps{}), "/nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Graph_LimitsFiles(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t, server.Deps{}), "/api/graph?max_files=1")

	require.Equal(t, http.StatusOK, rec.Code)

	var g graph.Graph

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))

	files := g.FileNodes()
	require.Len(t, files, 1)
	assert.Equal(t, "a/b.txt", files[0].ID)
	// Root, "a" and the one retained file.
	assert.Len(t, g.Nodes, 3)
}

func TestServer_Graph_InvalidMaxFiles_BadRequest(t *testing.T) {
	t.Parallel()

	srv := newServer(t, server.Deps{})

	for _, value := range []string{"0", "-3", "many"} {
		rec := get(t, srv, "/api/graph?max_files="+value)

		assert.Equal(t, http.StatusBadRequest, rec.Code, value)
		assert.Contains(t, rec.Body.String(), "max files must be at least 1", value)
	}
}

func TestServer_Stats_ReportsSummaryAndCache(t *testing.T) {
	t.Parallel()

	srv := newServer(t, server.Deps{})

	get(t, srv, "/api/graph")
	get(t, srv, "/api/graph")

	rec := get(t, srv, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats server.StatsResponse

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

	assert.Equal(t, 3, stats.Summary.TotalFiles)
	assert.Equal(t, 9, stats.Summary.TotalChanges)
	assert.Equal(t, 5, stats.MaxChanges)
	assert.Equal(t, 100, stats.MaxFiles)
	assert.Equal(t, 1, stats.Cache.Entries)
	assert.Equal(t, int64(1), stats.Cache.Hits)
	assert.Equal(t, int64(1), stats.Cache.Misses)
}

func TestServer_Projection_Cached(t *testing.T) {
	t.Parallel()

	srv := newServer(t, server.Deps{})

	first, err := srv.Projection(2)
	require.NoError(t, err)

	second, err := srv.Projection(2)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestServer_Metrics_ServedWhenConfigured(t *testing.T) {
	t.Parallel()

	provider, handler, err := observability.NewPrometheusProvider()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, provider.Shutdown(context.Background())) })

	red, err := observability.NewREDMetrics(provider.Meter("test"))
	require.NoError(t, err)

	srv := newServer(t, server.Deps{RED: red, MetricsHandler: handler})

	get(t, srv, "/api/stats")

	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "churnmap_requests_total")
}

func TestServer_Metrics_AbsentByDefault(t *testing.T) {
	t.Parallel()

	rec := get(t, newServer(t, server.Deps{}), "/metrics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := newServer(t, server.Deps{})

	ctx, cancel := context.WithCancel(context.Background())

	ln, err := srv.Listen(ctx)
	require.NoError(t, err)

	url := server.URL(ln)
	assert.True(t, strings.HasPrefix(url, "http://localhost:"))

	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get(url + "/health") //nolint:noctx // test request.
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestTitle_UsesDirectoryName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "repo", server.Title("/tmp/work/repo"))
	assert.Equal(t, "repo", server.Title("/tmp/work/repo/"))
}
