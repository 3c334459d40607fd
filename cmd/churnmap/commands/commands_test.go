package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/churnmap/cmd/churnmap/commands"
	"github.com/Sumatoshi-tech/churnmap/internal/config"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/pkg/gitlib"
)

type fakeReader struct {
	mu      sync.Mutex
	records []gitlib.ChangeRecord
	opts    gitlib.LogOptions
}

func (f *fakeReader) ReadHistory(_ context.Context, _ string, opts gitlib.LogOptions) ([]gitlib.ChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opts = opts

	return f.records, nil
}

func (f *fakeReader) lastOpts() gitlib.LogOptions {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.opts
}

type fakeValidator struct{ err error }

func (f fakeValidator) Validate(context.Context, string) error { return f.err }

func at(day int) time.Time {
	return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)
}

func sampleRecords() []gitlib.ChangeRecord {
	return []gitlib.ChangeRecord{
		{Commit: "c1", Path: "src/main.go", Insertions: 10, Author: "Ann", Timestamp: at(1)},
		{Commit: "c1", Path: "README.md", Insertions: 3, Author: "Ann", Timestamp: at(1)},
		{Commit: "c2", Path: "src/main.go", Insertions: 2, Deletions: 1, Author: "Bob", Timestamp: at(2)},
		{Commit: "c2", Path: "src/util/strings.go", Insertions: 7, Author: "Bob", Timestamp: at(2)},
		{Commit: "c3", Path: "src/main.go", Deletions: 4, Author: "Ann", Timestamp: at(3)},
		{Commit: "c3", Path: "vendor/lib/lib.go", Insertions: 50, Author: "Ann", Timestamp: at(3)},
	}
}

func newDeps(reader *fakeReader) commands.Deps {
	return commands.Deps{
		Validator: fakeValidator{},
		NewReader: func(config.HistoryConfig) heatmap.HistoryReader { return reader },
		OpenBrowser: func(context.Context, string) error {
			return nil
		},
	}
}

func execute(ctx context.Context, deps commands.Deps, args ...string) (string, string, error) {
	cmd := commands.NewRootCommand(deps)

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	return stdout.String(), stderr.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	t.Parallel()

	cmd := commands.NewRootCommand(commands.Deps{})

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Subset(t, names, []string{"analyze", "serve", "render", "mcp", "version"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-json"))
}

func TestVersionCommand_PrintsVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(context.Background(), commands.Deps{}, "version")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "churnmap "))
}

func TestHistoryReader_SelectsBackend(t *testing.T) {
	t.Parallel()

	reader := commands.HistoryReader(config.HistoryConfig{Backend: config.BackendExec, Timeout: time.Minute})

	logReader, ok := reader.(*gitlib.LogReader)
	require.True(t, ok)
	assert.Equal(t, time.Minute, logReader.Timeout)

	_, ok = commands.HistoryReader(config.HistoryConfig{Backend: config.BackendLibgit2}).(gitlib.NativeReader)
	assert.True(t, ok)
}

func TestAnalyze_JSON_WritesReport(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}
	repo := t.TempDir()

	stdout, _, err := execute(context.Background(), newDeps(reader), "analyze", repo, "--format", "json")
	require.NoError(t, err)

	var report commands.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.Equal(t, repo, report.Repository)
	assert.Equal(t, 3, report.MaxChanges)
	assert.Equal(t, 4, report.Summary.TotalFiles)
	assert.Equal(t, 6, report.Summary.TotalChanges)
	assert.Equal(t, 3, report.Summary.TotalCommits)
	require.Len(t, report.Files, 4)
	assert.Equal(t, "src/main.go", report.Files[0].Path)
	assert.Equal(t, []string{"Ann", "Bob"}, report.Files[0].Authors)
	assert.NotEmpty(t, report.Graph.Nodes)
	assert.Equal(t, heatmap.RootPath, report.Graph.Nodes[0].ID)
}

func TestAnalyze_YAML_WritesReport(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}

	stdout, _, err := execute(context.Background(), newDeps(reader), "analyze", t.TempDir(), "--format", "yaml")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &report))

	assert.Contains(t, report, "summary")
	assert.Contains(t, report, "graph")
	assert.Equal(t, 3, report["maxChanges"])
}

func TestAnalyze_Text_PrintsHotspots(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}

	stdout, _, err := execute(context.Background(), newDeps(reader), "analyze", t.TempDir(), "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Change heatmap")
	assert.Contains(t, stdout, "Hotspots")
	assert.Contains(t, stdout, "src/main.go")
}

func TestAnalyze_Flags_OverrideConfig(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}

	stdout, _, err := execute(context.Background(), newDeps(reader),
		"analyze", t.TempDir(), "--format", "json",
		"--since", "2024-01-01", "--until", "2024-06-01",
		"--exclude", "vendor/,README", "--max-files", "1")
	require.NoError(t, err)

	assert.Equal(t, gitlib.LogOptions{Since: "2024-01-01", Until: "2024-06-01"}, reader.lastOpts())

	var report commands.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	require.Len(t, report.Files, 2)
	assert.Equal(t, 6, report.Summary.TotalChanges)

	fileNodes := report.Graph.FileNodes()
	require.Len(t, fileNodes, 1)
	assert.Equal(t, "src/main.go", fileNodes[0].ID)
}

func TestAnalyze_UnknownFormat_Fails(t *testing.T) {
	t.Parallel()

	_, _, err := execute(context.Background(), newDeps(&fakeReader{}), "analyze", t.TempDir(), "--format", "xml")

	require.ErrorIs(t, err, commands.ErrUnknownFormat)
}

func TestAnalyze_SnapshotWithoutOutput_Fails(t *testing.T) {
	t.Parallel()

	_, _, err := execute(context.Background(), newDeps(&fakeReader{}), "analyze", t.TempDir(), "--format", "snapshot")

	require.ErrorIs(t, err, commands.ErrSnapshotOutput)
}

func TestAnalyze_ZeroMaxFiles_Fails(t *testing.T) {
	t.Parallel()

	_, _, err := execute(context.Background(), newDeps(&fakeReader{}), "analyze", t.TempDir(), "--max-files", "0")

	require.ErrorIs(t, err, config.ErrInvalidMaxFiles)
}

func TestAnalyze_InvalidRepository_Fails(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}
	deps := newDeps(reader)
	deps.Validator = fakeValidator{err: gitlib.ErrInvalidRepository}

	_, _, err := execute(context.Background(), deps, "analyze", t.TempDir())

	require.ErrorIs(t, err, gitlib.ErrInvalidRepository)
	assert.Equal(t, gitlib.LogOptions{}, reader.lastOpts())
}

func TestAnalyze_EmptyHistory_Succeeds(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(context.Background(), newDeps(&fakeReader{}), "analyze", t.TempDir(), "--format", "json")
	require.NoError(t, err)

	var report commands.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.Empty(t, report.Files)
	assert.Equal(t, 0, report.MaxChanges)
	require.Len(t, report.Graph.Nodes, 1)
	assert.InDelta(t, 20.0, report.Graph.Nodes[0].Size, 1e-9)
}

func TestAnalyzeAndRender_Snapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "repo.churnmap.lz4")
	pagePath := filepath.Join(dir, "page.html")

	_, _, err := execute(context.Background(), newDeps(reader),
		"analyze", t.TempDir(), "--format", "snapshot", "--output", snapPath)
	require.NoError(t, err)

	_, _, err = execute(context.Background(), commands.Deps{}, "render", snapPath, "--output", pagePath, "--title", "demo")
	require.NoError(t, err)

	page, err := os.ReadFile(pagePath)
	require.NoError(t, err)

	assert.Contains(t, string(page), "echarts")
	assert.Contains(t, string(page), "src/main.go")
	assert.Contains(t, string(page), "demo")
}

func TestAnalyze_HTML_WritesFile(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{records: sampleRecords()}
	out := filepath.Join(t.TempDir(), "heatmap.html")

	stdout, _, err := execute(context.Background(), newDeps(reader),
		"analyze", t.TempDir(), "--format", "html", "--output", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<html")
}

func TestRender_MissingSnapshot_Fails(t *testing.T) {
	t.Parallel()

	_, _, err := execute(context.Background(), commands.Deps{},
		"render", filepath.Join(t.TempDir(), "missing.churnmap.lz4"))

	require.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)
	require.NoError(t, ln.Close())

	return addr.Port
}

func TestServe_OpensBrowserAndServesPage(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		openedURL string
		page      []byte
		fetchErr  error
	)

	deps := newDeps(&fakeReader{records: sampleRecords()})
	deps.OpenBrowser = func(openCtx context.Context, url string) error {
		defer cancel()

		openedURL = url

		req, err := http.NewRequestWithContext(openCtx, http.MethodGet, url, http.NoBody)
		if err != nil {
			fetchErr = err

			return err
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fetchErr = err

			return err
		}
		defer resp.Body.Close()

		page, fetchErr = io.ReadAll(resp.Body)

		return nil
	}

	port := freePort(t)

	stdout, _, err := execute(ctx, deps, "serve", t.TempDir(), "--host", "127.0.0.1", "--port", strconv.Itoa(port))
	require.NoError(t, err)
	require.NoError(t, fetchErr)

	assert.Equal(t, "http://localhost:"+strconv.Itoa(port), openedURL)
	assert.Contains(t, stdout, "Heatmap ready at "+openedURL)
	assert.Contains(t, string(page), "src/main.go")
}

func TestServe_InvalidRepository_Fails(t *testing.T) {
	t.Parallel()

	deps := newDeps(&fakeReader{})
	deps.Validator = fakeValidator{err: gitlib.ErrInvalidRepository}

	_, _, err := execute(context.Background(), deps, "serve", t.TempDir(), "--no-open")

	require.ErrorIs(t, err, gitlib.ErrInvalidRepository)
}

func TestMCPCommand_RejectsArgs(t *testing.T) {
	t.Parallel()

	_, _, err := execute(context.Background(), commands.Deps{}, "mcp", "extra")

	require.Error(t, err)
}
