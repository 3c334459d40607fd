package render_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/render"
)

func TestTextReport_Write_HotspotsAndDirectories(t *testing.T) {
	t.Parallel()

	result := sampleResult(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	result.Files[0].LastModified = now.Add(-48 * time.Hour)

	var buf bytes.Buffer

	report := render.TextReport{TopN: 2, NoColor: true, Now: func() time.Time { return now }}
	require.NoError(t, report.Write(&buf, result))

	out := buf.String()

	assert.Contains(t, out, "Change heatmap")
	assert.Contains(t, out, "Files: 3   Changes: 14   Commits: 9")
	assert.Contains(t, out, "Hotspots")
	assert.Contains(t, out, "src/main.go")
	assert.Contains(t, out, "src/util/strings.go")
	assert.NotContains(t, out, "README.md")
	assert.Contains(t, out, "Showing 2 of 3 files")
	assert.NotContains(t, out, "SHOWING")
	assert.Contains(t, out, "2 days ago")
	assert.Contains(t, out, "Top-level directories")
	assert.Contains(t, out, "src/")
	assert.NotContains(t, out, "\x1b[")
}

func TestTextReport_Write_Empty(t *testing.T) {
	t.Parallel()

	result, err := heatmap.Assemble(nil, heatmap.Summary{})
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, render.TextReport{NoColor: true}.Write(&buf, result))

	assert.Contains(t, buf.String(), "No changes in the selected history.")
	assert.False(t, strings.Contains(buf.String(), "Hotspots"))
}

func TestDistribution_MedianAndP90(t *testing.T) {
	t.Parallel()

	files := make([]heatmap.FileStat, 0, 10)
	for i := 1; i <= 10; i++ {
		files = append(files, heatmap.FileStat{Changes: i})
	}

	dist, ok := render.Distribution(files)

	require.True(t, ok)
	assert.InDelta(t, 5.5, dist.Median, 1e-9)
	// Percentile interpolates between ranks 9 and 10.
	assert.InDelta(t, 9.1, dist.P90, 1e-9)
}

func TestDistribution_Empty_NotOK(t *testing.T) {
	t.Parallel()

	_, ok := render.Distribution(nil)

	assert.False(t, ok)
}
