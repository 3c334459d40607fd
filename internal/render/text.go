package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/montanaflynn/stats"

	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// DefaultTopN is the number of hotspot rows printed when none is requested.
const DefaultTopN = 20

const (
	percentileHigh = 90
	maxAuthorsShow = 3
)

// TextReport prints an analysis as a hotspot table for terminals.
type TextReport struct {
	// TopN limits the hotspot and directory tables. Zero uses DefaultTopN.
	TopN int
	// NoColor disables ANSI colors regardless of the terminal.
	NoColor bool
	// Now anchors relative times. Nil uses time.Now.
	Now func() time.Time
}

// WriteText writes the default text report of result.
func WriteText(w io.Writer, result *heatmap.Result, topN int) error {
	return TextReport{TopN: topN}.Write(w, result)
}

// Write renders the summary, change distribution, hotspots and top-level directories.
func (r TextReport) Write(w io.Writer, result *heatmap.Result) error {
	heading := color.New(color.Bold, color.FgCyan)
	muted := color.New(color.Faint)

	if r.NoColor {
		heading.DisableColor()
		muted.DisableColor()
	}

	var b strings.Builder

	summary := result.Summary

	heading.Fprintln(&b, "Change heatmap")
	fmt.Fprintf(&b, "Files: %s   Changes: %s   Commits: %s\n",
		humanize.Comma(int64(summary.TotalFiles)),
		humanize.Comma(int64(summary.TotalChanges)),
		humanize.Comma(int64(summary.TotalCommits)))
	fmt.Fprintf(&b, "Period: %s\n", Period(summary.DateRange))

	if dist, ok := Distribution(result.Files); ok {
		muted.Fprintf(&b, "Changes per file: median %.1f, p%d %.1f, max %d\n",
			dist.Median, percentileHigh, dist.P90, result.MaxChanges)
	}

	if len(result.Files) == 0 {
		muted.Fprintln(&b, "No changes in the selected history.")

		return writeString(w, b.String())
	}

	b.WriteString("\n")
	heading.Fprintln(&b, "Hotspots")
	b.WriteString(r.hotspotTable(result.Files))
	b.WriteString("\n")

	if result.Tree != nil && len(result.Tree.Root.Dirs()) > 0 {
		b.WriteString("\n")
		heading.Fprintln(&b, "Top-level directories")
		b.WriteString(r.directoryTable(result.Tree.Root, result.MaxChanges))
		b.WriteString("\n")
	}

	return writeString(w, b.String())
}

func (r TextReport) topN() int {
	if r.TopN > 0 {
		return r.TopN
	}

	return DefaultTopN
}

func (r TextReport) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}

	return time.Now()
}

func (r TextReport) hotspotTable(files []heatmap.FileStat) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Path", "Changes", "+", "-", "Last change", "Authors", "Language"})

	shown := files[:min(r.topN(), len(files))]
	now := r.now()

	for i, file := range shown {
		tbl.AppendRow(table.Row{
			i + 1,
			file.Path,
			humanize.Comma(int64(file.Changes)),
			humanize.Comma(int64(file.Insertions)),
			humanize.Comma(int64(file.Deletions)),
			lastChange(file.LastModified, now),
			authors(file.Authors),
			graph.Language(file.Path),
		})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Showing %d of %d files", len(shown), len(files))})

	return tbl.Render()
}

func (r TextReport) directoryTable(root *heatmap.DirectoryNode, maxChanges int) string {
	dirs := append([]*heatmap.DirectoryNode(nil), root.Dirs()...)
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].TotalChanges > dirs[j].TotalChanges
	})

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Directory", "Changes", "Files", "Heat"})

	for _, dir := range dirs[:min(r.topN(), len(dirs))] {
		tbl.AppendRow(table.Row{
			dir.Path + "/",
			humanize.Comma(int64(dir.TotalChanges)),
			dir.FileCount,
			fmt.Sprintf("%.0f%%", graph.Intensity(dir.TotalChanges, maxChanges)*100),
		})
	}

	return tbl.Render()
}

// Dist summarizes the per-file change counts.
type Dist struct {
	Median float64
	P90    float64
}

// Distribution returns the median and 90th percentile of per-file change
// counts. ok is false for an empty file list.
func Distribution(files []heatmap.FileStat) (Dist, bool) {
	if len(files) == 0 {
		return Dist{}, false
	}

	data := make(stats.Float64Data, 0, len(files))
	for _, file := range files {
		data = append(data, float64(file.Changes))
	}

	median, err := stats.Median(data)
	if err != nil {
		return Dist{}, false
	}

	p90, err := stats.Percentile(data, percentileHigh)
	if err != nil {
		return Dist{}, false
	}

	return Dist{Median: median, P90: p90}, true
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func lastChange(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return humanize.RelTime(t, now, "ago", "from now")
}

func authors(names []string) string {
	if len(names) <= maxAuthorsShow {
		return strings.Join(names, ", ")
	}

	return fmt.Sprintf("%s +%d", strings.Join(names[:maxAuthorsShow], ", "), len(names)-maxAuthorsShow)
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}
