package render

import (
	"io"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

const (
	projectName = "churnmap"
	dateLayout  = "2006-01-02"
)

// NewPage assembles the heatmap page for g. title is usually the repository name.
func NewPage(g *graph.Graph, summary heatmap.Summary, title string) *Page {
	return &Page{
		Title:       title,
		Description: "Change frequency by file and directory",
		ProjectName: projectName,
		Stats:       SummaryStats(summary),
		Legend: Legend{
			LowLabel:  "fewer changes",
			HighLabel: "more changes",
			Stops:     graph.HeatStops(),
		},
		Chart:   BuildGraphChart(g),
		ChartID: ChartID,
	}
}

// WriteHTML renders the heatmap page for g to w.
func WriteHTML(w io.Writer, g *graph.Graph, summary heatmap.Summary, title string) error {
	return NewPage(g, summary, title).Render(w)
}

// SummaryStats formats the header figures: files, total changes and the period.
func SummaryStats(summary heatmap.Summary) []Stat {
	return []Stat{
		{Label: "Files", Value: humanize.Comma(int64(summary.TotalFiles))},
		{Label: "Total changes", Value: humanize.Comma(int64(summary.TotalChanges))},
		{Label: "Commits", Value: humanize.Comma(int64(summary.TotalCommits))},
		{Label: "Period", Value: Period(summary.DateRange)},
	}
}

// Period renders a date range as "from to to" in UTC calendar dates.
func Period(r heatmap.DateRange) string {
	from := r.From.UTC().Format(dateLayout)
	to := r.To.UTC().Format(dateLayout)

	if from == to {
		return from
	}

	return from + " to " + to
}
