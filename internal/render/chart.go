package render

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// ChartID is the DOM id of the heatmap graph.
const ChartID = "churnmap"

// Chart layout.
const (
	chartHeight      = "85vh"
	chartBackground  = "#0c0a09"
	forceRepulsion   = 220
	forceGravity     = 0.08
	forceEdgeLength  = 60
	edgeOpacity      = 0.35
	labelFontSize    = 10
	seriesName       = "changes"
	directorySymbol  = "roundRect"
	fileSymbol       = "circle"
	edgeColor        = "#57534e"
	labelColor       = "#e7e5e4"
	categoryDirIndex = 0
	categoryFileIdx  = 1
)

// tooltipFormatter shows the node path, its kind and its change count.
const tooltipFormatter = `function (p) {
  if (p.dataType === "edge") { return ""; }
  var kind = p.data.category === 0 ? "directory" : "file";
  return p.name + "<br/>" + kind + "<br/>" + (p.value || 0) + " changes";
}`

// labelFormatter prints the last path segment and "root" for the root.
const labelFormatter = `function (p) {
  if (p.name === ".") { return "root"; }
  var parts = p.name.split("/");
  return parts[parts.length - 1];
}`

// BuildGraphChart builds the force-directed graph of g. Directories are
// rounded squares and files circles; node names are repository paths.
func BuildGraphChart(g *graph.Graph) *charts.Graph {
	chart := charts.NewGraph()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           "100%",
			Height:          chartHeight,
			BackgroundColor: chartBackground,
			ChartID:         ChartID,
			Theme:           "dark",
			PageTitle:       "churnmap",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: opts.FuncOpts(tooltipFormatter),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)

	chart.AddSeries(seriesName, graphNodes(g), graphLinks(g),
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:    "force",
			Roam:      opts.Bool(true),
			Draggable: opts.Bool(true),
			Force: &opts.GraphForce{
				Repulsion:  forceRepulsion,
				Gravity:    forceGravity,
				EdgeLength: forceEdgeLength,
			},
			Categories: []*opts.GraphCategory{
				{Name: string(heatmap.KindDirectory)},
				{Name: string(heatmap.KindFile)},
			},
		}),
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Position:  "right",
			Color:     labelColor,
			FontSize:  labelFontSize,
			Formatter: string(opts.FuncOpts(labelFormatter)),
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Color:   edgeColor,
			Opacity: opts.Float(edgeOpacity),
		}),
		charts.WithEmphasisOpts(opts.Emphasis{Focus: "adjacency"}),
	)

	return chart
}

func graphNodes(g *graph.Graph) []opts.GraphNode {
	nodes := make([]opts.GraphNode, 0, len(g.Nodes))

	for _, node := range g.Nodes {
		symbol, category := fileSymbol, categoryFileIdx
		if node.Kind == heatmap.KindDirectory {
			symbol, category = directorySymbol, categoryDirIndex
		}

		nodes = append(nodes, opts.GraphNode{
			Name:       node.ID,
			Value:      float32(node.Changes),
			Category:   category,
			Symbol:     symbol,
			SymbolSize: node.Size,
			ItemStyle:  &opts.ItemStyle{Color: node.Color},
		})
	}

	return nodes
}

func graphLinks(g *graph.Graph) []opts.GraphLink {
	links := make([]opts.GraphLink, 0, len(g.Edges))

	for _, edge := range g.Edges {
		links = append(links, opts.GraphLink{Source: edge.Source, Target: edge.Target})
	}

	return links
}
