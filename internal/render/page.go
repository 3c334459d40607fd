// Package render turns an analysis into an HTML page with a force-directed
// graph, or a plain-text hotspot report.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
)

const (
	styleTagLen = 8 // len("</style>").

	// DefaultAssetsHost serves echarts.min.js.
	DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
)

// Renderable is the interface for chart components.
type Renderable interface {
	Render(w io.Writer) error
}

// Stat is one labeled figure in the page header.
type Stat struct {
	Label string
	Value string
}

// Legend describes the color scale shown above the chart.
type Legend struct {
	LowLabel  string
	HighLabel string
	Stops     []string
}

// Page is a complete heatmap page.
type Page struct {
	Title       string
	Description string
	ProjectName string
	Stats       []Stat
	Legend      Legend
	Chart       Renderable
	// ChartID is the DOM id of the chart; the search box script drives the
	// echarts instance registered under it.
	ChartID string
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	return HTMLRenderer{}.Render(w, p)
}

// HTMLRenderer renders pages as HTML.
type HTMLRenderer struct {
	AssetsHost string
	ExtraCSS   string
}

type headerData struct {
	ProjectName string
	Title       string
	Description string
	Stats       []Stat
}

type toolbarData struct {
	LowLabel  string
	HighLabel string
	Stops     []template.CSS
}

type scriptsData struct {
	ChartID template.JS
}

type pageData struct {
	Title       string
	Description string
	DarkClass   string
	AssetsHost  string
	ExtraCSS    template.CSS
	Header      template.HTML
	Toolbar     template.HTML
	Content     template.HTML
	Scripts     template.HTML
}

// Render writes the page as HTML to the writer.
func (r HTMLRenderer) Render(w io.Writer, page *Page) error {
	header, err := renderTemplate("header.html", headerData{
		ProjectName: page.ProjectName,
		Title:       page.Title,
		Description: page.Description,
		Stats:       page.Stats,
	})
	if err != nil {
		return fmt.Errorf("render header: %w", err)
	}

	stops := make([]template.CSS, 0, len(page.Legend.Stops))
	for _, stop := range page.Legend.Stops {
		stops = append(stops, template.CSS(stop))
	}

	toolbar, err := renderTemplate("toolbar.html", toolbarData{
		LowLabel:  page.Legend.LowLabel,
		HighLabel: page.Legend.HighLabel,
		Stops:     stops,
	})
	if err != nil {
		return fmt.Errorf("render toolbar: %w", err)
	}

	var content bytes.Buffer

	if page.Chart != nil {
		err = WrapChart(page.Chart).Render(&content)
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
	}

	scripts, err := renderTemplate("scripts.html", scriptsData{ChartID: template.JS(jsIdentifier(page.ChartID))})
	if err != nil {
		return fmt.Errorf("render scripts: %w", err)
	}

	assetsHost := r.AssetsHost
	if assetsHost == "" {
		assetsHost = DefaultAssetsHost
	}

	html, err := renderTemplate("page.html", pageData{
		Title:       page.Title,
		Description: page.Description,
		DarkClass:   "dark",
		AssetsHost:  assetsHost,
		ExtraCSS:    template.CSS(r.ExtraCSS),
		Header:      header,
		Toolbar:     toolbar,
		Content:     template.HTML(content.String()),
		Scripts:     scripts,
	})
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	_, err = w.Write([]byte(html))
	if err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	return nil
}

// ChartWrapper wraps an echarts chart and renders only the chart content.
type ChartWrapper struct {
	chart Renderable
}

// WrapChart wraps an echarts chart to render only the div and script (no full HTML page).
func WrapChart(chart Renderable) *ChartWrapper {
	return &ChartWrapper{chart: chart}
}

// Render writes the chart element and script without a full HTML page.
func (cw *ChartWrapper) Render(w io.Writer) error {
	if cw.chart == nil {
		return nil
	}

	var buf bytes.Buffer

	err := cw.chart.Render(&buf)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	_, err = w.Write([]byte(extractChartContent(buf.String())))
	if err != nil {
		return fmt.Errorf("writing chart content: %w", err)
	}

	return nil
}

// extractChartContent cuts the chart container and its script out of a full
// go-echarts page. Fragments are returned unchanged.
func extractChartContent(html string) string {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<!DOCTYPE") && !strings.HasPrefix(trimmed, "<html") {
		return html
	}

	start := strings.Index(html, `<div class="container">`)
	if start == -1 {
		return html
	}

	end := strings.Index(html, `</body>`)
	if end == -1 {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	return removeStyleTags(content)
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			break
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			break
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}

	return content
}

// jsIdentifier keeps only the characters valid in a JavaScript identifier so
// the chart id can be spliced into the search script.
func jsIdentifier(id string) string {
	var b strings.Builder

	for _, r := range id {
		if r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "undefined"
	}

	return b.String()
}
