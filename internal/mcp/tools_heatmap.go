package mcp

import (
	"context"
	"fmt"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// HeatmapOutput is the data of a churnmap_heatmap result.
type HeatmapOutput struct {
	Summary heatmap.Summary `json:"summary"`
	Graph   *graph.Graph    `json:"graph"`
}

// HotspotsOutput is the data of a churnmap_hotspots result.
type HotspotsOutput struct {
	Summary     heatmap.Summary    `json:"summary"`
	Files       []heatmap.FileStat `json:"files"`
	Directories []DirectoryChanges `json:"directories"`
}

// DirectoryChanges is the cumulative change count of one directory.
type DirectoryChanges struct {
	Path    string `json:"path"`
	Changes int    `json:"changes"`
	Files   int    `json:"files"`
}

// handleHeatmap processes churnmap_heatmap tool calls.
func (s *Server) handleHeatmap(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input HeatmapInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRepoPath(input.RepoPath)
	if err != nil {
		return errorResult(err)
	}

	maxFiles := input.MaxFiles
	if maxFiles < 0 {
		return errorResult(fmt.Errorf("%w: got %d", ErrInvalidMaxFiles, maxFiles))
	}

	if maxFiles == 0 {
		maxFiles = DefaultMaxFiles
	}

	result, err := s.analyzer.Analyze(ctx, input.RepoPath,
		analysisOptions(input.Since, input.Until, input.Include, input.Exclude))
	if err != nil {
		return errorResult(fmt.Errorf("analyze: %w", err))
	}

	g, err := graph.Project(result.Tree, result.Files, result.MaxChanges, maxFiles)
	if err != nil {
		return errorResult(fmt.Errorf("project graph: %w", err))
	}

	return jsonResult(HeatmapOutput{Summary: result.Summary, Graph: g})
}

// handleHotspots processes churnmap_hotspots tool calls.
func (s *Server) handleHotspots(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input HotspotsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRepoPath(input.RepoPath)
	if err != nil {
		return errorResult(err)
	}

	limit := input.Limit
	if limit < 0 || limit > MaxLimit {
		return errorResult(fmt.Errorf("%w: got %d", ErrInvalidLimit, limit))
	}

	if limit == 0 {
		limit = DefaultLimit
	}

	result, err := s.analyzer.Analyze(ctx, input.RepoPath,
		analysisOptions(input.Since, input.Until, input.Include, input.Exclude))
	if err != nil {
		return errorResult(fmt.Errorf("analyze: %w", err))
	}

	return jsonResult(Hotspots(result, limit))
}

// Hotspots returns the limit most changed files and directories of result.
// The root directory is left out.
func Hotspots(result *heatmap.Result, limit int) HotspotsOutput {
	files := result.Files[:min(limit, len(result.Files))]

	var dirs []DirectoryChanges

	result.Tree.Root.Walk(func(dir *heatmap.DirectoryNode) {
		if dir.IsRoot() {
			return
		}

		dirs = append(dirs, DirectoryChanges{Path: dir.Path, Changes: dir.TotalChanges, Files: dir.FileCount})
	})

	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].Changes > dirs[j].Changes
	})

	if dirs == nil {
		dirs = []DirectoryChanges{}
	}

	return HotspotsOutput{
		Summary:     result.Summary,
		Files:       files,
		Directories: dirs[:min(limit, len(dirs))],
	}
}
