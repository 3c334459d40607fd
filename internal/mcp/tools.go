package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// Tool name constants.
const (
	ToolNameHeatmap  = "churnmap_heatmap"
	ToolNameHotspots = "churnmap_hotspots"
)

// Defaults and bounds of tool inputs.
const (
	DefaultMaxFiles = 100
	DefaultLimit    = 20
	MaxLimit        = 1000
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRepoPath indicates the repo_path parameter is empty.
	ErrEmptyRepoPath = errors.New("repo_path parameter is required and must not be empty")
	// ErrRepoPathNotAbsolute indicates the repo_path is not an absolute path.
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	// ErrRepoNotFound indicates the repository path does not exist.
	ErrRepoNotFound = errors.New("repository path does not exist")
	// ErrInvalidLimit indicates a negative or oversized limit.
	ErrInvalidLimit = errors.New("limit must be between 0 and 1000")
	// ErrInvalidMaxFiles indicates a negative max_files.
	ErrInvalidMaxFiles = errors.New("max_files must not be negative")
)

// HeatmapInput is the input schema for the churnmap_heatmap tool.
type HeatmapInput struct {
	RepoPath string   `json:"repo_path"           jsonschema:"absolute path to a Git repository"`
	Since    string   `json:"since,omitempty"     jsonschema:"only count commits after this date (e.g. 2024-01-01 or 2 weeks ago)"`
	Until    string   `json:"until,omitempty"     jsonschema:"only count commits before this date"`
	Include  []string `json:"include,omitempty"   jsonschema:"keep only paths containing one of these substrings"`
	Exclude  []string `json:"exclude,omitempty"   jsonschema:"drop paths containing one of these substrings"`
	MaxFiles int      `json:"max_files,omitempty" jsonschema:"maximum number of file nodes in the graph (default: 100)"`
}

// HotspotsInput is the input schema for the churnmap_hotspots tool.
type HotspotsInput struct {
	RepoPath string   `json:"repo_path"         jsonschema:"absolute path to a Git repository"`
	Since    string   `json:"since,omitempty"   jsonschema:"only count commits after this date (e.g. 2024-01-01 or 2 weeks ago)"`
	Until    string   `json:"until,omitempty"   jsonschema:"only count commits before this date"`
	Include  []string `json:"include,omitempty" jsonschema:"keep only paths containing one of these substrings"`
	Exclude  []string `json:"exclude,omitempty" jsonschema:"drop paths containing one of these substrings"`
	Limit    int      `json:"limit,omitempty"   jsonschema:"number of files and directories to return (default: 20)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateRepoPath checks that repoPath is an existing absolute directory.
// Whether it is a repository is left to the analyzer.
func validateRepoPath(repoPath string) error {
	if repoPath == "" {
		return ErrEmptyRepoPath
	}

	if !filepath.IsAbs(repoPath) {
		return ErrRepoPathNotAbsolute
	}

	info, err := os.Stat(repoPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, repoPath)
	}

	return nil
}

func analysisOptions(since, until string, include, exclude []string) heatmap.Options {
	return heatmap.Options{
		Since: since,
		Until: until,
		Filter: heatmap.FilterOptions{
			Include: include,
			Exclude: exclude,
		},
	}
}
