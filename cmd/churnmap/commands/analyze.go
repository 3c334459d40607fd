package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/churnmap/internal/graph"
	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
	"github.com/Sumatoshi-tech/churnmap/internal/observability"
	"github.com/Sumatoshi-tech/churnmap/internal/render"
	"github.com/Sumatoshi-tech/churnmap/internal/server"
	"github.com/Sumatoshi-tech/churnmap/internal/snapshot"
)

// Output formats of the analyze command.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatText     = "text"
	FormatHTML     = "html"
	FormatSnapshot = "snapshot"
)

const outputFilePerm = 0o644

var formats = []string{FormatText, FormatJSON, FormatYAML, FormatHTML, FormatSnapshot}

var (
	// ErrUnknownFormat is returned for a --format outside the supported set.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrSnapshotOutput is returned when a snapshot is requested without --output.
	ErrSnapshotOutput = errors.New("snapshot format needs a file (use --output)")
)

// Report is the json and yaml form of an analysis.
type Report struct {
	Repository string             `json:"repository" yaml:"repository"`
	Summary    heatmap.Summary    `json:"summary"    yaml:"summary"`
	MaxChanges int                `json:"maxChanges" yaml:"maxChanges"`
	Files      []heatmap.FileStat `json:"files"      yaml:"files"`
	Graph      *graph.Graph       `json:"graph"      yaml:"graph"`
}

type analyzeOptions struct {
	analysisFlags

	format  string
	output  string
	topN    int
	noColor bool
}

func newAnalyzeCommand(globals *globalOptions, deps Deps) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a repository and print or save the result",
		Long: `Analyze reads the history of the repository at path (default: the working
directory) and writes the change heatmap in the selected format:

  text      hotspot tables for the terminal
  json      summary, ranked files and graph
  yaml      same as json
  html      standalone interactive page
  snapshot  compressed result that "churnmap render" can draw later`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, globals, deps, opts)
		},
	}

	opts.register(cmd)

	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", FormatText, "output format: "+strings.Join(formats, ", "))
	flags.StringVarP(&opts.output, "output", "o", "", "write to this file instead of stdout")
	flags.IntVar(&opts.topN, "top", render.DefaultTopN, "number of files in the text hotspot table")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored text output")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, globals *globalOptions, deps Deps, opts *analyzeOptions) error {
	if !slices.Contains(formats, opts.format) {
		return fmt.Errorf("%w: %s (want one of %s)", ErrUnknownFormat, opts.format, strings.Join(formats, ", "))
	}

	if opts.format == FormatSnapshot && opts.output == "" {
		return ErrSnapshotOutput
	}

	repoPath, err := repoPathArg(args)
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, globals, deps, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer sess.close(cmd.Context())

	err = opts.apply(cmd, sess.cfg)
	if err != nil {
		return err
	}

	analysisOpts := sess.cfg.AnalysisOptions()

	result, err := sess.Analyze(cmd.Context(), repoPath, analysisOpts)
	if err != nil {
		return err
	}

	if opts.format == FormatSnapshot {
		size, saveErr := snapshot.Save(opts.output, snapshot.New(repoPath, analysisOpts, result, time.Now()))
		if saveErr != nil {
			return saveErr
		}

		sess.logger().InfoContext(cmd.Context(), "snapshot saved",
			"path", opts.output, "size", humanize.Bytes(uint64(size)))

		return nil
	}

	return writeOutput(cmd.OutOrStdout(), opts.output, func(w io.Writer) error {
		return writeReport(w, opts, repoPath, result, sess.cfg.Graph.MaxFiles)
	})
}

func writeReport(w io.Writer, opts *analyzeOptions, repoPath string, result *heatmap.Result, maxFiles int) error {
	if opts.format == FormatText {
		report := render.TextReport{TopN: opts.topN, NoColor: opts.noColor || opts.output != ""}

		return report.Write(w, result)
	}

	g, err := graph.Project(result.Tree, result.Files, result.MaxChanges, maxFiles)
	if err != nil {
		return fmt.Errorf("project graph: %w", err)
	}

	switch opts.format {
	case FormatHTML:
		return render.WriteHTML(w, g, result.Summary, server.Title(repoPath))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err = enc.Encode(newReport(repoPath, result, g))
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		err = enc.Encode(newReport(repoPath, result, g))
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	}
}

func newReport(repoPath string, result *heatmap.Result, g *graph.Graph) Report {
	files := result.Files
	if files == nil {
		files = []heatmap.FileStat{}
	}

	return Report{
		Repository: repoPath,
		Summary:    result.Summary,
		MaxChanges: result.MaxChanges,
		Files:      files,
		Graph:      g,
	}
}

// writeOutput runs write against path, or stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(w io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePerm)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writeErr := write(file)
	closeErr := file.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}

	return nil
}
