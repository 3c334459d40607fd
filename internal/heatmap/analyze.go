package heatmap

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/churnmap/pkg/gitlib"
)

const tracerName = "churnmap"

// HistoryReader yields the change records of a repository.
type HistoryReader interface {
	ReadHistory(ctx context.Context, repoPath string, opts gitlib.LogOptions) ([]gitlib.ChangeRecord, error)
}

// RepositoryValidator checks that a path is a readable repository.
type RepositoryValidator interface {
	Validate(ctx context.Context, path string) error
}

// Options configures one analysis.
type Options struct {
	Since  string
	Until  string
	Filter FilterOptions
}

// Result is the output of the pipeline. It is not modified after Analyze returns.
type Result struct {
	Files      []FileStat
	Tree       *Tree
	MaxChanges int
	Summary    Summary
}

// Assemble builds the tree for already filtered files.
func Assemble(files []FileStat, summary Summary) (*Result, error) {
	tree, err := BuildTree(files)
	if err != nil {
		return nil, err
	}

	return &Result{
		Files:      files,
		Tree:       tree,
		MaxChanges: MaxChanges(files),
		Summary:    summary,
	}, nil
}

// Analyzer runs validate, read, aggregate, filter and tree building in sequence.
type Analyzer struct {
	Validator RepositoryValidator
	Reader    HistoryReader

	// Tracer creates the analysis spans. When nil, falls back to otel.Tracer("churnmap").
	Tracer trace.Tracer

	// Now stamps empty histories. Defaults to time.Now.
	Now func() time.Time
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(validator RepositoryValidator, reader HistoryReader) *Analyzer {
	return &Analyzer{Validator: validator, Reader: reader}
}

func (a *Analyzer) tracer() trace.Tracer {
	if a.Tracer != nil {
		return a.Tracer
	}

	return otel.Tracer(tracerName)
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}

	return time.Now()
}

// Analyze produces the filtered file statistics and directory tree of repoPath.
// The repository is validated before any history is read.
func (a *Analyzer) Analyze(ctx context.Context, repoPath string, opts Options) (*Result, error) {
	ctx, span := a.tracer().Start(ctx, "churnmap.analyze",
		trace.WithAttributes(attribute.String("repo.path", repoPath)))
	defer span.End()

	result, err := a.analyze(ctx, repoPath, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("analysis.records", result.Summary.TotalChanges),
		attribute.Int("analysis.files", result.Summary.TotalFiles),
		attribute.Int("analysis.max_changes", result.MaxChanges),
	)

	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, repoPath string, opts Options) (*Result, error) {
	if a.Validator != nil {
		err := a.Validator.Validate(ctx, repoPath)
		if err != nil {
			return nil, err
		}
	}

	_, readSpan := a.tracer().Start(ctx, "churnmap.read_history")
	records, err := a.Reader.ReadHistory(ctx, repoPath, gitlib.LogOptions{Since: opts.Since, Until: opts.Until})
	readSpan.End()

	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	files := Filter(Aggregate(records), opts.Filter)

	result, err := Assemble(files, Summarize(records, files, a.now()))
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}

	return result, nil
}
