package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal     = "churnmap.analysis.runs.total"
	metricRecordsTotal  = "churnmap.analysis.records.total"
	metricFilesAnalyzed = "churnmap.analysis.files.total"
	metricRunDuration   = "churnmap.analysis.duration.seconds"

	attrBackend = "backend"
)

// AnalysisMetrics holds the instruments describing pipeline runs.
type AnalysisMetrics struct {
	runsTotal    metric.Int64Counter
	recordsTotal metric.Int64Counter
	filesTotal   metric.Int64Counter
	runDuration  metric.Float64Histogram
}

// AnalysisStats describes one finished run.
type AnalysisStats struct {
	Backend  string
	Records  int
	Files    int
	Duration time.Duration
	Err      error
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	b := newMetricBuilder(mt)

	am := &AnalysisMetrics{
		runsTotal:    b.counter(metricRunsTotal, "Analysis runs by outcome", "{run}"),
		recordsTotal: b.counter(metricRecordsTotal, "Change records read from history", "{record}"),
		filesTotal:   b.counter(metricFilesAnalyzed, "Files kept after filtering", "{file}"),
		runDuration:  b.histogram(metricRunDuration, "Analysis duration in seconds", "s", durationBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return am, nil
}

// RecordRun records a finished run. Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	status := StatusOK
	if stats.Err != nil {
		status = StatusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrBackend, stats.Backend),
		attribute.String(attrStatus, status),
	)

	am.runsTotal.Add(ctx, 1, attrs)
	am.runDuration.Record(ctx, stats.Duration.Seconds(), attrs)

	if stats.Err != nil {
		return
	}

	backendAttr := metric.WithAttributes(attribute.String(attrBackend, stats.Backend))
	am.recordsTotal.Add(ctx, int64(stats.Records), backendAttr)
	am.filesTotal.Add(ctx, int64(stats.Files), backendAttr)
}
