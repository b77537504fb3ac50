package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal        = "autodoc.generator.files.total"
	metricDeclarationsTotal = "autodoc.generator.declarations.total"
	metricFileDuration      = "autodoc.generator.file.duration.seconds"

	attrOutcome = "outcome"
)

// Declaration outcomes.
const (
	OutcomeAdded     = "added"
	OutcomeReplaced  = "replaced"
	OutcomeKept      = "kept"
	OutcomeUnmatched = "unmatched"
)

// GenerationMetrics holds instruments for comment generation runs.
type GenerationMetrics struct {
	filesTotal        metric.Int64Counter
	declarationsTotal metric.Int64Counter
	fileDuration      metric.Float64Histogram
}

// FileStats summarizes one processed file.
type FileStats struct {
	Added     int
	Replaced  int
	Kept      int
	Unmatched int
	Duration  time.Duration
	Skipped   bool
}

// NewGenerationMetrics creates generation instruments from mt.
func NewGenerationMetrics(mt metric.Meter) (*GenerationMetrics, error) {
	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Java files processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	decls, err := mt.Int64Counter(metricDeclarationsTotal,
		metric.WithDescription("Declarations by outcome"),
		metric.WithUnit("{declaration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDeclarationsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricFileDuration,
		metric.WithDescription("Per-file generation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFileDuration, err)
	}

	return &GenerationMetrics{
		filesTotal:        files,
		declarationsTotal: decls,
		fileDuration:      duration,
	}, nil
}

// RecordFile records the statistics of one file. Safe on a nil receiver.
func (gm *GenerationMetrics) RecordFile(ctx context.Context, stats FileStats) {
	if gm == nil {
		return
	}

	status := StatusOK
	if stats.Skipped {
		status = "skipped"
	}

	gm.filesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))

	if stats.Skipped {
		return
	}

	gm.fileDuration.Record(ctx, stats.Duration.Seconds())

	for outcome, count := range map[string]int{
		OutcomeAdded:     stats.Added,
		OutcomeReplaced:  stats.Replaced,
		OutcomeKept:      stats.Kept,
		OutcomeUnmatched: stats.Unmatched,
	} {
		if count == 0 {
			continue
		}

		gm.declarationsTotal.Add(ctx, int64(count), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	}
}
