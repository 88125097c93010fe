package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal    = "pyscry.files.total"
	metricBytesTotal    = "pyscry.bytes.total"
	metricFailuresTotal = "pyscry.parse.failures.total"
	metricOutcomesTotal = "pyscry.outcomes.total"
	metricScanDuration  = "pyscry.scan.duration.seconds"

	attrKind = "kind"
)

// scanDurationBounds covers one-file scripts up to monorepo sweeps.
var scanDurationBounds = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60}

// ScanMetrics holds the instruments recorded by a scan. A nil *ScanMetrics
// is valid and records nothing.
type ScanMetrics struct {
	files    metric.Int64Counter
	bytes    metric.Int64Counter
	failures metric.Int64Counter
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

// NewScanMetrics creates the scan instruments on mt.
func NewScanMetrics(mt metric.Meter) (*ScanMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &ScanMetrics{
		files:    b.counter(metricFilesTotal, "Python source files parsed", "{file}"),
		bytes:    b.counter(metricBytesTotal, "Bytes of Python source parsed", "By"),
		failures: b.counter(metricFailuresTotal, "Files that could not be read or parsed", "{file}"),
		outcomes: b.counter(metricOutcomesTotal, "Import resolution outcomes by kind", "{module}"),
		duration: b.histogram(metricScanDuration, "Wall time of a full scan", "s", scanDurationBounds...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordFile counts one parsed file of the given size.
func (sm *ScanMetrics) RecordFile(ctx context.Context, size int64) {
	if sm == nil {
		return
	}

	sm.files.Add(ctx, 1)
	sm.bytes.Add(ctx, size)
}

// RecordFailure counts one file that failed to read or parse.
func (sm *ScanMetrics) RecordFailure(ctx context.Context) {
	if sm == nil {
		return
	}

	sm.failures.Add(ctx, 1)
}

// RecordOutcome counts one resolution outcome of the given kind.
func (sm *ScanMetrics) RecordOutcome(ctx context.Context, kind string) {
	if sm == nil {
		return
	}

	sm.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}

// RecordDuration records the wall time of a finished scan.
func (sm *ScanMetrics) RecordDuration(ctx context.Context, d time.Duration) {
	if sm == nil {
		return
	}

	sm.duration.Record(ctx, d.Seconds())
}
