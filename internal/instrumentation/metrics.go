package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName identifies this module's meter.
const meterName = "github.com/renewly/renewly"

// Metric attribute keys.
const (
	attrStatus = "status"
	attrResult = "result"
)

// Metrics provides methods for recording scan observability metrics.
type Metrics struct {
	scansTotal         metric.Int64Counter
	scanDuration       metric.Float64Histogram
	messagesProcessed  metric.Int64Counter
	extractionFailures metric.Int64Counter
	priceChangesTotal  metric.Int64Counter
}

// NewMetrics creates a Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.scansTotal, err = meter.Int64Counter(
		"mailbox_scans_total",
		metric.WithDescription("Total number of mailbox scans"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailbox_scans_total counter: %w", err)
	}

	m.scanDuration, err = meter.Float64Histogram(
		"mailbox_scan_duration_seconds",
		metric.WithDescription("End-to-end mailbox scan duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailbox_scan_duration_seconds histogram: %w", err)
	}

	m.messagesProcessed, err = meter.Int64Counter(
		"scan_messages_processed_total",
		metric.WithDescription("Total number of messages fetched and inspected"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan_messages_processed_total counter: %w", err)
	}

	m.extractionFailures, err = meter.Int64Counter(
		"scan_extraction_failures_total",
		metric.WithDescription("Messages skipped because fetching or parsing failed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan_extraction_failures_total counter: %w", err)
	}

	m.priceChangesTotal, err = meter.Int64Counter(
		"scan_price_changes_total",
		metric.WithDescription("Price changes detected across scans"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan_price_changes_total counter: %w", err)
	}

	return m, nil
}

// Default creates Metrics backed by the global meter provider.
func Default() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider().Meter(meterName))
}

// RecordScan records one completed scan with its outcome and duration.
func (m *Metrics) RecordScan(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.scansTotal.Add(ctx, 1, attrs)
	m.scanDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordMessagesProcessed records the number of messages inspected by a scan.
func (m *Metrics) RecordMessagesProcessed(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.messagesProcessed.Add(ctx, int64(n))
}

// RecordExtractionFailure records one message skipped due to a per-message
// fetch or parse failure.
func (m *Metrics) RecordExtractionFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.extractionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, "skipped")))
}

// RecordPriceChanges records the number of price changes a scan detected.
func (m *Metrics) RecordPriceChanges(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.priceChangesTotal.Add(ctx, int64(n))
}
