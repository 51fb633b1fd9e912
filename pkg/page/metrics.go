// ABOUTME: Page telemetry metrics interface and implementation for tracking page operations
// ABOUTME: Provides instrumentation for append, overflow, search, seal and clear operations

package page

import (
	"context"
	"time"

	"github.com/AtriumDB/atrium/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// PageMetrics defines the interface for page telemetry operations.
// All metrics are optional - implementations can safely be no-op.
type PageMetrics interface {
	telemetry.ComponentMetrics

	// RecordAppend records a successful append and its serialized size.
	RecordAppend(ctx context.Context, bytes int64)

	// RecordOverflow records an append rejected for lack of free space.
	RecordOverflow(ctx context.Context, bytes int64)

	// RecordSearch records one search drive and the matches it produced.
	RecordSearch(ctx context.Context, duration time.Duration, matches int64)

	// RecordSeal records the write-phase to read-phase transition.
	RecordSeal(ctx context.Context, entries int64, bytesUsed int64)

	// RecordClear records a page reuse.
	RecordClear(ctx context.Context, overwrites int64)
}

// pageMetrics implements PageMetrics using the telemetry interface.
type pageMetrics struct {
	tel telemetry.Telemetry
}

// NewPageMetrics creates a new page metrics implementation.
// If tel is nil, returns a no-op implementation.
func NewPageMetrics(tel telemetry.Telemetry) PageMetrics {
	if tel == nil {
		return &noopPageMetrics{}
	}
	return &pageMetrics{tel: tel}
}

// NewNoopPageMetrics creates a no-op page metrics implementation for testing.
func NewNoopPageMetrics() PageMetrics {
	return &noopPageMetrics{}
}

// RecordAppend records append metrics.
func (m *pageMetrics) RecordAppend(ctx context.Context, bytes int64) {
	m.tel.RecordCounter(ctx, "atrium.page.append.bytes", bytes,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
		attribute.String(telemetry.AttrStatus, telemetry.StatusSuccess),
	)
	m.tel.RecordCounter(ctx, "atrium.page.append.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
		attribute.String(telemetry.AttrStatus, telemetry.StatusSuccess),
	)
}

// RecordOverflow records a rejected append.
func (m *pageMetrics) RecordOverflow(ctx context.Context, bytes int64) {
	m.tel.RecordCounter(ctx, "atrium.page.append.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
		attribute.String(telemetry.AttrStatus, telemetry.StatusOverflow),
	)
	m.tel.RecordHistogram(ctx, "atrium.page.overflow.entry_size", float64(bytes),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
}

// RecordSearch records search drive metrics.
func (m *pageMetrics) RecordSearch(ctx context.Context, duration time.Duration, matches int64) {
	m.tel.RecordHistogram(ctx, "atrium.page.search.duration", duration.Seconds(),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
	m.tel.RecordCounter(ctx, "atrium.page.search.matches", matches,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
}

// RecordSeal records seal metrics.
func (m *pageMetrics) RecordSeal(ctx context.Context, entries int64, bytesUsed int64) {
	m.tel.RecordCounter(ctx, "atrium.page.seal.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
	m.tel.RecordHistogram(ctx, "atrium.page.seal.entries", float64(entries),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
	m.tel.RecordHistogram(ctx, "atrium.page.seal.bytes_used", float64(bytesUsed),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
}

// RecordClear records clear metrics.
func (m *pageMetrics) RecordClear(ctx context.Context, overwrites int64) {
	m.tel.RecordCounter(ctx, "atrium.page.clear.total", 1,
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
	m.tel.RecordHistogram(ctx, "atrium.page.clear.overwrites", float64(overwrites),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentPage),
	)
}

// Close releases metrics resources.
func (m *pageMetrics) Close() error {
	return nil
}

// noopPageMetrics provides a no-op implementation of PageMetrics.
type noopPageMetrics struct{}

func (n *noopPageMetrics) RecordAppend(ctx context.Context, bytes int64)   {}
func (n *noopPageMetrics) RecordOverflow(ctx context.Context, bytes int64) {}
func (n *noopPageMetrics) RecordSearch(ctx context.Context, duration time.Duration, matches int64) {
}
func (n *noopPageMetrics) RecordSeal(ctx context.Context, entries int64, bytesUsed int64) {}
func (n *noopPageMetrics) RecordClear(ctx context.Context, overwrites int64)              {}
func (n *noopPageMetrics) Close() error                                                   { return nil }
