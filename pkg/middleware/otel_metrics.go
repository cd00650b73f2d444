package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hyp3rd/hyperhist"
	"github.com/hyp3rd/hyperhist/internal/telemetry/attrs"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// OTelMetricsMiddleware emits OpenTelemetry metrics for service methods.
type OTelMetricsMiddleware struct {
	next  hyperhist.Service
	meter metric.Meter

	// instruments
	calls     metric.Int64Counter
	failures  metric.Int64Counter
	durations metric.Float64Histogram
}

// NewOTelMetricsMiddleware constructs a metrics middleware using the provided meter.
func NewOTelMetricsMiddleware(next hyperhist.Service, meter metric.Meter) (hyperhist.Service, error) {
	calls, err := meter.Int64Counter("hyperhist.calls")
	if err != nil {
		return nil, ewrap.Wrap(err, "create counter")
	}

	failures, err := meter.Int64Counter("hyperhist.errors")
	if err != nil {
		return nil, ewrap.Wrap(err, "create error counter")
	}

	durations, err := meter.Float64Histogram("hyperhist.duration.ms")
	if err != nil {
		return nil, ewrap.Wrap(err, "create histogram")
	}

	return &OTelMetricsMiddleware{next: next, meter: meter, calls: calls, failures: failures, durations: durations}, nil
}

// Aggregate implements Service.Aggregate with metrics.
func (mw *OTelMetricsMiddleware) Aggregate(ctx context.Context, content string) (*stats.Statistics, error) {
	start := time.Now()
	st, err := mw.next.Aggregate(ctx, content)

	recAttrs := []attribute.KeyValue{attribute.Int(attrs.AttrContentLength, len(content))}
	if st != nil {
		recAttrs = append(recAttrs, attribute.Int(attrs.AttrValueCount, st.Count), attribute.Int(attrs.AttrDistinctCount, st.Distinct()))
	}

	mw.rec(ctx, "Aggregate", start, err, recAttrs...)

	return st, err
}

// Bin implements Service.Bin with metrics.
func (mw *OTelMetricsMiddleware) Bin(ctx context.Context, st *stats.Statistics, binCount int, opts ...histogram.Option) (*histogram.Histogram, error) {
	start := time.Now()
	h, err := mw.next.Bin(ctx, st, binCount, opts...)

	recAttrs := []attribute.KeyValue{attribute.Int(attrs.AttrBinCount, binCount)}
	if h != nil {
		recAttrs = append(recAttrs, attribute.Int(attrs.AttrBinWidth, h.BinWidth), attribute.Int(attrs.AttrBinnedTotal, h.Total))
	}

	mw.rec(ctx, "Bin", start, err, recAttrs...)

	return h, err
}

// Config returns the service configuration.
func (mw *OTelMetricsMiddleware) Config() hyperhist.Config { return mw.next.Config() }

// rec records call count and duration with attributes.
func (mw *OTelMetricsMiddleware) rec(ctx context.Context, method string, start time.Time, err error, attributes ...attribute.KeyValue) {
	base := []attribute.KeyValue{attribute.String(attrs.AttrMethod, method)}
	if len(attributes) > 0 {
		base = append(base, attributes...)
	}

	mw.calls.Add(ctx, 1, metric.WithAttributes(base...))
	mw.durations.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(base...))

	if err != nil {
		mw.failures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrs.AttrMethod, method)))
	}
}
