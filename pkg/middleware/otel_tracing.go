package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyp3rd/hyperhist"
	"github.com/hyp3rd/hyperhist/internal/telemetry/attrs"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// OTelTracingMiddleware wraps hyperhist.Service methods with OpenTelemetry spans.
type OTelTracingMiddleware struct {
	next   hyperhist.Service
	tracer trace.Tracer
	// static attributes applied to all spans
	commonAttrs []attribute.KeyValue
}

// OTelTracingOption allows configuring the tracing middleware.
type OTelTracingOption func(*OTelTracingMiddleware)

// WithCommonAttributes sets attributes applied to all spans.
func WithCommonAttributes(attributes ...attribute.KeyValue) OTelTracingOption {
	return func(m *OTelTracingMiddleware) { m.commonAttrs = append(m.commonAttrs, attributes...) }
}

// NewOTelTracingMiddleware creates a tracing middleware.
func NewOTelTracingMiddleware(next hyperhist.Service, tracer trace.Tracer, opts ...OTelTracingOption) hyperhist.Service {
	mw := &OTelTracingMiddleware{next: next, tracer: tracer}
	for _, o := range opts {
		o(mw)
	}

	return mw
}

// Aggregate implements Service.Aggregate with tracing.
func (mw OTelTracingMiddleware) Aggregate(ctx context.Context, content string) (*stats.Statistics, error) {
	ctx, span := mw.startSpan(ctx, "hyperhist.Aggregate", attribute.Int(attrs.AttrContentLength, len(content)))
	defer span.End()

	st, err := mw.next.Aggregate(ctx, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return st, err
	}

	span.SetAttributes(attribute.Int(attrs.AttrValueCount, st.Count), attribute.Int(attrs.AttrDistinctCount, st.Distinct()))

	return st, nil
}

// Bin implements Service.Bin with tracing.
func (mw OTelTracingMiddleware) Bin(ctx context.Context, st *stats.Statistics, binCount int, opts ...histogram.Option) (*histogram.Histogram, error) {
	ctx, span := mw.startSpan(ctx, "hyperhist.Bin", attribute.Int(attrs.AttrBinCount, binCount))
	defer span.End()

	h, err := mw.next.Bin(ctx, st, binCount, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return h, err
	}

	span.SetAttributes(attribute.Int(attrs.AttrBinWidth, h.BinWidth), attribute.Int(attrs.AttrBinnedTotal, h.Total))

	return h, nil
}

// Config returns the service configuration.
func (mw OTelTracingMiddleware) Config() hyperhist.Config { return mw.next.Config() }

// startSpan starts a span with common and provided attributes.
func (mw OTelTracingMiddleware) startSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := mw.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	if len(mw.commonAttrs) > 0 {
		span.SetAttributes(mw.commonAttrs...)
	}

	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}

	return ctx, span
}
