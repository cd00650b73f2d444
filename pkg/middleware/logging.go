// Package middleware provides various middleware implementations for the hyperhist service.
// This package includes logging middleware that wraps the hyperhist service to provide
// execution time logging and method call tracing for debugging and monitoring purposes.
package middleware

import (
	"context"
	"time"

	"github.com/hyp3rd/hyperhist"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// Logger describes a logging interface allowing to implement different external, or custom logger.
// Uber's Zap SugaredLogger satisfies it, as does any other logger that matches the interface.
type Logger interface {
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// LoggingMiddleware is a middleware that logs the time it takes to execute the next middleware.
// Must implement the hyperhist.Service interface.
type LoggingMiddleware struct {
	next   hyperhist.Service
	logger Logger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(next hyperhist.Service, logger Logger) hyperhist.Service {
	return &LoggingMiddleware{next: next, logger: logger}
}

// Aggregate logs the time it takes to execute the next middleware.
func (mw LoggingMiddleware) Aggregate(ctx context.Context, content string) (*stats.Statistics, error) {
	defer func(begin time.Time) {
		mw.logger.Infof("method Aggregate took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Infof("Aggregate method called with %d bytes", len(content))

	st, err := mw.next.Aggregate(ctx, content)
	if err != nil {
		mw.logger.Errorf("Aggregate failed: %v", err)

		return nil, err
	}

	mw.logger.Infof("Aggregate read %d values (%d distinct)", st.Count, st.Distinct())

	return st, nil
}

// Bin logs the time it takes to execute the next middleware.
func (mw LoggingMiddleware) Bin(ctx context.Context, st *stats.Statistics, binCount int, opts ...histogram.Option) (*histogram.Histogram, error) {
	defer func(begin time.Time) {
		mw.logger.Infof("method Bin took: %s", time.Since(begin))
	}(time.Now())

	mw.logger.Infof("Bin method invoked with bin count: %d", binCount)

	h, err := mw.next.Bin(ctx, st, binCount, opts...)
	if err != nil {
		mw.logger.Errorf("Bin failed: %v", err)

		return nil, err
	}

	mw.logger.Infof("Bin produced %d bins of width %d over [%d, %d]", h.BinCount, h.BinWidth, h.StartingRange, h.EndingRange)

	return h, nil
}

// Config returns the configuration of the next middleware.
func (mw LoggingMiddleware) Config() hyperhist.Config {
	return mw.next.Config()
}
