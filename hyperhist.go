// Copyright 2023 F. All rights reserved.
// Use of this source code is governed by a Mozilla Public License 2.0
// license that can be found in the LICENSE file.

// Package hyperhist computes summary statistics of delimited integer text and
// bins the values into an equal-width histogram.
//
// The pipeline has two stages: stats.Aggregate parses the text in one pass,
// histogram.Bin resolves and validates the histogram domain and folds the
// per-value frequencies into bins. HyperHist exposes both stages behind the
// Service interface so logging and telemetry middleware can wrap them, and
// Run chains them into a Report.
package hyperhist

import (
	"context"

	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// HyperHist is the default Service implementation.
// It holds only its immutable configuration, so a single value can serve
// concurrent callers.
type HyperHist struct {
	cfg       Config
	tokenizer stats.Tokenizer
}

// New creates a HyperHist from the defaults of NewConfig and the given options.
func New(opts ...Option) (*HyperHist, error) {
	return NewWithConfig(NewConfig(opts...))
}

// NewWithConfig creates a HyperHist from a complete configuration.
func NewWithConfig(cfg Config) (*HyperHist, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	tokenizer, err := stats.ParseTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}

	return &HyperHist{cfg: cfg, tokenizer: tokenizer}, nil
}

// Aggregate parses content with the configured tokenizer.
func (hh *HyperHist) Aggregate(_ context.Context, content string) (*stats.Statistics, error) {
	return stats.Aggregate(content, stats.WithTokenizer(hh.tokenizer))
}

// Bin folds st into binCount bins.
func (*HyperHist) Bin(_ context.Context, st *stats.Statistics, binCount int, opts ...histogram.Option) (*histogram.Histogram, error) {
	return histogram.Bin(st, binCount, opts...)
}

// Config returns the configuration of the service.
func (hh *HyperHist) Config() Config {
	return hh.cfg
}

// Run aggregates content and bins it as configured by svc, returning the combined report.
func Run(ctx context.Context, svc Service, content string) (*Report, error) {
	cfg := svc.Config()

	return RunWith(ctx, svc, content, cfg.BinCount, cfg.HistogramOptions()...)
}

// RunWith is Run with an explicit bin count and binner options.
func RunWith(ctx context.Context, svc Service, content string, binCount int, opts ...histogram.Option) (*Report, error) {
	st, err := svc.Aggregate(ctx, content)
	if err != nil {
		return nil, err
	}

	h, err := svc.Bin(ctx, st, binCount, opts...)
	if err != nil {
		return nil, err
	}

	return NewReport(content, st, h), nil
}
