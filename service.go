package hyperhist

import (
	"context"

	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// Service is the service interface of the statistics-and-binning pipeline.
// It enables middleware to be added to the service.
type Service interface {
	// Aggregate parses content into its summary statistics.
	Aggregate(ctx context.Context, content string) (*stats.Statistics, error)
	// Bin folds the frequencies of st into binCount equal-width bins.
	Bin(ctx context.Context, st *stats.Statistics, binCount int, opts ...histogram.Option) (*histogram.Histogram, error)
	// Config returns the configuration the service was built with.
	Config() Config
}

// Middleware describes a service middleware.
type Middleware func(Service) Service

// ApplyMiddleware applies middlewares to a service.
func ApplyMiddleware(svc Service, mw ...Middleware) Service {
	// Apply each middleware in the chain
	for _, m := range mw {
		svc = m(svc)
	}
	// Return the decorated service
	return svc
}
