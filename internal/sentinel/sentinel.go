// Package sentinel provides standardized error definitions for hyperhist.
// This package centralizes the errors returned by the aggregation and binning
// pipeline and by the surfaces built on top of it, so callers can match them
// with errors.Is regardless of how they were wrapped.
//
// The errors defined here cover:
// - Input parsing failures (invalid tokens, empty input, sum overflow)
// - Range validation failures of the histogram domain
// - Internal invariant violations of the bin layout
// - Configuration and encoding errors of the outer layers
//
// All errors are created using the ewrap package to provide enhanced error
// wrapping and context capabilities.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrInvalidToken is returned when a token in the input is not a valid integer.
	ErrInvalidToken = ewrap.New("invalid integer token")

	// ErrSumOverflow is returned when the running sum of the input overflows int.
	ErrSumOverflow = ewrap.New("sum of values overflows int")

	// ErrEmptyInput is returned when the input holds no values, which leaves the mean undefined.
	ErrEmptyInput = ewrap.New("input contains no values")

	// ErrNilStatistics is returned when binning is requested without statistics.
	ErrNilStatistics = ewrap.New("nil statistics")

	// ErrInvalidBinCount is returned when the requested number of bins is not positive or exceeds constants.MaxBinCount.
	ErrInvalidBinCount = ewrap.New("invalid bin count")

	// ErrInvalidMaxBlocks is returned when the maximum number of display blocks is not positive.
	ErrInvalidMaxBlocks = ewrap.New("max blocks must be positive")

	// ErrStartAboveMax is returned when the starting range is greater than the maximum value in the data.
	ErrStartAboveMax = ewrap.New("starting range exceeds data maximum")

	// ErrEndBelowMin is returned when the ending range is less than the minimum value in the data.
	ErrEndBelowMin = ewrap.New("ending range below data minimum")

	// ErrStartNotBelowEnd is returned when the starting range is not strictly less than the ending range.
	ErrStartNotBelowEnd = ewrap.New("starting range must be strictly less than ending range")

	// ErrRangeSpanOverflow is returned when the width of the requested range cannot be represented as an int.
	ErrRangeSpanOverflow = ewrap.New("range span overflows int")

	// ErrBinIndexOutOfRange is returned when a value maps outside the allocated bins.
	// It signals a defect in the width or index computation, never bad input.
	ErrBinIndexOutOfRange = ewrap.New("bin index out of range")

	// ErrParamCannotBeEmpty is returned when a parameter cannot be empty.
	ErrParamCannotBeEmpty = ewrap.New("param cannot be empty")

	// ErrSerializerNotFound is returned when a serializer is not found.
	ErrSerializerNotFound = ewrap.New("serializer not found")

	// ErrInvalidTokenizer is returned when an unknown tokenizer name is configured.
	ErrInvalidTokenizer = ewrap.New("invalid tokenizer")

	// ErrInvalidCapacity is returned when a cache is created with a negative capacity.
	ErrInvalidCapacity = ewrap.New("invalid capacity")

	// ErrInvalidGenerator is returned when the synthetic data generator is configured with impossible parameters.
	ErrInvalidGenerator = ewrap.New("invalid generator parameters")

	// ErrHTTPShutdownTimeout is returned when the HTTP server fails to shutdown before context deadline.
	ErrHTTPShutdownTimeout = ewrap.New("http shutdown timeout")
)
