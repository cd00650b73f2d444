package histogram

import (
	"fmt"

	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

// RangeKind identifies which range validation failed.
type RangeKind int

const (
	// RangeStartAboveMax means the starting range is greater than the data maximum.
	RangeStartAboveMax RangeKind = iota + 1
	// RangeEndBelowMin means the ending range is less than the data minimum.
	RangeEndBelowMin
	// RangeStartNotBelowEnd means the starting range is not strictly less than the ending range.
	RangeStartNotBelowEnd
	// RangeSpanOverflow means the number of values in the range does not fit in an int.
	RangeSpanOverflow
)

// RangeError reports a histogram domain that is inconsistent with the data.
type RangeError struct {
	Kind  RangeKind
	Start int
	End   int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v (range [%d, %d], data [%d, %d])", e.Unwrap(), e.Start, e.End, e.Min, e.Max)
}

// Unwrap returns the sentinel matching the failed validation.
func (e *RangeError) Unwrap() error {
	switch e.Kind {
	case RangeStartAboveMax:
		return sentinel.ErrStartAboveMax
	case RangeEndBelowMin:
		return sentinel.ErrEndBelowMin
	case RangeStartNotBelowEnd:
		return sentinel.ErrStartNotBelowEnd
	case RangeSpanOverflow:
		return sentinel.ErrRangeSpanOverflow
	default:
		return nil
	}
}

// InternalError reports a value whose computed bin index falls outside the bins.
// It is a defect in the width or index arithmetic and is never recovered from.
type InternalError struct {
	Value    int
	Index    int
	BinCount int
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%v: index %d, number %d, bins %d", sentinel.ErrBinIndexOutOfRange, e.Index, e.Value, e.BinCount)
}

// Unwrap returns sentinel.ErrBinIndexOutOfRange.
func (*InternalError) Unwrap() error {
	return sentinel.ErrBinIndexOutOfRange
}
