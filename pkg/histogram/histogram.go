// Package histogram folds aggregated value frequencies into equal-width bins.
//
// The domain of a histogram is the inclusive range [StartingRange, EndingRange],
// defaulting to the minimum and maximum of the data. Every bin has the same
// integer width, BinWidth = (EndingRange - StartingRange + BinCount) / BinCount,
// so the last bin may extend past EndingRange. Values outside the domain are
// dropped and counted as outliers, never clipped into the edge bins.
package histogram

import (
	"math"
	"slices"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// Histogram is the binned distribution of one input. It is read-only once returned by Bin.
type Histogram struct {
	BinCount      int   `json:"bin_count" msgpack:"bin_count" yaml:"bin_count"`
	StartingRange int   `json:"starting_range" msgpack:"starting_range" yaml:"starting_range"`
	EndingRange   int   `json:"ending_range" msgpack:"ending_range" yaml:"ending_range"`
	BinWidth      int   `json:"bin_width" msgpack:"bin_width" yaml:"bin_width"`
	Bins          []int `json:"bins" msgpack:"bins" yaml:"bins"`
	// Exact is set when every bin holds a single value (BinWidth == 1).
	Exact        bool `json:"exact" msgpack:"exact" yaml:"exact"`
	MaxBlocks    int  `json:"max_blocks" msgpack:"max_blocks" yaml:"max_blocks"`
	Scale        int  `json:"scale" msgpack:"scale" yaml:"scale"`
	Total        int  `json:"total" msgpack:"total" yaml:"total"`
	OutlierBelow int  `json:"outlier_below" msgpack:"outlier_below" yaml:"outlier_below"`
	OutlierAbove int  `json:"outlier_above" msgpack:"outlier_above" yaml:"outlier_above"`
}

// BinRange describes a single bin: its inclusive bounds, its count, and the
// number of blocks drawn for it.
type BinRange struct {
	Start  int `json:"start" msgpack:"start" yaml:"start"`
	End    int `json:"end" msgpack:"end" yaml:"end"`
	Count  int `json:"count" msgpack:"count" yaml:"count"`
	Blocks int `json:"blocks" msgpack:"blocks" yaml:"blocks"`
}

// Option configures Bin.
type Option func(*request)

type request struct {
	start     *int
	end       *int
	maxBlocks int
}

// WithStartingRange sets the first value of the histogram domain.
// Without it the domain starts at the data minimum.
func WithStartingRange(start int) Option {
	return func(r *request) {
		r.start = &start
	}
}

// WithEndingRange sets the last value of the histogram domain.
// Without it the domain ends at the data maximum.
func WithEndingRange(end int) Option {
	return func(r *request) {
		r.end = &end
	}
}

// WithMaxBlocks bounds the number of blocks drawn for the fullest bin.
func WithMaxBlocks(maxBlocks int) Option {
	return func(r *request) {
		r.maxBlocks = maxBlocks
	}
}

// Bin distributes the frequencies of st into binCount equal-width bins.
// It is a pure function of its arguments.
func Bin(st *stats.Statistics, binCount int, opts ...Option) (*Histogram, error) {
	req := request{maxBlocks: constants.DefaultMaxBlocks}
	for _, opt := range opts {
		opt(&req)
	}

	if st == nil {
		return nil, sentinel.ErrNilStatistics
	}

	if binCount <= 0 || binCount > constants.MaxBinCount {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidBinCount, "bin count %d (allowed 1..%d)", binCount, constants.MaxBinCount)
	}

	if req.maxBlocks <= 0 {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidMaxBlocks, "max blocks %d", req.maxBlocks)
	}

	start, end := st.Min, st.Max
	if req.start != nil {
		start = *req.start
	}

	if req.end != nil {
		end = *req.end
	}

	width, err := binWidth(st, start, end, binCount)
	if err != nil {
		return nil, err
	}

	h := &Histogram{
		BinCount:      binCount,
		StartingRange: start,
		EndingRange:   end,
		BinWidth:      width,
		Bins:          make([]int, binCount),
		Exact:         width == 1,
		MaxBlocks:     req.maxBlocks,
	}

	err = h.fold(st)
	if err != nil {
		return nil, err
	}

	h.Scale = Scale(h.Largest(), h.MaxBlocks)

	return h, nil
}

// binWidth validates the domain against the data and returns the uniform bin width.
func binWidth(st *stats.Statistics, start, end, binCount int) (int, error) {
	rangeErr := func(kind RangeKind) error {
		return &RangeError{Kind: kind, Start: start, End: end, Min: st.Min, Max: st.Max}
	}

	switch {
	case start > st.Max:
		return 0, rangeErr(RangeStartAboveMax)
	case end < st.Min:
		return 0, rangeErr(RangeEndBelowMin)
	case start >= end:
		return 0, rangeErr(RangeStartNotBelowEnd)
	}

	// end-start+1 values must be countable
	if start < 0 && end >= math.MaxInt+start {
		return 0, rangeErr(RangeSpanOverflow)
	}

	span := end - start
	if span == math.MaxInt {
		return 0, rangeErr(RangeSpanOverflow)
	}

	// same as (span + binCount) / binCount without the overflow
	return span/binCount + 1, nil
}

// fold adds every in-domain frequency to its bin and counts the rest as outliers.
func (h *Histogram) fold(st *stats.Statistics) error {
	var err error

	st.EachFrequency(func(value, count int) {
		if err != nil {
			return
		}

		switch {
		case value < h.StartingRange:
			h.OutlierBelow += count
		case value > h.EndingRange:
			h.OutlierAbove += count
		default:
			err = h.add(value, count)
		}
	})

	return err
}

func (h *Histogram) add(value, count int) error {
	idx := (value - h.StartingRange) / h.BinWidth
	if idx < 0 || idx >= len(h.Bins) {
		return &InternalError{Value: value, Index: idx, BinCount: len(h.Bins)}
	}

	h.Bins[idx] += count
	h.Total += count

	return nil
}

// Scale returns the divisor applied to bin counts so that the fullest bin,
// holding largest values, is drawn with at most maxBlocks blocks.
func Scale(largest, maxBlocks int) int {
	return 1 + largest/(maxBlocks+1)
}

// Largest returns the count of the fullest bin, or 1 when there are no bins.
func (h *Histogram) Largest() int {
	if len(h.Bins) == 0 {
		return 1
	}

	return slices.Max(h.Bins)
}

// Blocks returns the number of blocks drawn for a bin holding count values.
func (h *Histogram) Blocks(count int) int {
	if h.Scale <= 0 {
		return count
	}

	return count / h.Scale
}

// Range describes bin i. It panics if i is out of range, like a slice index.
func (h *Histogram) Range(i int) BinRange {
	start := addSat(h.StartingRange, mulSat(i, h.BinWidth))
	count := h.Bins[i]

	return BinRange{
		Start:  start,
		End:    addSat(start, h.BinWidth-1),
		Count:  count,
		Blocks: h.Blocks(count),
	}
}

// Ranges describes every bin in order.
func (h *Histogram) Ranges() []BinRange {
	out := make([]BinRange, len(h.Bins))
	for i := range h.Bins {
		out[i] = h.Range(i)
	}

	return out
}

// addSat adds two ints, saturating at math.MaxInt. Bin bounds past the
// domain only occur on the high side, so the low side is not guarded.
func addSat(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}

	return a + b
}

func mulSat(a, b int) int {
	if a != 0 && b > math.MaxInt/a {
		return math.MaxInt
	}

	return a * b
}
