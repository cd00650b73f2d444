// Package stats turns delimited integer text into summary statistics.
//
// Aggregate scans the input once, keeping a private accumulator of count,
// sum, extrema, per-value frequencies and the running mode. The result is an
// immutable Statistics value; on any error no partial result is returned.
package stats

import (
	"maps"
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

// Statistics holds the aggregates of one input.
type Statistics struct {
	Count     int     `json:"count" msgpack:"count" yaml:"count"`
	Sum       int     `json:"sum" msgpack:"sum" yaml:"sum"`
	Mean      float64 `json:"mean" msgpack:"mean" yaml:"mean"`
	Min       int     `json:"min" msgpack:"min" yaml:"min"`
	Max       int     `json:"max" msgpack:"max" yaml:"max"`
	Mode      int     `json:"mode" msgpack:"mode" yaml:"mode"`
	ModeCount int     `json:"mode_count" msgpack:"mode_count" yaml:"mode_count"`
	// Median is the empirical 0.5 quantile, always an observed value:
	// the lower middle value when Count is even.
	Median    float64 `json:"median" msgpack:"median" yaml:"median"`
	Variance  float64 `json:"variance" msgpack:"variance" yaml:"variance"`
	StdDev    float64 `json:"std_dev" msgpack:"std_dev" yaml:"std_dev"`

	frequency map[int]int
}

// ValueCount pairs a distinct input value with the number of times it occurred.
type ValueCount struct {
	Value int `json:"value" msgpack:"value" yaml:"value"`
	Count int `json:"count" msgpack:"count" yaml:"count"`
}

// Option configures Aggregate.
type Option func(*options)

type options struct {
	tokenizer Tokenizer
}

// WithTokenizer selects how lines are split into tokens.
func WithTokenizer(t Tokenizer) Option {
	return func(o *options) {
		o.tokenizer = t
	}
}

// Aggregate parses content and returns its statistics.
// It fails with a *ParseError on the first invalid token and with
// sentinel.ErrEmptyInput when content holds no values.
func Aggregate(content string, opts ...Option) (*Statistics, error) {
	o := options{tokenizer: TokenizerComma}
	for _, opt := range opts {
		opt(&o)
	}

	acc := newAccumulator()

	for tok := range o.tokenizer.Tokens(content) {
		value, err := strconv.ParseInt(tok.Text, 10, strconv.IntSize)
		if err != nil {
			return nil, &ParseError{Line: tok.Line, Column: tok.Column, Token: tok.Text, Err: sentinel.ErrInvalidToken, Cause: err}
		}

		if !acc.add(int(value)) {
			return nil, &ParseError{Line: tok.Line, Column: tok.Column, Token: tok.Text, Err: sentinel.ErrSumOverflow}
		}
	}

	if acc.count == 0 {
		return nil, sentinel.ErrEmptyInput
	}

	return acc.statistics(), nil
}

// Frequency returns how many times value occurred in the input.
func (s *Statistics) Frequency(value int) int {
	return s.frequency[value]
}

// Distinct returns the number of distinct values in the input.
func (s *Statistics) Distinct() int {
	return len(s.frequency)
}

// Values returns the distinct values in ascending order.
func (s *Statistics) Values() []int {
	return slices.Sorted(maps.Keys(s.frequency))
}

// Frequencies returns every distinct value with its count, in ascending value order.
func (s *Statistics) Frequencies() []ValueCount {
	values := s.Values()

	out := make([]ValueCount, len(values))
	for i, v := range values {
		out[i] = ValueCount{Value: v, Count: s.frequency[v]}
	}

	return out
}

// EachFrequency calls fn for every distinct value and its count, in no particular order.
func (s *Statistics) EachFrequency(fn func(value, count int)) {
	for v, c := range s.frequency {
		fn(v, c)
	}
}

// accumulator is owned by a single Aggregate call and never escapes it.
type accumulator struct {
	count     int
	sum       int
	min       int
	max       int
	mode      int
	modeCount int
	frequency map[int]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		min:       math.MaxInt,
		max:       math.MinInt,
		frequency: make(map[int]int),
	}
}

// add folds value into the aggregates. It reports false, leaving the
// accumulator untouched, when the running sum would overflow.
func (a *accumulator) add(value int) bool {
	if (value > 0 && a.sum > math.MaxInt-value) || (value < 0 && a.sum < math.MinInt-value) {
		return false
	}

	a.count++
	a.sum += value
	a.min = min(a.min, value)
	a.max = max(a.max, value)

	a.frequency[value]++
	// strict comparison: the earliest value to reach a count keeps the mode
	if n := a.frequency[value]; n > a.modeCount {
		a.mode = value
		a.modeCount = n
	}

	return true
}

func (a *accumulator) statistics() *Statistics {
	s := &Statistics{
		Count:     a.count,
		Sum:       a.sum,
		Mean:      float64(a.sum) / float64(a.count),
		Min:       a.min,
		Max:       a.max,
		Mode:      a.mode,
		ModeCount: a.modeCount,
		frequency: a.frequency,
	}

	values := s.Values()
	x := make([]float64, len(values))
	weights := make([]float64, len(values))

	for i, v := range values {
		x[i] = float64(v)
		weights[i] = float64(a.frequency[v])
	}

	s.Median = stat.Quantile(0.5, stat.Empirical, x, weights)
	s.Variance = stat.Moment(2, x, weights)
	s.StdDev = math.Sqrt(s.Variance)

	return s
}
