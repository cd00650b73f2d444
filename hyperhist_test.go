package hyperhist

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// sequence returns "1,2,...,n".
func sequence(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strconv.Itoa(i + 1)
	}

	return strings.Join(parts, ",")
}

func TestHyperHist_Run(t *testing.T) {
	svc, err := New()
	assert.NoError(t, err)

	report, err := Run(context.Background(), svc, sequence(100))
	assert.NoError(t, err)

	assert.Equal(t, 100, report.Statistics.Count)
	assert.Equal(t, 5050, report.Statistics.Sum)
	assert.Equal(t, 50.5, report.Statistics.Mean)
	assert.Equal(t, 1, report.Statistics.Min)
	assert.Equal(t, 100, report.Statistics.Max)
	assert.Equal(t, 100, report.Statistics.Distinct)

	assert.Equal(t, constants.DefaultBinCount, report.Histogram.BinCount)
	assert.Equal(t, 10, report.Histogram.BinWidth)
	assert.Equal(t, 100, report.Histogram.Total)

	for i, b := range report.Bins {
		assert.Equal(t, 10, b.Count)
		assert.Equal(t, 1+i*10, b.Start)
		assert.Equal(t, 10+i*10, b.End)
	}

	assert.Equal(t, Digest(sequence(100)), report.Digest)
}

func TestHyperHist_RunWithConfiguredRange(t *testing.T) {
	svc, err := New(WithBinCount(3), WithStartingRange(0), WithEndingRange(8), WithMaxBlocks(2))
	assert.NoError(t, err)

	report, err := Run(context.Background(), svc, "0,1,2,3,3,3,9,-1")
	assert.NoError(t, err)

	assert.Equal(t, []int{3, 3, 0}, report.Histogram.Bins)
	assert.Equal(t, 1, report.Histogram.OutlierBelow)
	assert.Equal(t, 1, report.Histogram.OutlierAbove)
	assert.Equal(t, 2, report.Histogram.Scale)
	assert.Equal(t, 1, report.Bins[0].Blocks)
}

func TestHyperHist_WhitespaceTokenizer(t *testing.T) {
	svc, err := New(WithTokenizer(constants.TokenizerWhitespace), WithBinCount(2))
	assert.NoError(t, err)

	report, err := Run(context.Background(), svc, "1 2\t3\n4, 5")
	assert.NoError(t, err)
	assert.Equal(t, 5, report.Statistics.Count)

	comma, err := New(WithBinCount(2))
	assert.NoError(t, err)

	_, err = Run(context.Background(), comma, "1 2")

	var parseErr *stats.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestHyperHist_RunErrors(t *testing.T) {
	svc, err := New()
	assert.NoError(t, err)

	_, err = Run(context.Background(), svc, "   \n")
	assert.True(t, errors.Is(err, sentinel.ErrEmptyInput))

	_, err = Run(context.Background(), svc, "1,2\n3,four")

	var parseErr *stats.ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 2, parseErr.Line)
	assert.Equal(t, 3, parseErr.Column)
	assert.True(t, errors.Is(err, sentinel.ErrInvalidToken))

	_, err = RunWith(context.Background(), svc, "1,2,3", 2, histogram.WithEndingRange(0))

	var rangeErr *histogram.RangeError
	assert.True(t, errors.As(err, &rangeErr))
	assert.True(t, errors.Is(err, sentinel.ErrEndBelowMin))
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{name: "zero bins", opts: []Option{WithBinCount(0)}, want: sentinel.ErrInvalidBinCount},
		{name: "bins above limit", opts: []Option{WithBinCount(constants.MaxBinCount + 1)}, want: sentinel.ErrInvalidBinCount},
		{name: "negative blocks", opts: []Option{WithMaxBlocks(-1)}, want: sentinel.ErrInvalidMaxBlocks},
		{name: "unknown tokenizer", opts: []Option{WithTokenizer("semicolon")}, want: sentinel.ErrInvalidTokenizer},
		{name: "unknown format", opts: []Option{WithFormat("xml")}, want: sentinel.ErrSerializerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := New(tt.opts...)
			assert.True(t, svc == nil)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestApplyMiddleware_Order(t *testing.T) {
	var calls []string

	tag := func(name string) Middleware {
		return func(next Service) Service {
			return &tagService{Service: next, name: name, calls: &calls}
		}
	}

	base, err := New(WithBinCount(1))
	assert.NoError(t, err)

	svc := ApplyMiddleware(base, tag("inner"), tag("outer"))

	_, err = Run(context.Background(), svc, "7")
	assert.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type tagService struct {
	Service

	name  string
	calls *[]string
}

func (s *tagService) Aggregate(ctx context.Context, content string) (*stats.Statistics, error) {
	*s.calls = append(*s.calls, s.name)

	return s.Service.Aggregate(ctx, content)
}
