package hyperhist

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/hyp3rd/hyperhist/internal/libs/serializer"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// Summary is the exported view of stats.Statistics, including the frequency table.
type Summary struct {
	Count       int                `json:"count" msgpack:"count" yaml:"count"`
	Sum         int                `json:"sum" msgpack:"sum" yaml:"sum"`
	Mean        float64            `json:"mean" msgpack:"mean" yaml:"mean"`
	Min         int                `json:"min" msgpack:"min" yaml:"min"`
	Max         int                `json:"max" msgpack:"max" yaml:"max"`
	Mode        int                `json:"mode" msgpack:"mode" yaml:"mode"`
	ModeCount   int                `json:"mode_count" msgpack:"mode_count" yaml:"mode_count"`
	Median      float64            `json:"median" msgpack:"median" yaml:"median"`
	Variance    float64            `json:"variance" msgpack:"variance" yaml:"variance"`
	StdDev      float64            `json:"std_dev" msgpack:"std_dev" yaml:"std_dev"`
	Distinct    int                `json:"distinct" msgpack:"distinct" yaml:"distinct"`
	Frequencies []stats.ValueCount `json:"frequencies" msgpack:"frequencies" yaml:"frequencies"`
}

// Report bundles everything one pipeline run produced.
type Report struct {
	// Digest is the hex xxhash64 of the input text.
	Digest     string               `json:"digest" msgpack:"digest" yaml:"digest"`
	Statistics Summary              `json:"statistics" msgpack:"statistics" yaml:"statistics"`
	Histogram  *histogram.Histogram `json:"histogram" msgpack:"histogram" yaml:"histogram"`
	Bins       []histogram.BinRange `json:"bins" msgpack:"bins" yaml:"bins"`
}

// NewReport assembles a report for content from its statistics and histogram.
func NewReport(content string, st *stats.Statistics, h *histogram.Histogram) *Report {
	return &Report{
		Digest:     Digest(content),
		Statistics: NewSummary(st),
		Histogram:  h,
		Bins:       h.Ranges(),
	}
}

// NewSummary copies the statistics into their exported view.
func NewSummary(st *stats.Statistics) Summary {
	return Summary{
		Count:       st.Count,
		Sum:         st.Sum,
		Mean:        st.Mean,
		Min:         st.Min,
		Max:         st.Max,
		Mode:        st.Mode,
		ModeCount:   st.ModeCount,
		Median:      st.Median,
		Variance:    st.Variance,
		StdDev:      st.StdDev,
		Distinct:    st.Distinct(),
		Frequencies: st.Frequencies(),
	}
}

// Digest returns the hex xxhash64 of content.
func Digest(content string) string {
	return strconv.FormatUint(xxhash.Sum64String(content), 16)
}

// Encode serializes the report with the named serializer ("json", "msgpack", "cbor" or "yaml").
func (r *Report) Encode(format string) ([]byte, error) {
	s, err := serializer.New(format)
	if err != nil {
		return nil, err
	}

	return s.Marshal(r)
}

// DecodeReport is the inverse of Report.Encode.
func DecodeReport(format string, data []byte) (*Report, error) {
	s, err := serializer.New(format)
	if err != nil {
		return nil, err
	}

	var r Report

	err = s.Unmarshal(data, &r)
	if err != nil {
		return nil, err
	}

	return &r, nil
}
