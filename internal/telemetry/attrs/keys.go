// Package attrs defines telemetry attribute keys used for observability
// across hyperhist. These constants provide standardized key names for
// metrics and traces so the middlewares report the same dimensions.
package attrs

const (
	// AttrContentLength represents the size in bytes of the text handed to the aggregator.
	AttrContentLength = "content.len"
	// AttrValueCount represents the number of values parsed from the input.
	AttrValueCount = "values.count"
	// AttrDistinctCount represents the number of distinct values in the input.
	AttrDistinctCount = "values.distinct"
	// AttrBinCount represents the number of bins requested from the binner.
	AttrBinCount = "bins.count"
	// AttrBinWidth represents the computed width of every bin.
	AttrBinWidth = "bins.width"
	// AttrBinnedTotal represents the number of values that landed inside the histogram domain.
	AttrBinnedTotal = "bins.total"
	// AttrMethod represents the service method being measured.
	AttrMethod = "method"
)
