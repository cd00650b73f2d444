// Package constants defines default configuration values for hyperhist.
// It provides the standard display settings of the histogram renderer,
// the report formats understood by the serializer registry and the
// parameters of the synthetic data generator.
package constants

const (
	// DefaultBinCount is the number of bins used when none is configured.
	DefaultBinCount = 10
	// MaxBinCount is the largest number of bins a histogram may be split into.
	MaxBinCount = 1 << 20
	// DefaultMaxBlocks is the default maximum number of blocks drawn per histogram row
	// before the bars are scaled down.
	DefaultMaxBlocks = 30
	// BlockGlyph is the glyph repeated to draw a histogram bar.
	BlockGlyph = "■"
	// HistogramTitle is the title printed above the histogram table.
	HistogramTitle = "Histogram"

	// FormatTable renders the statistics and histogram on the console.
	FormatTable = "table"
	// FormatJSON is the name of the JSON report serializer.
	FormatJSON = "json"
	// FormatMsgpack is the name of the msgpack report serializer.
	FormatMsgpack = "msgpack"
	// FormatCBOR is the name of the CBOR report serializer.
	FormatCBOR = "cbor"
	// FormatYAML is the name of the YAML report serializer.
	FormatYAML = "yaml"
	// DefaultFormat is the output format used when none is configured.
	DefaultFormat = FormatTable

	// TokenizerComma splits lines on commas only.
	TokenizerComma = "comma"
	// TokenizerWhitespace splits lines on commas and whitespace.
	TokenizerWhitespace = "whitespace"

	// DefaultSampleCount is the number of samples written by the synthetic data generator.
	DefaultSampleCount = 100
	// DefaultBinomialTrials is the number of trials of the generator's binomial distribution.
	DefaultBinomialTrials = 20
	// DefaultBinomialProbability is the success probability of the generator's binomial distribution.
	DefaultBinomialProbability = 0.5
)
