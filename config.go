package hyperhist

import (
	"slices"

	"github.com/hyp3rd/ewrap"
	"github.com/spf13/viper"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/libs/serializer"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// Config holds the settings of a hyperhist pipeline.
// StartingRange and EndingRange are optional; when nil the histogram domain
// follows the minimum and maximum of the data.
type Config struct {
	// BinCount is the number of equal-width bins of the histogram.
	BinCount int `mapstructure:"bins" json:"bins"`
	// StartingRange is the first value of the histogram domain.
	StartingRange *int `mapstructure:"starting_range" json:"starting_range,omitempty"`
	// EndingRange is the last value of the histogram domain.
	EndingRange *int `mapstructure:"ending_range" json:"ending_range,omitempty"`
	// MaxBlocks is the maximum block count drawn per row before scaling down.
	MaxBlocks int `mapstructure:"max_blocks" json:"max_blocks"`
	// Tokenizer is the name of the tokenizer flavour: "comma" or "whitespace".
	Tokenizer string `mapstructure:"tokenizer" json:"tokenizer"`
	// Format is the output format: "table" or one of the report serializers.
	Format string `mapstructure:"format" json:"format"`
}

// Option is a function type that can be used to configure the `Config` struct.
type Option func(*Config)

// NewConfig returns a new `Config` struct with default values:
//   - `BinCount` is set to `constants.DefaultBinCount`
//   - `MaxBlocks` is set to `constants.DefaultMaxBlocks`
//   - `Tokenizer` is set to "comma"
//   - `Format` is set to "table"
//   - the histogram domain follows the data
//
// Each of the above can be overridden by passing options.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		BinCount:  constants.DefaultBinCount,
		MaxBlocks: constants.DefaultMaxBlocks,
		Tokenizer: constants.TokenizerComma,
		Format:    constants.DefaultFormat,
	}

	ApplyOptions(&cfg, opts...)

	return cfg
}

// ApplyOptions applies the given options to the given config.
func ApplyOptions(cfg *Config, opts ...Option) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithBinCount sets the number of bins.
func WithBinCount(binCount int) Option {
	return func(cfg *Config) {
		cfg.BinCount = binCount
	}
}

// WithStartingRange sets the first value of the histogram domain.
func WithStartingRange(start int) Option {
	return func(cfg *Config) {
		cfg.StartingRange = &start
	}
}

// WithEndingRange sets the last value of the histogram domain.
func WithEndingRange(end int) Option {
	return func(cfg *Config) {
		cfg.EndingRange = &end
	}
}

// WithMaxBlocks sets the maximum number of blocks drawn for the fullest bin.
func WithMaxBlocks(maxBlocks int) Option {
	return func(cfg *Config) {
		cfg.MaxBlocks = maxBlocks
	}
}

// WithTokenizer sets the tokenizer flavour by name.
func WithTokenizer(name string) Option {
	return func(cfg *Config) {
		cfg.Tokenizer = name
	}
}

// WithFormat sets the output format.
func WithFormat(format string) Option {
	return func(cfg *Config) {
		cfg.Format = format
	}
}

// Validate reports the first setting that cannot drive a pipeline.
func (c Config) Validate() error {
	if c.BinCount <= 0 || c.BinCount > constants.MaxBinCount {
		return ewrap.Wrapf(sentinel.ErrInvalidBinCount, "bin count %d (allowed 1..%d)", c.BinCount, constants.MaxBinCount)
	}

	if c.MaxBlocks <= 0 {
		return ewrap.Wrapf(sentinel.ErrInvalidMaxBlocks, "max blocks %d", c.MaxBlocks)
	}

	_, err := stats.ParseTokenizer(c.Tokenizer)
	if err != nil {
		return err
	}

	if c.Format != constants.FormatTable && !slices.Contains(serializer.NewSerializerRegistry().Names(), c.Format) {
		return ewrap.Wrap(sentinel.ErrSerializerNotFound, c.Format)
	}

	return nil
}

// HistogramOptions translates the domain and display settings into binner options.
func (c Config) HistogramOptions() []histogram.Option {
	opts := []histogram.Option{histogram.WithMaxBlocks(c.MaxBlocks)}

	if c.StartingRange != nil {
		opts = append(opts, histogram.WithStartingRange(*c.StartingRange))
	}

	if c.EndingRange != nil {
		opts = append(opts, histogram.WithEndingRange(*c.EndingRange))
	}

	return opts
}

// LoadConfig reads a YAML, JSON or TOML config file, chosen by extension,
// over the defaults of NewConfig. Options are applied after the file, so
// command-line values take precedence.
func LoadConfig(path string, opts ...Option) (Config, error) {
	defaults := NewConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("bins", defaults.BinCount)
	v.SetDefault("max_blocks", defaults.MaxBlocks)
	v.SetDefault("tokenizer", defaults.Tokenizer)
	v.SetDefault("format", defaults.Format)

	err := v.ReadInConfig()
	if err != nil {
		return Config{}, ewrap.Wrapf(err, "reading config %s", path)
	}

	var cfg Config

	err = v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, ewrap.Wrapf(err, "decoding config %s", path)
	}

	ApplyOptions(&cfg, opts...)

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}
