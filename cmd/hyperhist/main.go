// Command hyperhist prints summary statistics and a histogram of a file of
// comma separated integers.
//
//	hyperhist [flags] <file> <bin_count>
//	hyperhist -generate <file>
//	hyperhist [flags] -serve <addr>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hyp3rd/ewrap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hyp3rd/hyperhist"
	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/pkg/datagen"
	"github.com/hyp3rd/hyperhist/pkg/middleware"
	"github.com/hyp3rd/hyperhist/pkg/render"
)

const (
	instrumentationName = "github.com/hyp3rd/hyperhist"
	shutdownTimeout     = 5 * time.Second
	reportCacheSize     = 128
)

var errUsage = ewrap.New("usage: hyperhist [flags] <file> <bin_count>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	if errors.Is(err, flag.ErrHelp) {
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	startingRange int
	endingRange   int
	maxBlocks     int
	configPath    string
	format        string
	whitespace    bool
	noColor       bool
	verbose       bool
	generate      string
	serve         string

	set  map[string]bool
	args []string
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	cf := &cliFlags{set: map[string]bool{}}

	fs := flag.NewFlagSet("hyperhist", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.IntVar(&cf.startingRange, "starting-range", 0, "first value of the histogram domain (default: data minimum)")
	fs.IntVar(&cf.startingRange, "s", 0, "shorthand for -starting-range")
	fs.IntVar(&cf.endingRange, "ending-range", 0, "last value of the histogram domain (default: data maximum)")
	fs.IntVar(&cf.endingRange, "e", 0, "shorthand for -ending-range")
	fs.IntVar(&cf.maxBlocks, "max-blocks", constants.DefaultMaxBlocks, "maximum number of blocks drawn for the fullest bin")
	fs.IntVar(&cf.maxBlocks, "m", constants.DefaultMaxBlocks, "shorthand for -max-blocks")
	fs.StringVar(&cf.configPath, "config", "", "configuration file (yaml, json or toml)")
	fs.StringVar(&cf.format, "format", constants.DefaultFormat, "output format: table, json, msgpack, cbor or yaml")
	fs.BoolVar(&cf.whitespace, "whitespace", false, "also split values on whitespace")
	fs.BoolVar(&cf.noColor, "no-color", false, "disable coloured output")
	fs.BoolVar(&cf.verbose, "verbose", false, "log pipeline calls to stderr")
	fs.StringVar(&cf.generate, "generate", "", "write synthetic binomial samples to `file` and exit")
	fs.StringVar(&cf.serve, "serve", "", "serve the pipeline over HTTP on `addr`")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			cf.set["starting-range"] = true
		case "e":
			cf.set["ending-range"] = true
		case "m":
			cf.set["max-blocks"] = true
		default:
			cf.set[f.Name] = true
		}
	})

	cf.args = fs.Args()

	return cf, nil
}

// options turns the explicitly set flags into config overrides.
func (cf *cliFlags) options() []hyperhist.Option {
	var opts []hyperhist.Option

	if cf.set["starting-range"] {
		opts = append(opts, hyperhist.WithStartingRange(cf.startingRange))
	}

	if cf.set["ending-range"] {
		opts = append(opts, hyperhist.WithEndingRange(cf.endingRange))
	}

	if cf.set["max-blocks"] {
		opts = append(opts, hyperhist.WithMaxBlocks(cf.maxBlocks))
	}

	if cf.set["format"] {
		opts = append(opts, hyperhist.WithFormat(cf.format))
	}

	if cf.whitespace {
		opts = append(opts, hyperhist.WithTokenizer(constants.TokenizerWhitespace))
	}

	return opts
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cf, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if cf.generate != "" {
		return datagen.WriteFile(cf.generate)
	}

	opts := cf.options()

	var path string

	switch {
	case cf.serve != "" && len(cf.args) == 0:
		// bins come from each request or the config
	case len(cf.args) == 2:
		path = cf.args[0]

		binCount, convErr := strconv.Atoi(cf.args[1])
		if convErr != nil {
			return ewrap.Wrapf(convErr, "bin count %q", cf.args[1])
		}

		opts = append(opts, hyperhist.WithBinCount(binCount))
	default:
		return errUsage
	}

	cfg, err := loadConfig(cf.configPath, opts)
	if err != nil {
		return err
	}

	logger := newLogger(cf.verbose, stderr)

	defer func() { _ = logger.Sync() }()

	svc, err := newService(cfg, logger.Sugar())
	if err != nil {
		return err
	}

	if cf.serve != "" {
		return serve(ctx, cf.serve, svc, logger.Sugar())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ewrap.Wrapf(err, "reading %s", path)
	}

	return process(ctx, stdout, svc, string(content), !cf.noColor)
}

func loadConfig(path string, opts []hyperhist.Option) (hyperhist.Config, error) {
	if path != "" {
		return hyperhist.LoadConfig(path, opts...)
	}

	cfg := hyperhist.NewConfig(opts...)

	return cfg, cfg.Validate()
}

// newLogger returns a development console logger on stderr when verbose, a no-op logger otherwise.
func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.DebugLevel,
	)

	return zap.New(core)
}

// newService wraps the pipeline with tracing, metrics and logging. The OTel
// providers are the globally registered ones.
func newService(cfg hyperhist.Config, logger middleware.Logger) (hyperhist.Service, error) {
	base, err := hyperhist.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}

	metered, err := middleware.NewOTelMetricsMiddleware(base, otel.GetMeterProvider().Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	return hyperhist.ApplyMiddleware(metered,
		func(next hyperhist.Service) hyperhist.Service {
			return middleware.NewOTelTracingMiddleware(next, otel.Tracer(instrumentationName))
		},
		func(next hyperhist.Service) hyperhist.Service {
			return middleware.NewLoggingMiddleware(next, logger)
		},
	), nil
}

func serve(ctx context.Context, addr string, svc hyperhist.Service, logger middleware.Logger) error {
	srv, err := hyperhist.NewHTTPServer(addr, svc, hyperhist.WithHTTPReportCache(reportCacheSize))
	if err != nil {
		return err
	}

	err = srv.Start(ctx)
	if err != nil {
		return err
	}

	logger.Infof("serving on %s", srv.Address())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// process runs the pipeline over content and writes the result in the configured format.
func process(ctx context.Context, w io.Writer, svc hyperhist.Service, content string, color bool) error {
	cfg := svc.Config()

	st, err := svc.Aggregate(ctx, content)
	if err != nil {
		return err
	}

	h, err := svc.Bin(ctx, st, cfg.BinCount, cfg.HistogramOptions()...)
	if err != nil {
		return err
	}

	if cfg.Format != constants.FormatTable {
		data, encErr := hyperhist.NewReport(content, st, h).Encode(cfg.Format)
		if encErr != nil {
			return encErr
		}

		_, err = w.Write(data)

		return err
	}

	printer := render.NewPrinter(w, render.WithColor(color))

	err = printer.Statistics(st)
	if err != nil {
		return err
	}

	return printer.Histogram(h)
}
