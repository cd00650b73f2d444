// Package datagen writes synthetic integer samples for exercising the pipeline.
package datagen

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/hyp3rd/ewrap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/internal/sentinel"
)

// Option configures the generator.
type Option func(*generator)

type generator struct {
	samples     int
	trials      int
	probability float64
	seed        *uint64
}

// WithSamples sets the number of values written.
func WithSamples(n int) Option {
	return func(g *generator) {
		g.samples = n
	}
}

// WithTrials sets the number of trials of the binomial distribution.
func WithTrials(n int) Option {
	return func(g *generator) {
		g.trials = n
	}
}

// WithProbability sets the success probability of the binomial distribution.
func WithProbability(p float64) Option {
	return func(g *generator) {
		g.probability = p
	}
}

// WithSeed makes the output reproducible.
func WithSeed(seed uint64) Option {
	return func(g *generator) {
		g.seed = &seed
	}
}

func newGenerator(opts ...Option) (*generator, error) {
	g := &generator{
		samples:     constants.DefaultSampleCount,
		trials:      constants.DefaultBinomialTrials,
		probability: constants.DefaultBinomialProbability,
	}
	for _, opt := range opts {
		opt(g)
	}

	switch {
	case g.samples <= 0:
		return nil, ewrap.Wrapf(sentinel.ErrInvalidGenerator, "samples %d", g.samples)
	case g.trials < 0:
		return nil, ewrap.Wrapf(sentinel.ErrInvalidGenerator, "trials %d", g.trials)
	case g.probability < 0 || g.probability > 1:
		return nil, ewrap.Wrapf(sentinel.ErrInvalidGenerator, "probability %v", g.probability)
	}

	return g, nil
}

func (g *generator) source() rand.Source {
	if g.seed != nil {
		return rand.NewPCG(*g.seed, *g.seed)
	}

	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}

// Binomial writes comma separated Binomial(trials, probability) samples to w.
// The output has no trailing separator.
func Binomial(w io.Writer, opts ...Option) error {
	g, err := newGenerator(opts...)
	if err != nil {
		return err
	}

	dist := distuv.Binomial{N: float64(g.trials), P: g.probability, Src: g.source()}

	bw := bufio.NewWriter(w)

	for i := range g.samples {
		if i > 0 {
			_ = bw.WriteByte(',')
		}

		_, _ = bw.WriteString(strconv.Itoa(int(dist.Rand())))
	}

	err = bw.Flush()
	if err != nil {
		return ewrap.Wrap(err, "writing samples")
	}

	return nil
}

// WriteFile creates path and fills it with Binomial samples.
func WriteFile(path string, opts ...Option) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return ewrap.Wrapf(err, "creating %s", path)
	}

	defer func() {
		cerr := f.Close()
		if err == nil && cerr != nil {
			err = ewrap.Wrapf(cerr, "closing %s", path)
		}
	}()

	return Binomial(f, opts...)
}
