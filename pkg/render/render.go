// Package render prints statistics and histograms on a terminal.
//
// Output goes through a lipgloss renderer bound to the destination writer, so
// colour is emitted only when the writer is a terminal that supports it.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hyp3rd/hyperhist/internal/constants"
	"github.com/hyp3rd/hyperhist/pkg/histogram"
	"github.com/hyp3rd/hyperhist/pkg/stats"
)

// barColor is the ANSI colour of the histogram bars.
const barColor = lipgloss.Color("2")

// Option configures a Printer.
type Option func(*Printer)

// WithColor toggles coloured bars. Colour is on by default.
func WithColor(enabled bool) Option {
	return func(p *Printer) {
		p.color = enabled
	}
}

// Printer writes the console presentation of a pipeline run.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	color    bool
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, renderer: lipgloss.NewRenderer(w), color: true}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Statistics prints the statistics block of st.
func (p *Printer) Statistics(st *stats.Statistics) error {
	var b strings.Builder

	b.WriteString("--------Statistics-------\n")
	fmt.Fprintf(&b, "Size: %d\n", st.Count)
	fmt.Fprintf(&b, "Mean: %s\n", formatFloat(st.Mean))
	fmt.Fprintf(&b, "Mode: %d (appears %d times)\n", st.Mode, st.ModeCount)
	fmt.Fprintf(&b, "Sum: %d\n", st.Sum)
	fmt.Fprintf(&b, "Min: %d\n", st.Min)
	fmt.Fprintf(&b, "Max: %d\n", st.Max)
	fmt.Fprintf(&b, "Median: %s\n", formatFloat(st.Median))
	fmt.Fprintf(&b, "StdDev: %s\n", formatFloat(st.StdDev))

	_, err := io.WriteString(p.w, b.String())

	return err
}

// Histogram prints h as a borderless table followed by the scale legend.
func (p *Printer) Histogram(h *histogram.Histogram) error {
	cell := p.renderer.NewStyle().PaddingRight(1)

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(_, _ int) lipgloss.Style { return cell })

	for _, r := range h.Ranges() {
		count := "(" + strconv.Itoa(r.Count) + ")"

		if h.Exact {
			tbl.Row(strconv.Itoa(r.Start), p.bar(r.Blocks), count)

			continue
		}

		tbl.Row(strconv.Itoa(r.Start), "-", strconv.Itoa(r.End), p.bar(r.Blocks), count)
	}

	var b strings.Builder

	b.WriteString(constants.HistogramTitle + "\n")
	b.WriteString(tbl.Render() + "\n")
	fmt.Fprintf(&b, "Scale: %s = %d\n", p.bar(1), h.Scale)

	_, err := io.WriteString(p.w, b.String())

	return err
}

func (p *Printer) bar(blocks int) string {
	if blocks <= 0 {
		return ""
	}

	s := strings.Repeat(constants.BlockGlyph, blocks)
	if !p.color {
		return s
	}

	return p.renderer.NewStyle().Foreground(barColor).Render(s)
}

// Statistics prints the statistics block of st to w.
func Statistics(w io.Writer, st *stats.Statistics, opts ...Option) error {
	return NewPrinter(w, opts...).Statistics(st)
}

// Histogram prints h to w.
func Histogram(w io.Writer, h *histogram.Histogram, opts ...Option) error {
	return NewPrinter(w, opts...).Histogram(h)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
