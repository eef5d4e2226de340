// Package chart renders SIR trajectories as line charts.
//
// One figure carries four series over the day axis: susceptible, infected,
// removed and total cases (infected + removed). The figure is saved once per
// requested format, the format doubling as file extension:
//
//	paths, err := chart.Render(steps, "out/flu", []string{"png", "svg"}, chart.Options{Lang: "sv"})
//	// writes out/flu.png and out/flu.svg
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"slices"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/roach88/sirsim/internal/sir"
)

// ErrUnknownFormat is returned for an output format no backend can write.
var ErrUnknownFormat = errors.New("unknown chart format")

// Formats lists the output formats Render accepts.
var Formats = []string{"eps", "jpeg", "jpg", "pdf", "png", "svg", "tif", "tiff"}

// Default figure size, 640x480 pixels at the raster backends' 96 dpi.
const (
	DefaultWidth  vg.Length = 480
	DefaultHeight vg.Length = 360
)

// Options control labels and figure size.
type Options struct {
	Lang   string    // BCP 47 tag for labels; empty means English
	Title  string    // figure title; empty for none
	Width  vg.Length // zero means DefaultWidth
	Height vg.Length // zero means DefaultHeight
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// ValidateFormats returns ErrUnknownFormat for the first unsupported format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(Formats, strings.ToLower(f)) {
			return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, f, strings.Join(Formats, ", "))
		}
	}
	return nil
}

// Render saves the trajectory chart as base + "." + format for every format
// and returns the paths written, in the order requested. No file is written
// when any format is unsupported. An empty formats list is a no-op.
func Render(steps []sir.Step, base string, formats []string, opts Options) ([]string, error) {
	if len(formats) == 0 {
		return nil, nil
	}
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}

	p, err := newPlot(steps, LabelsFor(opts.Lang), opts.Title)
	if err != nil {
		return nil, err
	}

	w, h := opts.size()
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := base + "." + strings.ToLower(f)
		if err := p.Save(w, h, path); err != nil {
			return paths, fmt.Errorf("save chart %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type series struct {
	caption string
	color   color.Color
	glyph   draw.GlyphDrawer // nil draws the line only
	value   func(sir.Step) float64
}

func newPlot(steps []sir.Step, labels Labels, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = labels.X
	p.Y.Label.Text = labels.Y
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	all := []series{
		{labels.Susceptible, color.Black, draw.CircleGlyph{}, func(s sir.Step) float64 { return s.Susceptible }},
		{labels.Infected, color.RGBA{B: 255, A: 255}, draw.CrossGlyph{}, func(s sir.Step) float64 { return s.Infected }},
		{labels.Removed, color.RGBA{G: 160, A: 255}, draw.PlusGlyph{}, func(s sir.Step) float64 { return s.Removed }},
		{labels.TotalCases, color.RGBA{R: 255, A: 255}, nil, sir.Step.TotalCases},
	}

	for _, sr := range all {
		xys := make(plotter.XYs, len(steps))
		for i, s := range steps {
			xys[i].X = float64(s.Day)
			xys[i].Y = sr.value(s)
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", sr.caption, err)
		}
		line.LineStyle.Color = sr.color
		line.LineStyle.Width = vg.Points(1)

		if sr.glyph == nil {
			p.Add(line)
			p.Legend.Add(sr.caption, line)
			continue
		}

		points, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", sr.caption, err)
		}
		points.GlyphStyle.Color = sr.color
		points.GlyphStyle.Shape = sr.glyph
		points.GlyphStyle.Radius = vg.Points(2)

		p.Add(line, points)
		p.Legend.Add(sr.caption, line, points)
	}

	return p, nil
}
