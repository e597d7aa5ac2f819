// Package render draws fitted line windows to image files. It is a
// side-effect-only sink: the analysis pipeline works identically with the
// no-op sink, and rendering failures never influence measurements.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-spectro/measure/linefit"
)

// ErrNoData is returned when a result carries no window arrays to draw.
var ErrNoData = errors.New("render: result has no fit data")

// Sink receives fit results for rendering.
type Sink interface {
	Render(res linefit.Result) error
}

// Nop is a Sink that discards everything.
type Nop struct{}

// Render implements Sink.
func (Nop) Render(linefit.Result) error { return nil }

// PNG renders each fitted window as a PNG file in a directory.
type PNG struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// PNGOption configures a PNG sink.
type PNGOption func(*PNG)

// WithSize sets the image size in inches. Default 8x5.
func WithSize(width, height float64) PNGOption {
	return func(p *PNG) {
		if width > 0 && height > 0 {
			p.width = vg.Length(width) * vg.Inch
			p.height = vg.Length(height) * vg.Inch
		}
	}
}

// NewPNG returns a Sink writing line_<wavelength>.png files into dir.
func NewPNG(dir string, opts ...PNGOption) *PNG {
	p := &PNG{dir: dir, width: 8 * vg.Inch, height: 5 * vg.Inch}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render draws the window flux, fitted continuum, normalized flux, fitted
// profile, and the continuum mask trace. Not-found results are skipped.
func (s *PNG) Render(res linefit.Result) error {
	if !res.Found {
		return nil
	}
	if len(res.Data.Wave) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("line %.2f | RV %.2f km/s | EW %.1f mA | FWHM %.2f",
		res.Line, res.RVKms, res.EW, res.FWHM)
	p.X.Label.Text = "wavelength [A]"
	p.Y.Label.Text = "normalized flux"

	series := []struct {
		y     []float64
		color color.RGBA
	}{
		{res.Data.Flux, color.RGBA{R: 230, G: 159, B: 0, A: 255}},
		{res.Data.Continuum, color.RGBA{R: 213, A: 255}},
		{res.Data.Norm, color.RGBA{B: 213, A: 255}},
		{res.Data.Fit, color.RGBA{G: 158, A: 255}},
	}
	for _, sr := range series {
		line, err := plotter.NewLine(xy(res.Data.Wave, sr.y))
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		line.Color = sr.color
		p.Add(line)
	}

	if mask := maskTrace(res.Data.Wave, res.Data.Mask); len(mask) > 0 {
		trace, err := plotter.NewScatter(mask)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		p.Add(trace)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("line_%.2f.png", res.Line))
	if err := p.Save(s.width, s.height, path); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func xy(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

// maskTrace marks the samples excluded from the continuum fit slightly
// above the continuum level.
func maskTrace(wave []float64, mask []bool) plotter.XYs {
	var pts plotter.XYs
	for i, keep := range mask {
		if keep || math.IsNaN(wave[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: wave[i], Y: 1.01})
	}
	return pts
}
