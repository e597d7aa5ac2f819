// Package linefit measures absorption lines in stellar spectra by bounded
// non-linear least squares against a chosen profile family.
//
// The fitter runs an adaptive refinement loop: extract a wavelength window
// around the rest wavelength, normalize the local continuum, fit the profile,
// and accept the round only when the empirical width of the fitted curve is
// plausible. Accepted rounds re-size the window to 7x the measured width and
// try again; the best accepted round feeds the derived quantities (radial
// velocity, equivalent width, FWHM, depth, local signal-to-noise, quality).
//
// Per-line failures are data, not errors: Result.Found is false and Reason
// names the check that failed. Go errors are reserved for malformed input.
package linefit

import (
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-spectro/internal/boundfit"
	"github.com/cwbudde/algo-spectro/spectro/continuum"
	"github.com/cwbudde/algo-spectro/spectro/profile"
	"github.com/cwbudde/algo-spectro/spectro/spectrum"
)

var (
	ErrNilSpectrum  = errors.New("linefit: nil spectrum")
	ErrNoResolution = errors.New("linefit: spectrum has no resolving power")
	ErrInvalidLine  = errors.New("linefit: rest wavelength must be positive")
)

const (
	defaultWidth   = 15.0
	defaultTolKms  = 150.0
	defaultRounds  = 3
	defaultMaxFWHM = 20.0

	// fits whose total relief is below flatEps carry no line; their width
	// is the full window and their minimum is taken at the first sample.
	flatEps = 1e-6

	// samples this deep below the continuum enter the quality statistic.
	qualityDepth = 0.995
)

// Reason identifies the check that rejected a line when Found is false.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonWindowEmpty
	ReasonNoConvergence
	ReasonWidthOutOfRange
	ReasonCenterOutOfTolerance
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonWindowEmpty:
		return "no samples in fit window"
	case ReasonNoConvergence:
		return "fit did not converge"
	case ReasonWidthOutOfRange:
		return "line width outside acceptance range"
	case ReasonCenterOutOfTolerance:
		return "fitted center outside velocity tolerance"
	}
	return "unknown"
}

// FitData carries the raw arrays of the accepted fit for inspection and
// plotting. All slices share the window's length.
type FitData struct {
	Wave      []float64
	Flux      []float64
	Norm      []float64
	Continuum []float64
	Fit       []float64
	Params    []float64
	Mask      []bool
}

// Result is the outcome of fitting one line. When Found is false every
// numeric field is NaN and Reason/Diagnostic name the failed check.
type Result struct {
	Found      bool
	Reason     Reason
	Diagnostic string

	// Line is the rest wavelength that was requested, angstrom.
	Line float64
	// Center is the fitted line center with the session offset restored.
	Center float64
	// RVAngstrom and RVKms are the velocity offset in wavelength and
	// velocity units.
	RVAngstrom float64
	RVKms      float64
	// EW is the equivalent width in milli-angstrom, non-negative for
	// absorption.
	EW float64
	// FWHM is the full width at half maximum depth, interpolated across
	// the half-depth crossings. The refinement loop accepts rounds on the
	// coarser sample-grid width, so this value is not re-checked against
	// the acceptance range.
	FWHM float64
	// TheoreticalFWHM derives from the fitted shape parameters where the
	// model has a closed form; NaN otherwise.
	TheoreticalFWHM float64
	// Depth is 1 minus the fitted-curve minimum.
	Depth float64
	// SNR is the local signal-to-noise of the continuum samples.
	SNR float64
	// Quality compares residual scatter inside the line against the
	// continuum noise; near 1 is a good fit.
	Quality float64

	// Iterations counts the accepted refinement rounds.
	Iterations int
	// Window is the width of the accepted fit window, angstrom.
	Window float64

	Data FitData
}

// Fitter fits absorption lines against a fixed model with configured window
// and tolerance. The zero value is not usable; construct with New.
type Fitter struct {
	model   Model
	width   float64
	tolKms  float64
	rounds  int
	maxFWHM float64
	norm    *continuum.Normalizer
	logger  *slog.Logger
}

// Option configures a Fitter.
type Option func(*Fitter)

// WithModel selects the profile family. Default is ModelGaussian.
func WithModel(m Model) Option {
	return func(f *Fitter) { f.model = m }
}

// WithWidth sets the initial window width in angstrom. Default 15.
func WithWidth(aa float64) Option {
	return func(f *Fitter) {
		if aa > 0 {
			f.width = aa
		}
	}
}

// WithTolerance sets the maximum shift between the fitted center and the
// rest wavelength, in km/s. Default 150.
func WithTolerance(kms float64) Option {
	return func(f *Fitter) {
		if kms > 0 {
			f.tolKms = kms
		}
	}
}

// WithRounds sets the number of window refinement rounds. Default 3.
func WithRounds(n int) Option {
	return func(f *Fitter) {
		if n > 0 {
			f.rounds = n
		}
	}
}

// WithMaxFWHM sets the upper width acceptance bound in angstrom. Default 20,
// which accommodates Balmer lines.
func WithMaxFWHM(aa float64) Option {
	return func(f *Fitter) {
		if aa > 0 {
			f.maxFWHM = aa
		}
	}
}

// WithLogger routes fitter advisories. Nil (the default) is silent.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fitter) { f.logger = l }
}

// New returns a Fitter with spectrograph-survey defaults.
func New(opts ...Option) *Fitter {
	f := &Fitter{
		model:   ModelGaussian,
		width:   defaultWidth,
		tolKms:  defaultTolKms,
		rounds:  defaultRounds,
		maxFWHM: defaultMaxFWHM,
		norm:    continuum.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// round is the state accepted at the end of one refinement iteration.
type round struct {
	data  FitData
	width float64
	fwhm  float64
}

// Fit measures the line at rest wavelength line in s. Per-line failures are
// reported through Result.Found and Result.Reason; the error return covers
// malformed input only.
func (f *Fitter) Fit(s *spectrum.Spectrum, line float64) (Result, error) {
	if s == nil {
		return Result{}, ErrNilSpectrum
	}
	if s.Resolution <= 0 {
		return Result{}, ErrNoResolution
	}
	if line <= 0 {
		return Result{}, ErrInvalidLine
	}

	tolAA := f.tolKms * line * 1000 / profile.SpeedOfLight
	dlamb := line / s.Resolution
	lower, upper, guess := f.model.bounds(line, tolAA, dlamb)

	var (
		best     round
		accepted int
		reason   = ReasonNone
		width    = f.width
	)

	for accepted < f.rounds {
		wave, flux, err := s.Window(line, width)
		if err != nil {
			reason = ReasonWindowEmpty
			break
		}

		norm, err := f.norm.Normalize(wave, flux)
		if err != nil {
			reason = ReasonNoConvergence
			break
		}

		params, err := boundfit.Fit(boundfit.Problem{
			X:     wave,
			Y:     norm.Norm,
			Eval:  f.model.eval,
			Guess: guess,
			Lower: lower,
			Upper: upper,
		})
		if err != nil {
			reason = ReasonNoConvergence
			break
		}

		fit := f.model.eval(wave, params)
		fwhm := empiricalFWHM(wave, fit)
		if fwhm <= dlamb || fwhm >= f.maxFWHM {
			reason = ReasonWidthOutOfRange
			break
		}

		best = round{
			data: FitData{
				Wave:      wave,
				Flux:      flux,
				Norm:      norm.Norm,
				Continuum: norm.Continuum,
				Fit:       fit,
				Params:    params,
				Mask:      norm.Mask,
			},
			width: width,
			fwhm:  fwhm,
		}
		accepted++
		width = 7 * fwhm
	}

	if accepted == 0 {
		return f.notFound(line, reason), nil
	}

	return f.finalize(s, line, tolAA, best, accepted)
}

// finalize turns the best accepted round into a measured Result, or a
// not-found Result if the fitted center sits outside the velocity tolerance.
func (f *Fitter) finalize(s *spectrum.Spectrum, line, tolAA float64, best round, accepted int) (Result, error) {
	data := best.data

	if best.fwhm >= 2 && !f.model.Rotational() {
		f.advise("wide line with a non-rotational model, consider a rotational profile",
			slog.Float64("line", line), slog.Float64("fwhm", best.fwhm),
			slog.String("model", f.model.String()))
	}

	center := data.Wave[fitMinimum(data.Fit)]
	if math.Abs(line-center) > tolAA {
		return f.notFound(line, ReasonCenterOutOfTolerance), nil
	}

	center += s.Offset
	rvAA := center - line
	rvKms := rvAA / line * profile.SpeedOfLight / 1000

	below := make([]float64, len(data.Fit))
	minFit := math.Inf(1)
	for i, v := range data.Fit {
		below[i] = 1 - v
		if v < minFit {
			minFit = v
		}
	}
	ew := 1000 * math.Abs(integrate.Trapezoidal(data.Wave, below))

	var cont []float64
	for i, keep := range data.Mask {
		if keep {
			cont = append(cont, data.Norm[i])
		}
	}
	sigmaCont := stat.PopStdDev(cont, nil)
	snr := 1 / sigmaCont

	var inLine []float64
	for i, v := range data.Fit {
		if v < qualityDepth {
			inLine = append(inLine, data.Norm[i]/v)
		}
	}
	quality := math.NaN()
	if len(inLine) > 0 {
		quality = stat.PopStdDev(inLine, nil) / sigmaCont
	}

	return Result{
		Found:           true,
		Line:            line,
		Center:          center,
		RVAngstrom:      rvAA,
		RVKms:           rvKms,
		EW:              ew,
		FWHM:            preciseFWHM(data.Wave, data.Fit),
		TheoreticalFWHM: f.model.theoreticalFWHM(line, data.Params),
		Depth:           1 - minFit,
		SNR:             snr,
		Quality:         quality,
		Iterations:      accepted,
		Window:          best.width,
		Data:            data,
	}, nil
}

func (f *Fitter) notFound(line float64, reason Reason) Result {
	nan := math.NaN()
	return Result{
		Reason:          reason,
		Diagnostic:      reason.String(),
		Line:            line,
		Center:          nan,
		RVAngstrom:      nan,
		RVKms:           nan,
		EW:              nan,
		FWHM:            nan,
		TheoreticalFWHM: nan,
		Depth:           nan,
		SNR:             nan,
		Quality:         nan,
		Window:          nan,
	}
}

func (f *Fitter) advise(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

// fitMinimum returns the index of the fitted-curve minimum. Featureless
// curves report the first sample, which finalize then rejects as being
// outside the velocity tolerance for any reasonable window.
func fitMinimum(fit []float64) int {
	lo, hi := minMax(fit)
	if hi-lo < flatEps {
		return 0
	}

	idx := 0
	for i, v := range fit {
		if v < fit[idx] {
			idx = i
		}
	}
	return idx
}

// empiricalFWHM measures the span between the outermost samples at or below
// half depth. A featureless curve spans the whole window.
func empiricalFWHM(wave, fit []float64) float64 {
	lo, hi := minMax(fit)
	if hi-lo < flatEps {
		return wave[len(wave)-1] - wave[0]
	}

	half := (hi + lo) / 2
	first, last := -1, -1
	for i, v := range fit {
		if v > half {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return wave[last] - wave[first]
}

// preciseFWHM interpolates the half-depth crossing on each flank of the
// fitted curve. Flanks truncated by the window edge fall back to the edge
// sample.
func preciseFWHM(wave, fit []float64) float64 {
	lo, hi := minMax(fit)
	if hi-lo < flatEps {
		return wave[len(wave)-1] - wave[0]
	}

	half := (hi + lo) / 2
	first, last := -1, -1
	for i, v := range fit {
		if v > half {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}

	left := wave[first]
	if first > 0 && fit[first-1] != fit[first] {
		t := (half - fit[first]) / (fit[first-1] - fit[first])
		left = wave[first] + t*(wave[first-1]-wave[first])
	}

	right := wave[last]
	if last < len(fit)-1 && fit[last+1] != fit[last] {
		t := (half - fit[last]) / (fit[last+1] - fit[last])
		right = wave[last] + t*(wave[last+1]-wave[last])
	}

	return right - left
}

func minMax(x []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
