// Package snr estimates the signal-to-noise ratio of a spectrum from
// wavelength ranges known to be free of strong lines.
//
// The spectrum is smoothed at a fixed reference resolving power and divided
// by the smoothed version, leaving the pixel-to-pixel noise around 1. Each
// gap is sigma-clipped symmetrically around 1 and its SNR is the reciprocal
// scatter of the surviving samples; the spectrum-level figure is the mean
// over gaps that produced a finite estimate.
package snr

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-spectro/spectro/conv"
	"github.com/cwbudde/algo-spectro/spectro/spectrum"
	"github.com/cwbudde/algo-spectro/stats/clip"
)

var (
	ErrNilSpectrum = errors.New("snr: nil spectrum")
	ErrNoGaps      = errors.New("snr: no gaps given")
)

const (
	defaultRefResolution = 10000.0
	defaultClipSigma     = 3.0

	// gaussFWHM converts a Gaussian sigma to FWHM.
	gaussFWHM = 2.35482
	// kernelHalfWidthSigmas bounds the smoothing kernel support.
	kernelHalfWidthSigmas = 5.0
)

// Gap is a wavelength range expected to contain continuum only.
type Gap struct {
	Lo float64
	Hi float64
}

// GapEstimate is the outcome for a single gap. SNR is NaN when the gap held
// no samples or its scatter was degenerate.
type GapEstimate struct {
	Gap     Gap
	SNR     float64
	Samples int
}

// Summary aggregates the per-gap estimates. SNR is NaN when no gap yielded
// a finite value.
type Summary struct {
	SNR  float64
	Gaps []GapEstimate
}

// Estimator measures signal-to-noise over continuum gaps. The zero value is
// not usable; construct with New.
type Estimator struct {
	refResolution float64
	clipSigma     float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithReferenceResolution sets the resolving power of the smoothing kernel.
// Default 10000, low enough to wash out noise without erasing broad lines.
func WithReferenceResolution(r float64) Option {
	return func(e *Estimator) {
		if r > 0 {
			e.refResolution = r
		}
	}
}

// WithClipSigma sets the symmetric clip threshold around 1. Default 3.
func WithClipSigma(n float64) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.clipSigma = n
		}
	}
}

// New returns an Estimator with the survey defaults.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		refResolution: defaultRefResolution,
		clipSigma:     defaultClipSigma,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate measures the spectrum's signal-to-noise over the given gaps. The
// spectrum is not modified.
func (e *Estimator) Estimate(s *spectrum.Spectrum, gaps []Gap) (Summary, error) {
	if s == nil {
		return Summary{}, ErrNilSpectrum
	}
	if len(gaps) == 0 {
		return Summary{}, ErrNoGaps
	}

	sigma := s.MeanWave() / (gaussFWHM * e.refResolution)
	kernel, err := conv.Gaussian(sigma, s.Dx, kernelHalfWidthSigmas)
	if err != nil {
		return Summary{}, err
	}

	smooth, err := conv.SameAroundUnity(s.Flux, kernel)
	if err != nil {
		return Summary{}, err
	}

	norm := make([]float64, len(s.Flux))
	for i, v := range s.Flux {
		norm[i] = v / smooth[i]
	}

	out := Summary{SNR: math.NaN()}

	var sum float64
	var valid int
	for _, gap := range gaps {
		est := e.estimateGap(s.Wave, norm, gap)
		out.Gaps = append(out.Gaps, est)
		if !math.IsNaN(est.SNR) && !math.IsInf(est.SNR, 0) {
			sum += est.SNR
			valid++
		}
	}

	if valid > 0 {
		out.SNR = sum / float64(valid)
	}

	return out, nil
}

func (e *Estimator) estimateGap(wave, norm []float64, gap Gap) GapEstimate {
	var vals []float64
	for i, w := range wave {
		if w >= gap.Lo && w <= gap.Hi {
			vals = append(vals, norm[i])
		}
	}

	est := GapEstimate{Gap: gap, SNR: math.NaN(), Samples: len(vals)}
	if len(vals) < 2 {
		return est
	}

	keep := clip.AroundCenter(vals, 1, e.clipSigma)
	var kept []float64
	for i, ok := range keep {
		if ok {
			kept = append(kept, vals[i])
		}
	}
	if len(kept) < 2 {
		return est
	}

	est.SNR = 1 / stat.PopStdDev(kept, nil)
	return est
}
