// Package continuum fits and removes a local linear continuum from a
// windowed flux array.
//
// The continuum is estimated iteratively: fit a first-degree polynomial to
// the currently unmasked samples, divide it out, then sigma-clip the ratio
// with asymmetric thresholds so that line cores (deep, downward) and
// defects (upward) are excluded from the next round's fit. Four rounds are
// enough for the fit to settle on the true continuum in any window that
// has one; pathological windows (flat, all line) surface as an error the
// caller must treat as a fitting failure.
package continuum

import (
	"errors"

	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-spectro/stats/clip"
)

// Errors returned by the normalizer.
var (
	ErrLengthMismatch = errors.New("continuum: wavelength and flux lengths differ")
	ErrTooFewSamples  = errors.New("continuum: not enough samples for a linear fit")
)

// Result holds the outcome of a normalization.
type Result struct {
	// Continuum is the fitted linear continuum evaluated over the window.
	Continuum []float64
	// Norm is flux divided by the continuum.
	Norm []float64
	// Mask marks the samples used by the final continuum fit.
	Mask []bool
}

type config struct {
	rounds int
	lower  float64
	upper  float64
}

// Option configures a Normalizer.
type Option func(*config)

// WithRounds sets the number of fit/clip rounds.
func WithRounds(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.rounds = n
		}
	}
}

// WithClipSigma sets the asymmetric clip thresholds applied to the ratio
// flux/continuum between rounds.
func WithClipSigma(lower, upper float64) Option {
	return func(cfg *config) {
		if lower > 0 {
			cfg.lower = lower
		}
		if upper > 0 {
			cfg.upper = upper
		}
	}
}

func defaultConfig() config {
	return config{rounds: 4, lower: 1.4, upper: 2.5}
}

// Normalizer estimates local linear continua.
type Normalizer struct {
	cfg config
}

// New creates a Normalizer with the given options.
func New(opts ...Option) *Normalizer {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Normalizer{cfg: cfg}
}

// Normalize fits the continuum over a windowed (wave, flux) pair and
// returns the normalized flux together with the final fit mask.
func (n *Normalizer) Normalize(wave, flux []float64) (Result, error) {
	if len(wave) != len(flux) {
		return Result{}, ErrLengthMismatch
	}
	if len(wave) < 2 {
		return Result{}, ErrTooFewSamples
	}

	mask := make([]bool, len(flux))
	for i, v := range flux {
		mask[i] = v == v // exclude NaN
	}

	cont := make([]float64, len(flux))
	ratio := make([]float64, len(flux))

	var xs, ys []float64
	for round := 0; round < n.cfg.rounds; round++ {
		xs = xs[:0]
		ys = ys[:0]
		for i, ok := range mask {
			if ok {
				xs = append(xs, wave[i])
				ys = append(ys, flux[i])
			}
		}

		if len(xs) < 2 {
			return Result{}, ErrTooFewSamples
		}

		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		for i, w := range wave {
			cont[i] = alpha + beta*w
		}

		for i := range flux {
			ratio[i] = flux[i] / cont[i]
		}
		mask = clip.Clip(ratio, clip.WithLower(n.cfg.lower), clip.WithUpper(n.cfg.upper))
	}

	norm := make([]float64, len(flux))
	copy(norm, ratio)

	return Result{Continuum: cont, Norm: norm, Mask: mask}, nil
}
