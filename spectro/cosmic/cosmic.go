// Package cosmic removes cosmic-ray hits and detector defects from a
// spectrum's flux array.
//
// The cleaner convolves the flux with a Gaussian kernel at twice the
// instrument's theoretical resolution width (empirically a better
// rejection reference than the nominal width), flags samples whose ratio
// to the smoothed reference exceeds 1 + k·σ, and fills them by linear
// interpolation over the surviving samples. Only upward excursions are
// flagged: rays deposit charge, they never remove it.
package cosmic

import (
	"errors"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-spectro/spectro/conv"
	"github.com/cwbudde/algo-spectro/spectro/spectrum"
)

// Errors returned by the cleaner.
var (
	ErrNilSpectrum    = errors.New("cosmic: nil spectrum")
	ErrNoResolution   = errors.New("cosmic: spectrum has no resolving power")
	ErrTooManyDefects = errors.New("cosmic: too few clean samples to interpolate over")
)

// gaussFWHM converts a Gaussian sigma to FWHM.
const gaussFWHM = 2.35482

type config struct {
	threshold float64
}

// Option configures a Cleaner.
type Option func(*config)

// WithThreshold sets the rejection threshold k in sigma units.
func WithThreshold(k float64) Option {
	return func(cfg *config) {
		if k > 0 {
			cfg.threshold = k
		}
	}
}

// Cleaner flags and fills cosmic-ray defects.
type Cleaner struct {
	cfg config
}

// New creates a Cleaner. The default threshold is 1.5 sigma.
func New(opts ...Option) *Cleaner {
	cfg := config{threshold: 1.5}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Cleaner{cfg: cfg}
}

// Clean removes defects from the spectrum's flux in place and reports how
// many samples were replaced. The wavelength array is untouched and the
// flux array keeps its length.
func (c *Cleaner) Clean(s *spectrum.Spectrum) (int, error) {
	if s == nil {
		return 0, ErrNilSpectrum
	}
	if s.Resolution <= 0 {
		return 0, ErrNoResolution
	}

	// Twice the theoretical sigma offers better rejection.
	sigma := 2 * s.MeanWave() / (gaussFWHM * s.Resolution)
	k, err := conv.Gaussian(sigma, s.Dx, 5)
	if err != nil {
		return 0, err
	}

	smooth, err := conv.SameAroundUnity(s.Flux, k)
	if err != nil {
		return 0, err
	}

	ratio := make([]float64, len(s.Flux))
	for i := range ratio {
		ratio[i] = s.Flux[i] / smooth[i]
	}

	sd := stat.PopStdDev(ratio, nil)
	limit := 1 + c.cfg.threshold*sd

	bad := make([]bool, len(ratio))
	nbad := 0
	for i, r := range ratio {
		if r > limit {
			bad[i] = true
			nbad++
		}
	}

	if nbad == 0 {
		return 0, nil
	}
	if len(ratio)-nbad < 2 {
		return 0, ErrTooManyDefects
	}

	if err := fill(s.Flux, bad); err != nil {
		return 0, err
	}

	return nbad, nil
}

// fill replaces flagged samples by linear interpolation over the unflagged
// ones, using sample index as the abscissa. Flagged runs at either
// boundary clamp to the nearest clean value.
func fill(flux []float64, bad []bool) error {
	xs := make([]float64, 0, len(flux))
	ys := make([]float64, 0, len(flux))
	for i, b := range bad {
		if !b {
			xs = append(xs, float64(i))
			ys = append(ys, flux[i])
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return ErrTooManyDefects
	}

	first, last := xs[0], xs[len(xs)-1]
	for i, b := range bad {
		if !b {
			continue
		}
		x := float64(i)
		switch {
		case x <= first:
			flux[i] = ys[0]
		case x >= last:
			flux[i] = ys[len(ys)-1]
		default:
			flux[i] = pl.Predict(x)
		}
	}

	return nil
}
