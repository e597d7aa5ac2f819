package spectrum

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/interp"
)

type resampleConfig struct {
	lo, hi   float64
	hasRange bool
}

// ResampleOption configures a resampling run.
type ResampleOption func(*resampleConfig)

// WithRange forces the output grid to span [lo, hi] instead of the
// spectrum's own bounds. Samples outside the source range clamp to the
// edge flux values.
func WithRange(lo, hi float64) ResampleOption {
	return func(cfg *resampleConfig) {
		cfg.lo, cfg.hi = lo, hi
		cfg.hasRange = true
	}
}

// Resample replaces the wavelength grid with a uniform grid of step dx and
// linearly interpolates the flux onto it. Both arrays are replaced
// together so the length invariant holds throughout.
//
// Choosing a dx coarser than a third of the instrumental resolution
// element loses information; the spectrum warns and proceeds.
func (s *Spectrum) Resample(dx float64, opts ...ResampleOption) error {
	if dx <= 0 {
		return ErrInvalidStep
	}

	cfg := resampleConfig{lo: s.Wave[0], hi: s.Wave[len(s.Wave)-1]}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.hi <= cfg.lo {
		return ErrInvalidRange
	}

	if s.Resolution > 0 && dx > s.MeanWave()/s.Resolution/3 {
		s.warn("resampling below three samples per resolution element",
			slog.Float64("dx", dx),
			slog.Float64("limit", s.MeanWave()/s.Resolution/3))
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(s.Wave, s.Flux); err != nil {
		return ErrNotAscending
	}

	n := int(math.Floor((cfg.hi-cfg.lo)/dx)) + 1
	wave := make([]float64, n)
	flux := make([]float64, n)
	first, last := s.Wave[0], s.Wave[len(s.Wave)-1]
	for i := range wave {
		w := cfg.lo + float64(i)*dx
		wave[i] = w
		switch {
		case w <= first:
			flux[i] = s.Flux[0]
		case w >= last:
			flux[i] = s.Flux[len(s.Flux)-1]
		default:
			flux[i] = pl.Predict(w)
		}
	}

	s.Wave = wave
	s.Flux = flux
	s.Dx = dx

	return nil
}
