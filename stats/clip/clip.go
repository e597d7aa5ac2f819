// Package clip provides iterative sigma clipping for outlier rejection.
//
// Sigma clipping repeatedly measures the spread of the currently kept
// samples and rejects samples beyond a multiple of that spread from the
// center. The center is the median, which keeps a deep absorption core
// from dragging the statistic with it.
//
// Thresholds may be asymmetric: continuum normalization clips downward
// excursions (line cores) harder than upward ones (cosmic rays, hot
// pixels sit above the continuum and are rarer).
package clip

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type config struct {
	lower    float64
	upper    float64
	maxIters int
}

// Option configures a clipping run.
type Option func(*config)

// WithLower sets the lower rejection threshold in sigma units.
func WithLower(sigma float64) Option {
	return func(cfg *config) {
		if sigma > 0 {
			cfg.lower = sigma
		}
	}
}

// WithUpper sets the upper rejection threshold in sigma units.
func WithUpper(sigma float64) Option {
	return func(cfg *config) {
		if sigma > 0 {
			cfg.upper = sigma
		}
	}
}

// WithMaxIters caps the number of clipping iterations.
// Zero (the default) iterates until the kept set stops changing.
func WithMaxIters(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.maxIters = n
		}
	}
}

func defaultConfig() config {
	return config{lower: 3, upper: 3}
}

// Clip returns a keep mask for x: true means the sample survived clipping.
// NaN samples are never kept. Clipping stops early rather than rejecting
// the entire input: if a round would leave fewer than two samples, the
// previous mask is returned.
func Clip(x []float64, opts ...Option) []bool {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	keep := make([]bool, len(x))
	kept := 0
	for i, v := range x {
		if !math.IsNaN(v) {
			keep[i] = true
			kept++
		}
	}

	if kept < 2 {
		return keep
	}

	vals := make([]float64, 0, kept)
	prev := make([]bool, len(x))

	for iter := 0; cfg.maxIters == 0 || iter < cfg.maxIters; iter++ {
		vals = vals[:0]
		for i, ok := range keep {
			if ok {
				vals = append(vals, x[i])
			}
		}

		med := median(vals)
		sd := stat.PopStdDev(vals, nil)
		if sd == 0 {
			break
		}

		lo := med - cfg.lower*sd
		hi := med + cfg.upper*sd

		copy(prev, keep)

		changed := false
		next := 0
		for i, ok := range keep {
			if !ok {
				continue
			}
			if x[i] < lo || x[i] > hi {
				keep[i] = false
				changed = true
			} else {
				next++
			}
		}

		// A round that would clip away (nearly) everything is discarded;
		// a continuum fit still needs something to hold on to.
		if next < 2 {
			copy(keep, prev)
			break
		}

		if !changed {
			break
		}
	}

	return keep
}

// AroundCenter performs a single-pass symmetric clip around a fixed center,
// with the spread taken from the whole input. This is the clip used for
// signal-to-noise estimation over line-free gaps, where the continuum level
// is known to be 1 by construction.
func AroundCenter(x []float64, center, nsigma float64) []bool {
	keep := make([]bool, len(x))
	if len(x) == 0 || nsigma <= 0 {
		return keep
	}

	sd := stat.PopStdDev(x, nil)
	for i, v := range x {
		keep[i] = !math.IsNaN(v) && math.Abs(v-center) <= nsigma*sd
	}

	return keep
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
