// Package testutil generates deterministic synthetic spectra for tests.
package testutil

import (
	"math"
	"math/rand"
)

// Grid returns a uniform wavelength grid from lo to hi (inclusive of lo,
// stepping by dx while staying at or below hi).
func Grid(lo, hi, dx float64) []float64 {
	n := int(math.Floor((hi-lo)/dx)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*dx
	}
	return out
}

// FlatContinuum returns a unit continuum of length n.
func FlatContinuum(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// AddGaussianAbsorption subtracts a Gaussian dip of the given depth from
// flux in place. Depth is positive for absorption.
func AddGaussianAbsorption(wave, flux []float64, depth, x0, sigma float64) {
	for i, w := range wave {
		d := w - x0
		flux[i] -= depth * math.Exp(-d*d/(2*sigma*sigma))
	}
}

// AddNoise perturbs flux in place with uniform noise of the given amplitude,
// using a fixed seed for reproducibility.
func AddNoise(flux []float64, seed int64, amplitude float64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range flux {
		flux[i] += (rng.Float64()*2 - 1) * amplitude
	}
}

// AddSpike raises a single sample by the given height, emulating a cosmic
// ray hit.
func AddSpike(flux []float64, pos int, height float64) {
	if pos >= 0 && pos < len(flux) {
		flux[pos] += height
	}
}
