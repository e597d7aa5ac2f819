package conv

import (
	"math"

	"gonum.org/v1/gonum/integrate"
)

// Kernel is a discrete convolution kernel normalized so its trapezoidal
// integral equals 1.
type Kernel struct {
	Taps []float64
}

// New builds a kernel from raw samples, normalizing them in place.
// Non-finite samples are zeroed before normalization.
func New(taps []float64) (Kernel, error) {
	if len(taps) == 0 {
		return Kernel{}, ErrEmptyKernel
	}

	out := make([]float64, len(taps))
	for i, v := range taps {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = v
	}

	area := trapz(out)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return Kernel{}, ErrInvalidKernel
	}

	inv := 1 / area
	for i := range out {
		out[i] *= inv
	}

	return Kernel{Taps: out}, nil
}

// Gaussian builds a normalized Gaussian kernel with standard deviation
// sigma, sampled at spacing dx over a support of ±halfWidthSigmas·sigma.
func Gaussian(sigma, dx, halfWidthSigmas float64) (Kernel, error) {
	if sigma <= 0 {
		return Kernel{}, ErrInvalidKernel
	}

	x, err := Support(halfWidthSigmas*sigma, dx)
	if err != nil {
		return Kernel{}, err
	}

	taps := make([]float64, len(x))
	for i, v := range x {
		taps[i] = math.Exp(-(v * v) / (2 * sigma * sigma))
	}

	return New(taps)
}

// Integral returns the trapezoidal integral of the kernel. For a kernel
// produced by this package it is 1 up to floating-point error.
func (k Kernel) Integral() float64 {
	return trapz(k.Taps)
}

// Len returns the number of taps.
func (k Kernel) Len() int {
	return len(k.Taps)
}

// trapz integrates samples with unit spacing, the spacing convention the
// convolution itself uses (the wavelength step cancels between kernel and
// data, so normalizing on the index grid preserves flux exactly).
func trapz(y []float64) float64 {
	if len(y) < 2 {
		if len(y) == 1 {
			return y[0]
		}
		return 0
	}

	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}

	return integrate.Trapezoidal(x, y)
}
