// Package conv provides discrete convolution kernels and same-length
// convolution for wavelength-sampled spectra.
//
// Kernels are built on the spectrum's own sample spacing so the kernel
// resolution matches the data, and are normalized so their trapezoidal
// integral equals 1, preserving total flux under convolution.
//
// Spectra carry a continuum level of 1 rather than 0, so the package
// convolves flux-1 and adds the continuum back:
//
//	smooth, err := conv.SameAroundUnity(flux, kernel)
//
// away from lines the continuum level is invariant under this operation.
//
// # Algorithm Selection
//
// Short kernels use direct time-domain convolution with vectorized inner
// loops; kernels of 64 taps or more (degradation kernels routinely run to
// several hundred) go through a single padded FFT.
package conv

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput    = errors.New("conv: empty input")
	ErrEmptyKernel   = errors.New("conv: empty kernel")
	ErrInvalidKernel = errors.New("conv: kernel is not normalizable")
	ErrInvalidStep   = errors.New("conv: step must be positive")
)

// directThreshold is the kernel length above which the FFT path wins.
const directThreshold = 64

// Same performs linear convolution of signal with taps and returns the
// centered portion with the same length as signal.
func Same(signal, taps []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}
	if len(taps) == 0 {
		return nil, ErrEmptyKernel
	}

	full, err := full(signal, taps)
	if err != nil {
		return nil, err
	}

	start := (len(taps) - 1) / 2
	return full[start : start+len(signal)], nil
}

// SameAroundUnity convolves a unit-continuum flux array with k, treating 1
// as the baseline: the kernel sees flux-1 and the continuum is added back.
func SameAroundUnity(flux []float64, k Kernel) ([]float64, error) {
	if len(flux) == 0 {
		return nil, ErrEmptyInput
	}

	shifted := make([]float64, len(flux))
	for i, v := range flux {
		shifted[i] = v - 1
	}

	out, err := Same(shifted, k.Taps)
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i] += 1
	}

	return out, nil
}

// full computes the full linear convolution, length len(a)+len(b)-1.
func full(a, b []float64) ([]float64, error) {
	if len(b) > len(a) {
		a, b = b, a
	}

	if len(b) < directThreshold {
		dst := make([]float64, len(a)+len(b)-1)
		directTo(dst, a, b)
		return dst, nil
	}

	return fftConvolve(a, b)
}

// directTo performs direct time-domain convolution into dst,
// which must have length len(a)+len(b)-1.
func directTo(dst, a, b []float64) {
	for i := range dst {
		dst[i] = 0
	}

	const simdThreshold = 4
	if len(b) >= simdThreshold {
		temp := make([]float64, len(b))
		for i, v := range a {
			vecmath.ScaleBlock(temp, b, v)
			vecmath.AddBlockInPlace(dst[i:i+len(b)], temp)
		}
		return
	}

	for i, av := range a {
		for j, bv := range b {
			dst[i+j] += av * bv
		}
	}
}

// fftConvolve computes linear convolution through a single padded FFT.
func fftConvolve(a, b []float64) ([]float64, error) {
	outLen := len(a) + len(b) - 1
	fftSize := nextPowerOf2(outLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	pa := make([]complex128, fftSize)
	pb := make([]complex128, fftSize)
	for i, v := range a {
		pa[i] = complex(v, 0)
	}
	for i, v := range b {
		pb[i] = complex(v, 0)
	}

	if err := plan.Forward(pa, pa); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}
	if err := plan.Forward(pb, pb); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range pa {
		pa[i] *= pb[i]
	}

	if err := plan.Inverse(pa, pa); err != nil {
		return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(pa[i])
	}

	return out, nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// Support returns a symmetric sample grid [-halfWidth, halfWidth] with
// spacing dx, endpoint included. This mirrors how kernels are laid out on
// the spectrum's own wavelength grid.
func Support(halfWidth, dx float64) ([]float64, error) {
	if dx <= 0 {
		return nil, ErrInvalidStep
	}
	if halfWidth <= 0 {
		return nil, ErrEmptyKernel
	}

	n := int(math.Floor(2*halfWidth/dx)) + 1
	x := make([]float64, n)
	for i := range x {
		x[i] = -halfWidth + float64(i)*dx
	}

	return x, nil
}
