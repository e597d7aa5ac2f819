// Package profile evaluates physically motivated absorption-line shapes.
//
// Every profile is a deterministic function of a wavelength grid and a
// fixed set of physical parameters, normalized so the unperturbed
// continuum level is 1 and a line is a depression below it (negative
// amplitude). The composite rotational profiles convolve a core shape with
// the analytic rotational broadening kernel over the same grid.
//
// Profiles are evaluated inside an optimizer loop that probes the edges of
// the parameter space, so every evaluation is sanitized: non-finite values
// from domain violations (zero widths, |Δλ| beyond the rotational Doppler
// width) are replaced with zero rather than propagated.
package profile

import (
	"math"

	"github.com/cwbudde/algo-spectro/spectro/conv"
)

// SpeedOfLight is the speed of light in m/s.
const SpeedOfLight = 299792458.0

// limbDarkening is the linear limb-darkening coefficient of the rotational
// kernel (epsilon = 0.6, the canonical value for OB photospheres).
const limbDarkening = 0.6

// Gaussian evaluates 1 + a·exp(-(x-x0)²/2σ²).
func Gaussian(x []float64, a, x0, sigma float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		d := v - x0
		out[i] = 1 + a*math.Exp(-d*d/(2*sigma*sigma))
	}
	return sanitize(out)
}

// Lorentzian evaluates y + a·γ²/((x-x0)²+γ²).
func Lorentzian(x []float64, a, x0, gamma, y float64) []float64 {
	out := make([]float64, len(x))
	g2 := gamma * gamma
	for i, v := range x {
		d := v - x0
		out[i] = y + a*g2/(d*d+g2)
	}
	return sanitize(out)
}

// Voigt evaluates the Voigt profile through the real part of the Faddeeva
// function: y + a·Re w((x-x0+iγ)/(σ√2)) / (σ√(2π)).
func Voigt(x []float64, a, x0, sigma, gamma, y float64) []float64 {
	out := make([]float64, len(x))
	norm := 1 / (sigma * math.Sqrt(2*math.Pi))
	for i, v := range x {
		z := complex((v-x0)/(sigma*math.Sqrt2), gamma/(sigma*math.Sqrt2))
		out[i] = y + a*real(Faddeeva(z))*norm
	}
	return sanitize(out)
}

// Rotational evaluates a Gaussian core convolved with the rotational
// broadening kernel for projected velocity vsini (km/s), as a depression
// below unit continuum. The amplitude a is positive.
func Rotational(x []float64, a, x0, sigma, vsini float64) []float64 {
	core := make([]float64, len(x))
	for i, v := range x {
		d := v - x0
		core[i] = a * math.Exp(-d*d/(2*sigma*sigma))
	}

	broad := convolveCore(core, rotKernel(x, a, x0, vsini))
	out := make([]float64, len(x))
	for i, v := range broad {
		out[i] = 1 - v
	}
	return sanitize(out)
}

// VoigtRotational evaluates a Voigt core convolved with the rotational
// kernel, for strong lines needing both pressure and rotational broadening.
func VoigtRotational(x []float64, a, x0, sigma, gamma, vsini, y float64) []float64 {
	core := voigtCore(x, a, x0, sigma, gamma, y)

	broad := convolveCore(core, rotKernel(x, a, x0, vsini))
	out := make([]float64, len(x))
	for i, v := range broad {
		out[i] = 1 - v
	}
	return sanitize(out)
}

// VoigtRotationalGaussian evaluates a Voigt-plus-Gaussian core convolved
// with the rotational kernel. The second Gaussian component absorbs the
// narrow core that a single Voigt leaves behind on Balmer-like blends.
func VoigtRotationalGaussian(x []float64, a1, x0, sigma1, gamma, vsini, a2, sigma2, y float64) []float64 {
	core := voigtCore(x, a1, x0, sigma1, gamma, y)
	for i, v := range x {
		d := v - x0
		core[i] += a2 * math.Exp(-d*d/(2*sigma2*sigma2))
	}

	broad := convolveCore(core, rotKernel(x, a1, x0, vsini))
	out := make([]float64, len(x))
	for i, v := range broad {
		out[i] = 1 - v
	}
	return sanitize(out)
}

// RotMac evaluates the combined rotational and radial-tangential
// macroturbulence broadening kernel on a symmetric grid centered at zero.
// Either velocity may be zero, disabling that term. The result is an
// unnormalized kernel shape for spectrum degradation, not a line profile.
func RotMac(x []float64, x0, vsini, vmac float64) []float64 {
	var rot []float64
	if vsini > 0 {
		rot = make([]float64, len(x))
		deltaR := 1000 * x0 * vsini / SpeedOfLight
		for i, v := range x {
			doppl := 1 - (v/deltaR)*(v/deltaR)
			r := (2*(1-limbDarkening)*math.Sqrt(doppl) + math.Pi*limbDarkening/2*doppl) /
				(math.Pi * deltaR * (1 - limbDarkening/3))
			if !isFinite(r) {
				r = 0
			}
			rot[i] = r
		}
		if vmac <= 0 {
			return rot
		}
	}

	// Radial-tangential macroturbulence, built on the positive half-axis
	// and mirrored to keep the kernel exactly symmetric.
	deltaM := 1000 * x0 * vmac / SpeedOfLight
	amp := 2 / math.SqrtPi / deltaM

	half := make([]float64, len(x)-len(x)/2)
	for i := range half {
		xd := x[len(x)/2+i] / deltaM
		m := amp * xd * (-math.SqrtPi + math.Exp(-xd*xd)/xd + math.SqrtPi*math.Erf(xd))
		if !isFinite(m) {
			m = 0
		}
		half[i] = m
	}

	mac := make([]float64, 0, 2*len(half)-1)
	for i := len(half) - 1; i >= 0; i-- {
		mac = append(mac, half[i])
	}
	mac = append(mac, half[1:]...)

	if vsini <= 0 {
		return mac
	}

	return convolveCore(rot, mac)
}

// voigtCore evaluates the raw Voigt shape (baseline y, no continuum flip).
func voigtCore(x []float64, a, x0, sigma, gamma, y float64) []float64 {
	out := make([]float64, len(x))
	norm := 1 / (sigma * math.Sqrt(2*math.Pi))
	for i, v := range x {
		z := complex((v-x0)/(sigma*math.Sqrt2), gamma/(sigma*math.Sqrt2))
		out[i] = y + a*real(Faddeeva(z))*norm
	}
	return out
}

// rotKernel evaluates the analytic rotational broadening kernel over the
// wavelength grid. Outside the Doppler width the square root goes complex;
// those samples are zeroed before convolution.
func rotKernel(x []float64, a, x0, vsini float64) []float64 {
	out := make([]float64, len(x))
	delta := 1000 * x0 * vsini / SpeedOfLight
	for i, v := range x {
		d := v - x0
		doppl := 1 - (d/delta)*(d/delta)
		r := a * (2*(1-limbDarkening)*math.Sqrt(doppl) + math.Pi*limbDarkening/2*doppl) /
			(math.Pi * delta * (1 - limbDarkening/3))
		if !isFinite(r) {
			r = 0
		}
		out[i] = r
	}
	return out
}

// convolveCore same-convolves two equal-length sampled shapes.
func convolveCore(core, kernel []float64) []float64 {
	out, err := conv.Same(core, kernel)
	if err != nil {
		return make([]float64, len(core))
	}
	return out
}

func sanitize(x []float64) []float64 {
	for i, v := range x {
		if !isFinite(v) {
			x[i] = 0
		}
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
