package linefit

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-spectro/spectro/profile"
)

// ErrUnknownModel is returned when a model tag does not name a profile.
var ErrUnknownModel = errors.New("linefit: unknown model")

// Model selects the line-shape family used by the fitter. Each variant
// carries its own parameter count, initial guess, and optimizer bounds.
type Model int

const (
	// ModelGaussian fits A, x0, sigma.
	ModelGaussian Model = iota
	// ModelLorentzian fits A, x0, gamma, y.
	ModelLorentzian
	// ModelVoigt fits A, x0, sigma, gamma, y.
	ModelVoigt
	// ModelRotational fits A, x0, sigma, vsini.
	ModelRotational
	// ModelVoigtRotBalmer fits A, x0, sigma, gamma, vsini, y with the wide
	// bounds suited to hydrogen lines.
	ModelVoigtRotBalmer
	// ModelVoigtRotMetal is the same profile with the tighter bounds suited
	// to metal lines.
	ModelVoigtRotMetal
	// ModelVoigtRotGaussBalmer fits A1, x0, sigma1, gamma, vsini, A2,
	// sigma2, y for strong blended hydrogen lines.
	ModelVoigtRotGaussBalmer
	// ModelVoigtRotGaussMetal is the two-component profile with metal-line
	// bounds.
	ModelVoigtRotGaussMetal
)

// maxVsini bounds the projected rotational velocity in km/s.
const maxVsini = 410

// ParseModel maps the short textual tags used in session files and on the
// command line onto Model values.
func ParseModel(tag string) (Model, error) {
	switch tag {
	case "g", "gaussian":
		return ModelGaussian, nil
	case "l", "lorentzian":
		return ModelLorentzian, nil
	case "v", "voigt":
		return ModelVoigt, nil
	case "r", "rot", "rotational":
		return ModelRotational, nil
	case "vr_H":
		return ModelVoigtRotBalmer, nil
	case "vr_Z":
		return ModelVoigtRotMetal, nil
	case "vrg_H":
		return ModelVoigtRotGaussBalmer, nil
	case "vrg_Z":
		return ModelVoigtRotGaussMetal, nil
	}
	return 0, ErrUnknownModel
}

func (m Model) String() string {
	switch m {
	case ModelGaussian:
		return "gaussian"
	case ModelLorentzian:
		return "lorentzian"
	case ModelVoigt:
		return "voigt"
	case ModelRotational:
		return "rotational"
	case ModelVoigtRotBalmer:
		return "voigt-rot (Balmer)"
	case ModelVoigtRotMetal:
		return "voigt-rot (metal)"
	case ModelVoigtRotGaussBalmer:
		return "voigt-rot-gauss (Balmer)"
	case ModelVoigtRotGaussMetal:
		return "voigt-rot-gauss (metal)"
	}
	return "unknown"
}

// NumParams reports the length of the parameter vector for the model.
func (m Model) NumParams() int {
	switch m {
	case ModelGaussian:
		return 3
	case ModelLorentzian, ModelRotational:
		return 4
	case ModelVoigt:
		return 5
	case ModelVoigtRotBalmer, ModelVoigtRotMetal:
		return 6
	case ModelVoigtRotGaussBalmer, ModelVoigtRotGaussMetal:
		return 8
	}
	return 0
}

// Rotational reports whether the profile includes rotational broadening.
// Non-rotational models are unreliable for lines wider than about 2 Å.
func (m Model) Rotational() bool {
	switch m {
	case ModelRotational, ModelVoigtRotBalmer, ModelVoigtRotMetal,
		ModelVoigtRotGaussBalmer, ModelVoigtRotGaussMetal:
		return true
	}
	return false
}

// eval evaluates the profile over the window for the given parameters.
func (m Model) eval(x, p []float64) []float64 {
	switch m {
	case ModelGaussian:
		return profile.Gaussian(x, p[0], p[1], p[2])
	case ModelLorentzian:
		return profile.Lorentzian(x, p[0], p[1], p[2], p[3])
	case ModelVoigt:
		return profile.Voigt(x, p[0], p[1], p[2], p[3], p[4])
	case ModelRotational:
		return profile.Rotational(x, p[0], p[1], p[2], p[3])
	case ModelVoigtRotBalmer, ModelVoigtRotMetal:
		return profile.VoigtRotational(x, p[0], p[1], p[2], p[3], p[4], p[5])
	case ModelVoigtRotGaussBalmer, ModelVoigtRotGaussMetal:
		return profile.VoigtRotationalGaussian(x, p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7])
	}
	return nil
}

// bounds builds the optimizer box and initial guess for a line at rest
// wavelength line, center tolerance tolAA (angstrom) and dispersion limit
// dlamb. The center bound is always [line-tolAA, line+tolAA]; the remaining
// bounds encode the physical range of each shape parameter. Models without a
// canonical starting point guess the box midpoint.
func (m Model) bounds(line, tolAA, dlamb float64) (lower, upper, guess []float64) {
	inf := math.Inf(1)
	sigMin := dlamb / 2 / math.Sqrt(2*math.Ln2)

	switch m {
	case ModelGaussian:
		lower = []float64{-inf, line - tolAA, sigMin}
		upper = []float64{0, line + tolAA, 4}
		guess = []float64{-0.1, line, 0.8}
	case ModelLorentzian:
		lower = []float64{-inf, line - tolAA, -inf, 1}
		upper = []float64{0, line + tolAA, inf, 1.01}
		guess = []float64{-0.1, line, 0.5, 1}
	case ModelVoigt:
		lower = []float64{-0.5, line - tolAA, 0, 0, 1}
		upper = []float64{0, line + tolAA, 2, 0.5, 1.01}
	case ModelRotational:
		lower = []float64{0, line - tolAA, 0, 1}
		upper = []float64{0.3, line + tolAA, 2.5, maxVsini}
	case ModelVoigtRotBalmer:
		lower = []float64{-0.5, line - tolAA, 0, 0, 1, 0}
		upper = []float64{0, line + tolAA, 1.5, 1.5, maxVsini, 0.01}
	case ModelVoigtRotMetal:
		lower = []float64{-0.1, line - tolAA, 0, 0, 1, 0}
		upper = []float64{0, line + tolAA, 1.5, 1, maxVsini, 0.01}
	case ModelVoigtRotGaussBalmer:
		lower = []float64{-0.4, line - tolAA, 0, 0, 1, -0.07, 0, 0}
		upper = []float64{0, line + tolAA, 10, 10, maxVsini, 0, 4, 0.01}
	case ModelVoigtRotGaussMetal:
		lower = []float64{-0.1, line - tolAA, 0, 0, 1, -1.3, 0, -0.01}
		upper = []float64{0, line + tolAA, 1.5, 1, maxVsini, 0, 2, 0.01}
	}

	if guess == nil {
		guess = make([]float64, len(lower))
		for i := range guess {
			guess[i] = (lower[i] + upper[i]) / 2
		}
	}

	return lower, upper, guess
}

// theoreticalFWHM derives the line width implied by the fitted shape
// parameters, where the family has a closed form. NaN otherwise.
func (m Model) theoreticalFWHM(line float64, p []float64) float64 {
	switch m {
	case ModelGaussian:
		return 2 * math.Sqrt(2*math.Ln2) * p[2]
	case ModelLorentzian:
		return 2 * math.Abs(p[2])
	case ModelVoigt:
		g := p[3]
		return 2 * (0.5346*g + math.Sqrt(0.2166*g*g+p[2]*p[2]))
	case ModelRotational:
		return 1.7 * p[3] * line * 1000 / profile.SpeedOfLight
	}
	return math.NaN()
}
