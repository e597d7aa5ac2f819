// Package boundfit performs box-constrained nonlinear least-squares fits by
// wrapping an unconstrained Levenberg-Marquardt solver with smooth parameter
// transforms. Each bounded parameter is mapped onto an unconstrained internal
// variable (a sine transform for two-sided bounds, a hyperbola for one-sided
// ones), the solver runs freely in the internal space, and the result is
// mapped back inside the box.
package boundfit

import (
	"errors"
	"math"

	"github.com/maorshutman/lm"
)

var (
	ErrDimensionMismatch = errors.New("boundfit: mismatched problem dimensions")
	ErrGuessOutOfBounds  = errors.New("boundfit: initial guess outside bounds")
	ErrNoConvergence     = errors.New("boundfit: solver did not produce finite parameters")
)

// Problem describes a box-constrained least-squares fit of a model function
// to sampled data. Lower and Upper may contain +-Inf entries for parameters
// that are unbounded on one or both sides.
type Problem struct {
	// X and Y are the abscissae and target values, one residual per sample.
	X []float64
	Y []float64

	// Eval evaluates the model over the full abscissa with the given
	// parameter vector, returning one value per sample. Whole-array
	// evaluation lets convolution-based models see the entire window.
	Eval func(x, params []float64) []float64

	// Guess is the starting point; it must lie within [Lower, Upper].
	Guess []float64

	// Lower and Upper bound each parameter. Use math.Inf for open sides.
	Lower []float64
	Upper []float64

	// MaxIterations caps the solver. Zero selects the default of 100.
	MaxIterations int
}

// Fit runs the constrained fit and returns the parameter vector in external
// (bounded) coordinates.
func Fit(p Problem) ([]float64, error) {
	dim := len(p.Guess)
	if dim == 0 || len(p.Lower) != dim || len(p.Upper) != dim {
		return nil, ErrDimensionMismatch
	}

	if len(p.X) == 0 || len(p.X) != len(p.Y) {
		return nil, ErrDimensionMismatch
	}

	for i := range dim {
		if p.Guess[i] < p.Lower[i] || p.Guess[i] > p.Upper[i] {
			return nil, ErrGuessOutOfBounds
		}
	}

	theta0 := make([]float64, dim)
	for i := range dim {
		theta0[i] = toInternal(p.Guess[i], p.Lower[i], p.Upper[i])
	}

	resFunc := func(dst, theta []float64) {
		params := make([]float64, dim)
		for i := range dim {
			params[i] = toExternal(theta[i], p.Lower[i], p.Upper[i])
		}

		model := p.Eval(p.X, params)
		for i := range dst {
			dst[i] = model[i] - p.Y[i]
		}
	}

	iters := p.MaxIterations
	if iters <= 0 {
		iters = 100
	}

	nj := &lm.NumJac{Func: resFunc}
	problem := lm.LMProblem{
		Dim:        dim,
		Size:       len(p.X),
		Func:       resFunc,
		Jac:        nj.Jac,
		InitParams: theta0,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	result, err := lm.LM(problem, &lm.Settings{Iterations: iters, ObjectiveTol: 1e-16})
	if err != nil {
		return nil, err
	}

	out := make([]float64, dim)
	for i := range dim {
		out[i] = toExternal(result.X[i], p.Lower[i], p.Upper[i])
		if math.IsNaN(out[i]) {
			return nil, ErrNoConvergence
		}
	}

	return out, nil
}

// toInternal maps a bounded parameter value onto the unconstrained internal
// axis. The guess is nudged slightly off the box edges so the sine transform
// starts with a nonzero gradient.
func toInternal(v, lo, hi float64) float64 {
	loOpen := math.IsInf(lo, -1)
	hiOpen := math.IsInf(hi, 1)

	switch {
	case loOpen && hiOpen:
		return v
	case loOpen:
		d := hi + 1 - v
		if d < 1 {
			d = 1
		}
		return math.Sqrt(d*d - 1)
	case hiOpen:
		d := v - lo + 1
		if d < 1 {
			d = 1
		}
		return math.Sqrt(d*d - 1)
	default:
		f := (v - lo) / (hi - lo)
		if f < 1e-3 {
			f = 1e-3
		}
		if f > 1-1e-3 {
			f = 1 - 1e-3
		}
		return math.Asin(2*f - 1)
	}
}

// toExternal maps an internal solver variable back into the bounded box.
func toExternal(t, lo, hi float64) float64 {
	loOpen := math.IsInf(lo, -1)
	hiOpen := math.IsInf(hi, 1)

	switch {
	case loOpen && hiOpen:
		return t
	case loOpen:
		return hi + 1 - math.Sqrt(t*t+1)
	case hiOpen:
		return lo - 1 + math.Sqrt(t*t+1)
	default:
		return lo + (hi-lo)*(math.Sin(t)+1)/2
	}
}
