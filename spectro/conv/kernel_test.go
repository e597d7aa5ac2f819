package conv

import (
	"math"
	"testing"
)

func TestGaussianKernelNormalized(t *testing.T) {
	for _, sigma := range []float64{0.1, 0.5, 2.0} {
		k, err := Gaussian(sigma, 0.02, 5)
		if err != nil {
			t.Fatalf("Gaussian(%v) failed: %v", sigma, err)
		}
		if got := k.Integral(); math.Abs(got-1) > 1e-12 {
			t.Fatalf("sigma %v: integral = %v, want 1", sigma, got)
		}
	}
}

func TestGaussianKernelSymmetric(t *testing.T) {
	k, err := Gaussian(0.5, 0.05, 5)
	if err != nil {
		t.Fatalf("Gaussian failed: %v", err)
	}
	n := k.Len()
	for i := 0; i < n/2; i++ {
		if math.Abs(k.Taps[i]-k.Taps[n-1-i]) > 1e-12 {
			t.Fatalf("taps %d and %d differ: %v vs %v", i, n-1-i, k.Taps[i], k.Taps[n-1-i])
		}
	}
}

func TestNewZeroesNonFinite(t *testing.T) {
	k, err := New([]float64{1, math.NaN(), 1, math.Inf(1), 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if k.Taps[1] != 0 || k.Taps[3] != 0 {
		t.Fatalf("non-finite taps survived: %v", k.Taps)
	}
	if math.Abs(k.Integral()-1) > 1e-12 {
		t.Fatalf("integral = %v, want 1", k.Integral())
	}
}

func TestNewRejectsDegenerate(t *testing.T) {
	if _, err := New(nil); err != ErrEmptyKernel {
		t.Fatalf("err = %v, want ErrEmptyKernel", err)
	}
	if _, err := New([]float64{0, 0, 0}); err != ErrInvalidKernel {
		t.Fatalf("err = %v, want ErrInvalidKernel", err)
	}
}

func TestSupport(t *testing.T) {
	x, err := Support(1.0, 0.25)
	if err != nil {
		t.Fatalf("Support failed: %v", err)
	}
	if len(x) != 9 {
		t.Fatalf("len = %d, want 9", len(x))
	}
	if x[0] != -1.0 || math.Abs(x[8]-1.0) > 1e-12 {
		t.Fatalf("support endpoints %v .. %v", x[0], x[8])
	}
	if _, err := Support(1.0, 0); err != ErrInvalidStep {
		t.Fatalf("err = %v, want ErrInvalidStep", err)
	}
}
