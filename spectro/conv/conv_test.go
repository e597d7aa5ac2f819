package conv

import (
	"math"
	"testing"
)

func TestSameLengthAndIdentity(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5}
	out, err := Same(signal, []float64{1})
	if err != nil {
		t.Fatalf("Same failed: %v", err)
	}
	if len(out) != len(signal) {
		t.Fatalf("len = %d, want %d", len(out), len(signal))
	}
	for i := range signal {
		if out[i] != signal[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], signal[i])
		}
	}
}

func TestSameCentered(t *testing.T) {
	// A centered 3-tap averaging kernel must leave a linear ramp unchanged
	// away from the edges.
	signal := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	taps := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	out, err := Same(signal, taps)
	if err != nil {
		t.Fatalf("Same failed: %v", err)
	}
	for i := 1; i < len(signal)-1; i++ {
		if math.Abs(out[i]-signal[i]) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], signal[i])
		}
	}
}

func TestSameEmptyInputs(t *testing.T) {
	if _, err := Same(nil, []float64{1}); err != ErrEmptyInput {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if _, err := Same([]float64{1}, nil); err != ErrEmptyKernel {
		t.Fatalf("err = %v, want ErrEmptyKernel", err)
	}
}

func TestDirectMatchesFFT(t *testing.T) {
	n := 512
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(float64(i) * 0.05)
	}

	taps := make([]float64, 100)
	for i := range taps {
		taps[i] = math.Exp(-math.Pow(float64(i)-50, 2) / 200)
	}

	direct := make([]float64, n+len(taps)-1)
	directTo(direct, signal, taps)

	viaFFT, err := fftConvolve(signal, taps)
	if err != nil {
		t.Fatalf("fftConvolve failed: %v", err)
	}

	for i := range direct {
		if math.Abs(direct[i]-viaFFT[i]) > 1e-9 {
			t.Fatalf("mismatch at %d: direct %v fft %v", i, direct[i], viaFFT[i])
		}
	}
}

func TestSameAroundUnityPreservesContinuum(t *testing.T) {
	flux := make([]float64, 200)
	for i := range flux {
		flux[i] = 1
	}

	k, err := Gaussian(0.3, 0.02, 5)
	if err != nil {
		t.Fatalf("Gaussian failed: %v", err)
	}

	out, err := SameAroundUnity(flux, k)
	if err != nil {
		t.Fatalf("SameAroundUnity failed: %v", err)
	}

	for i, v := range out {
		if math.Abs(v-1) > 1e-12 {
			t.Fatalf("continuum not preserved at %d: %v", i, v)
		}
	}
}
