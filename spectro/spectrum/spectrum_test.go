package spectrum

import (
	"math"
	"strings"
	"testing"
)

func grid(lo, hi, dx float64) []float64 {
	n := int((hi-lo)/dx) + 1
	x := make([]float64, n)
	for i := range x {
		x[i] = lo + float64(i)*dx
	}
	return x
}

func flat(n int) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = 1
	}
	return f
}

func gaussLine(wave []float64, a, x0, sigma float64) []float64 {
	flux := make([]float64, len(wave))
	for i, w := range wave {
		d := w - x0
		flux[i] = 1 + a*math.Exp(-d*d/(2*sigma*sigma))
	}
	return flux
}

func TestNewValidation(t *testing.T) {
	if _, err := New([]float64{1, 2}, []float64{1}); err != ErrLengthMismatch {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
	if _, err := New([]float64{1}, []float64{1}); err != ErrTooShort {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
	if _, err := New([]float64{1, 1}, []float64{1, 1}); err != ErrNotAscending {
		t.Fatalf("err = %v, want ErrNotAscending", err)
	}
}

func TestNewComputesStep(t *testing.T) {
	wave := grid(5000, 5010, 0.02)
	s, err := New(wave, flat(len(wave)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if math.Abs(s.Dx-0.02) > 1e-12 {
		t.Fatalf("Dx = %v, want 0.02", s.Dx)
	}
}

func TestWindow(t *testing.T) {
	wave := grid(4990, 5010, 0.1)
	s, _ := New(wave, flat(len(wave)))

	ww, wf, err := s.Window(5000, 4)
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if len(ww) != len(wf) {
		t.Fatalf("window lengths differ: %d vs %d", len(ww), len(wf))
	}
	if ww[0] < 4998 || ww[len(ww)-1] > 5002 {
		t.Fatalf("window spans %v..%v, want within 4998..5002", ww[0], ww[len(ww)-1])
	}

	if _, _, err := s.Window(6000, 4); err != ErrWindowEmpty {
		t.Fatalf("err = %v, want ErrWindowEmpty", err)
	}
}

func TestResampleRoundTrip(t *testing.T) {
	wave := grid(4990, 5010, 0.02)
	s, _ := New(wave, gaussLine(wave, -0.3, 5000, 0.4), WithResolution(80000))

	orig := append([]float64(nil), s.Flux...)
	if err := s.Resample(0.02); err != nil {
		t.Fatalf("Resample failed: %v", err)
	}

	if s.Len() != len(orig) {
		t.Fatalf("len = %d, want %d", s.Len(), len(orig))
	}
	for i := range orig {
		if math.Abs(s.Flux[i]-orig[i]) > 1e-9 {
			t.Fatalf("flux[%d] = %v, want %v", i, s.Flux[i], orig[i])
		}
	}
}

func TestResampleKeepsInvariants(t *testing.T) {
	wave := grid(4990, 5010, 0.02)
	s, _ := New(wave, gaussLine(wave, -0.3, 5000, 0.4))

	if err := s.Resample(0.05, WithRange(4992, 5008)); err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(s.Wave) != len(s.Flux) {
		t.Fatal("length invariant broken")
	}
	for i := 1; i < len(s.Wave); i++ {
		if s.Wave[i] <= s.Wave[i-1] {
			t.Fatal("wavelength no longer ascending")
		}
	}
	if s.Dx != 0.05 {
		t.Fatalf("Dx = %v, want 0.05", s.Dx)
	}
}

func TestResampleRejectsBadInput(t *testing.T) {
	wave := grid(4990, 5010, 0.02)
	s, _ := New(wave, flat(len(wave)))
	if err := s.Resample(0); err != ErrInvalidStep {
		t.Fatalf("err = %v, want ErrInvalidStep", err)
	}
	if err := s.Resample(0.05, WithRange(5010, 4990)); err != ErrInvalidRange {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}

func TestDegradePreservesContinuum(t *testing.T) {
	wave := grid(4950, 5050, 0.02)
	s, _ := New(wave, flat(len(wave)), WithResolution(85000))

	if err := s.Degrade(10000); err != nil {
		t.Fatalf("Degrade failed: %v", err)
	}
	if s.Resolution != 10000 {
		t.Fatalf("resolution = %v, want 10000", s.Resolution)
	}
	mid := s.Len() / 2
	if math.Abs(s.Flux[mid]-1) > 1e-9 {
		t.Fatalf("continuum level = %v, want 1", s.Flux[mid])
	}
}

func TestDegradeWidensLine(t *testing.T) {
	wave := grid(4950, 5050, 0.02)
	s, _ := New(wave, gaussLine(wave, -0.4, 5000, 0.2), WithResolution(85000))

	before := fwhmOf(s.Wave, s.Flux)
	if err := s.Degrade(5000); err != nil {
		t.Fatalf("Degrade failed: %v", err)
	}
	after := fwhmOf(s.Wave, s.Flux)

	if after <= before {
		t.Fatalf("degrading did not widen the line: %v -> %v", before, after)
	}
}

func TestDegradeMonotonicWithResolution(t *testing.T) {
	wave := grid(4950, 5050, 0.02)
	base := gaussLine(wave, -0.4, 5000, 0.2)

	var prev float64
	for i, resol := range []float64{20000, 10000, 5000, 2500} {
		s, _ := New(append([]float64(nil), wave...), append([]float64(nil), base...),
			WithResolution(85000))
		if err := s.Degrade(resol); err != nil {
			t.Fatalf("Degrade(%v) failed: %v", resol, err)
		}
		w := fwhmOf(s.Wave, s.Flux)
		if i > 0 && w <= prev {
			t.Fatalf("FWHM not increasing as resolving power drops: %v at R=%v after %v", w, resol, prev)
		}
		prev = w
	}
}

func TestDegradeRotMac(t *testing.T) {
	wave := grid(4950, 5050, 0.02)
	s, _ := New(wave, gaussLine(wave, -0.4, 5000, 0.2), WithResolution(85000))

	before := fwhmOf(s.Wave, s.Flux)
	if err := s.DegradeRotMac(150, 50); err != nil {
		t.Fatalf("DegradeRotMac failed: %v", err)
	}
	if got := fwhmOf(s.Wave, s.Flux); got <= before {
		t.Fatalf("rot+mac degradation did not widen the line: %v -> %v", before, got)
	}

	if err := s.DegradeRotMac(0, 0); err == nil {
		t.Fatal("expected error for zero velocities")
	}
}

func TestCloneIndependent(t *testing.T) {
	wave := grid(5000, 5010, 0.1)
	s, _ := New(wave, flat(len(wave)))
	c := s.Clone()
	c.Flux[0] = 99
	if s.Flux[0] == 99 {
		t.Fatal("clone shares flux storage")
	}
}

func TestWriteASCII(t *testing.T) {
	wave := []float64{5000.0, 5000.1, 5000.2}
	s, _ := New(wave, []float64{1, 0.5, 1})
	var sb strings.Builder
	if err := s.WriteASCII(&sb); err != nil {
		t.Fatalf("WriteASCII failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want 3", len(lines))
	}
	if lines[1] != "5000.1000 0.500000" {
		t.Fatalf("line = %q", lines[1])
	}
}

func fwhmOf(x, y []float64) float64 {
	min, max := y[0], y[0]
	for _, v := range y {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mid := (min + max) / 2

	first, last := -1, -1
	for i, v := range y {
		if v <= mid {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0
	}
	return x[last] - x[first]
}
