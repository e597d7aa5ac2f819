package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-spectro/measure/linefit"
)

func sampleResult() linefit.Result {
	wave := []float64{4999.8, 4999.9, 5000.0, 5000.1, 5000.2}
	return linefit.Result{
		Found:  true,
		Line:   5000,
		Center: 5000,
		RVKms:  0.3,
		EW:     120,
		FWHM:   0.8,
		Data: linefit.FitData{
			Wave:      wave,
			Flux:      []float64{1, 0.95, 0.8, 0.95, 1},
			Norm:      []float64{1, 0.95, 0.8, 0.95, 1},
			Continuum: []float64{1, 1, 1, 1, 1},
			Fit:       []float64{0.99, 0.94, 0.81, 0.94, 0.99},
			Mask:      []bool{true, false, false, false, true},
		},
	}
}

func TestPNGRender(t *testing.T) {
	dir := t.TempDir()
	if err := NewPNG(dir).Render(sampleResult()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "line_5000.00.png"))
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("rendered file is empty")
	}
}

func TestPNGSkipsNotFound(t *testing.T) {
	dir := t.TempDir()
	if err := NewPNG(dir).Render(linefit.Result{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("not-found result produced %d files", len(entries))
	}
}

func TestPNGRejectsEmptyData(t *testing.T) {
	res := sampleResult()
	res.Data = linefit.FitData{}
	if err := NewPNG(t.TempDir()).Render(res); err == nil {
		t.Error("expected an error for a result without arrays")
	}
}

func TestNopSink(t *testing.T) {
	var s Sink = Nop{}
	if err := s.Render(sampleResult()); err != nil {
		t.Fatalf("Nop.Render: %v", err)
	}
}
