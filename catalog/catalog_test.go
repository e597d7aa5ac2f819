package catalog

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-spectro/spectro/profile"
)

const sampleSpectrum = `# wavelength flux
4000.0000 0.998000
4000.0200 1.001000
4000.0400 0.999500
4000.0600 1.000200
`

func TestReadSpectrum(t *testing.T) {
	wave, flux, err := ReadSpectrum(strings.NewReader(sampleSpectrum))
	if err != nil {
		t.Fatalf("ReadSpectrum: %v", err)
	}
	if len(wave) != 4 || len(flux) != 4 {
		t.Fatalf("lengths = %d, %d; want 4, 4", len(wave), len(flux))
	}
	if wave[0] != 4000 || flux[1] != 1.001 {
		t.Errorf("parsed values wrong: wave[0]=%v flux[1]=%v", wave[0], flux[1])
	}
}

func TestReadSpectrumErrors(t *testing.T) {
	if _, _, err := ReadSpectrum(strings.NewReader("")); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("empty input: err = %v", err)
	}
	if _, _, err := ReadSpectrum(strings.NewReader("4000.0\n")); !errors.Is(err, ErrBadFormat) {
		t.Errorf("single column: err = %v", err)
	}
	if _, _, err := ReadSpectrum(strings.NewReader("4000.0 abc\n")); !errors.Is(err, ErrBadFormat) {
		t.Errorf("non-numeric flux: err = %v", err)
	}
}

func TestLoadSession(t *testing.T) {
	const doc = `
instrument: HERMES
resolution: 85000
barycentric_kms: -12.4
offset_aa: 0.2
hjd: 2455123.456
snr: 180
`
	ses, err := LoadSession(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if ses.Instrument != "HERMES" || ses.Resolution != 85000 {
		t.Errorf("instrument/resolution = %q/%v", ses.Instrument, ses.Resolution)
	}
	if ses.BarycentricKms == nil || *ses.BarycentricKms != -12.4 {
		t.Errorf("barycentric = %v, want -12.4", ses.BarycentricKms)
	}
	if ses.HelioCorrected {
		t.Error("helio_corrected defaulted to true")
	}
}

func TestLoadAppliesHelioCorrection(t *testing.T) {
	vbar := 20.0
	ses := Session{Resolution: 85000, BarycentricKms: &vbar}

	s, err := NewLoader().Load(strings.NewReader(sampleSpectrum), ses)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	factor := 1 + 1000*vbar/profile.SpeedOfLight
	want := 4000 * factor
	if math.Abs(s.Wave[0]-want) > 1e-9 {
		t.Errorf("wave[0] = %v, want %v", s.Wave[0], want)
	}
	if s.VBar != vbar {
		t.Errorf("VBar = %v, want %v", s.VBar, vbar)
	}
}

func TestLoadSkipsCorrectionWhenAlreadyApplied(t *testing.T) {
	vbar := 20.0
	ses := Session{Resolution: 85000, BarycentricKms: &vbar, HelioCorrected: true}

	s, err := NewLoader().Load(strings.NewReader(sampleSpectrum), ses)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Wave[0] != 4000 {
		t.Errorf("wave[0] = %v, want 4000 untouched", s.Wave[0])
	}
}

func TestLoadMissingBarycentricDefaultsToZero(t *testing.T) {
	ses := Session{Resolution: 85000}

	s, err := NewLoader().Load(strings.NewReader(sampleSpectrum), ses)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Wave[0] != 4000 || s.VBar != 0 {
		t.Errorf("wave[0]=%v vbar=%v, want uncorrected grid and zero vbar",
			s.Wave[0], s.VBar)
	}
}

func TestLoadAppliesOffset(t *testing.T) {
	ses := Session{Resolution: 85000, OffsetAA: 0.5}

	s, err := NewLoader().Load(strings.NewReader(sampleSpectrum), ses)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if math.Abs(s.Wave[0]-3999.5) > 1e-9 {
		t.Errorf("wave[0] = %v, want 3999.5", s.Wave[0])
	}
	if s.Offset != 0.5 {
		t.Errorf("Offset = %v, want 0.5", s.Offset)
	}
}

func TestLoadSessionMetadata(t *testing.T) {
	ses := Session{Resolution: 46000, HJD: 2455123.4, SNR: 210}

	s, err := NewLoader().Load(strings.NewReader(sampleSpectrum), ses)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Resolution != 46000 || s.HJD != 2455123.4 || s.SNR != 210 {
		t.Errorf("metadata = R%v HJD%v SNR%v", s.Resolution, s.HJD, s.SNR)
	}

	bare, err := NewLoader().Load(strings.NewReader(sampleSpectrum), Session{})
	if err != nil {
		t.Fatalf("Load bare: %v", err)
	}
	if !math.IsNaN(bare.HJD) || !math.IsNaN(bare.SNR) {
		t.Errorf("missing metadata: HJD=%v SNR=%v, want NaN", bare.HJD, bare.SNR)
	}
}

func TestLoadLines(t *testing.T) {
	const doc = `# rest  element  loggf
4552.622 SiIII 0.292
4567.840 SiIII 0.068
6562.80 Halpha
`
	lines, err := LoadLines(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadLines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("len = %d, want 3", len(lines))
	}
	if lines[0].Wavelength != 4552.622 || lines[0].Element != "SiIII" || lines[0].Loggf != 0.292 {
		t.Errorf("first line = %+v", lines[0])
	}
	if !math.IsNaN(lines[2].Loggf) {
		t.Errorf("missing loggf = %v, want NaN", lines[2].Loggf)
	}
}

func TestLoadGaps(t *testing.T) {
	const doc = `4240-4260
4445 - 4455
5100-5200
`
	gaps, err := LoadGaps(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadGaps: %v", err)
	}
	if len(gaps) != 3 {
		t.Fatalf("len = %d, want 3", len(gaps))
	}
	if gaps[1].Lo != 4445 || gaps[1].Hi != 4455 {
		t.Errorf("gaps[1] = %+v", gaps[1])
	}

	if _, err := LoadGaps(strings.NewReader("5200-5100\n")); !errors.Is(err, ErrBadFormat) {
		t.Errorf("inverted gap: err = %v", err)
	}
}
