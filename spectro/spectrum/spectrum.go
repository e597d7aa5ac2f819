// Package spectrum holds the mutable (wavelength, flux) state of an
// analysis session and the transforms that reshape it.
//
// A Spectrum owns its arrays exclusively; transforms mutate it in place
// but always keep the two arrays the same length and the wavelength grid
// strictly ascending. The intended pipeline is
//
//	load → clean → degrade/resample → fit
//
// with each stage a plain function or method over the same state struct.
package spectrum

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Errors returned by spectrum construction and transforms.
var (
	ErrLengthMismatch    = errors.New("spectrum: wavelength and flux lengths differ")
	ErrTooShort          = errors.New("spectrum: need at least two samples")
	ErrNotAscending      = errors.New("spectrum: wavelength must be strictly increasing")
	ErrWindowEmpty       = errors.New("spectrum: no samples in requested window")
	ErrInvalidStep       = errors.New("spectrum: step must be positive")
	ErrInvalidResolution = errors.New("spectrum: resolving power must be positive")
	ErrInvalidRange      = errors.New("spectrum: invalid wavelength range")
)

// gaussFWHM converts a Gaussian sigma to FWHM: 2·sqrt(2·ln 2).
const gaussFWHM = 2.35482

// maxWindowWidth caps fit windows; wider requests are clamped with a
// warning, matching instrument pipelines that refuse to fit across orders.
const maxWindowWidth = 200.0

// Spectrum is a single observed spectrum plus its session metadata.
type Spectrum struct {
	// Wave is the wavelength grid in angstrom, strictly ascending.
	Wave []float64
	// Flux is the flux at each wavelength, continuum near 1 for
	// normalized spectra.
	Flux []float64
	// Dx is the (near-)uniform wavelength step of the grid.
	Dx float64
	// Resolution is the instrument resolving power λ/Δλ.
	Resolution float64
	// Offset is the wavelength offset that was subtracted from the grid.
	Offset float64
	// VBar is the barycentric velocity correction at midpoint, km/s.
	VBar float64
	// SNR is the signal-to-noise estimate for the spectrum.
	SNR float64
	// HJD is the heliocentric Julian date at midpoint.
	HJD float64

	logger *slog.Logger
}

// Option configures a Spectrum at construction time.
type Option func(*Spectrum)

// WithResolution sets the instrument resolving power.
func WithResolution(r float64) Option {
	return func(s *Spectrum) {
		if r > 0 {
			s.Resolution = r
		}
	}
}

// WithOffset records the wavelength offset already subtracted from the grid.
func WithOffset(aa float64) Option {
	return func(s *Spectrum) { s.Offset = aa }
}

// WithBarycentricVelocity sets the barycentric correction in km/s.
func WithBarycentricVelocity(kms float64) Option {
	return func(s *Spectrum) { s.VBar = kms }
}

// WithHJD sets the heliocentric Julian date.
func WithHJD(hjd float64) Option {
	return func(s *Spectrum) { s.HJD = hjd }
}

// WithSNR sets the metadata signal-to-noise estimate.
func WithSNR(snr float64) Option {
	return func(s *Spectrum) { s.SNR = snr }
}

// WithLogger routes advisory warnings; nil keeps the spectrum silent.
func WithLogger(l *slog.Logger) Option {
	return func(s *Spectrum) { s.logger = l }
}

// New creates a Spectrum over the given arrays, which it takes ownership
// of. The wavelength grid must be strictly ascending and match flux in
// length.
func New(wave, flux []float64, opts ...Option) (*Spectrum, error) {
	if len(wave) != len(flux) {
		return nil, ErrLengthMismatch
	}
	if len(wave) < 2 {
		return nil, ErrTooShort
	}
	for i := 1; i < len(wave); i++ {
		if wave[i] <= wave[i-1] {
			return nil, ErrNotAscending
		}
	}

	s := &Spectrum{
		Wave: wave,
		Flux: flux,
		Dx:   (wave[len(wave)-1] - wave[0]) / float64(len(wave)-1),
		SNR:  math.NaN(),
		HJD:  math.NaN(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s, nil
}

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	return len(s.Wave)
}

// MeanWave returns the mean wavelength of the grid.
func (s *Spectrum) MeanWave() float64 {
	return stat.Mean(s.Wave, nil)
}

// Window copies the samples within [center-width/2, center+width/2].
// Widths above 200 Å are clamped with a warning.
func (s *Spectrum) Window(center, width float64) (wave, flux []float64, err error) {
	if width > maxWindowWidth {
		s.warn("window width clamped",
			slog.Float64("requested", width), slog.Float64("clamped", maxWindowWidth))
		width = maxWindowWidth
	}

	lo := center - width/2
	hi := center + width/2
	for i, w := range s.Wave {
		if w < lo || w > hi {
			continue
		}
		wave = append(wave, w)
		flux = append(flux, s.Flux[i])
	}

	if len(wave) == 0 {
		return nil, nil, ErrWindowEmpty
	}

	return wave, flux, nil
}

// Clone returns a deep copy sharing no state with the receiver.
func (s *Spectrum) Clone() *Spectrum {
	out := *s
	out.Wave = append([]float64(nil), s.Wave...)
	out.Flux = append([]float64(nil), s.Flux...)
	return &out
}

// WriteASCII dumps the spectrum as two whitespace-separated columns.
func (s *Spectrum) WriteASCII(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range s.Wave {
		if _, err := fmt.Fprintf(bw, "%.4f %.6f\n", s.Wave[i], s.Flux[i]); err != nil {
			return fmt.Errorf("spectrum: write: %w", err)
		}
	}
	return bw.Flush()
}

func (s *Spectrum) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
