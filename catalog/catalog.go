// Package catalog loads spectra and their observing-session metadata from
// the plain-text formats used by the survey archive: two-column ASCII
// spectra, yaml session descriptions, line lists, and continuum gap tables.
// It also resolves star names against an external catalog service.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-spectro/spectro/profile"
	"github.com/cwbudde/algo-spectro/spectro/spectrum"
)

var (
	ErrBadFormat  = errors.New("catalog: malformed input line")
	ErrEmptyTable = errors.New("catalog: no usable rows")
)

// Session describes one observation: the instrument state and the
// corrections to apply when loading its spectrum.
type Session struct {
	// Instrument is the spectrograph name, informational only.
	Instrument string `yaml:"instrument"`
	// Resolution is the resolving power λ/Δλ.
	Resolution float64 `yaml:"resolution"`
	// BarycentricKms is the barycentric velocity correction at midpoint in
	// km/s. Nil means the value was missing from the observation header.
	BarycentricKms *float64 `yaml:"barycentric_kms"`
	// HelioCorrected marks spectra whose wavelength grid already includes
	// the correction (FEROS and log-resampled products).
	HelioCorrected bool `yaml:"helio_corrected"`
	// OffsetAA is a wavelength offset to subtract from the grid.
	OffsetAA float64 `yaml:"offset_aa"`
	// HJD is the heliocentric Julian date at midpoint, 0 if unknown.
	HJD float64 `yaml:"hjd"`
	// SNR is the archive's signal-to-noise estimate, 0 if unknown.
	SNR float64 `yaml:"snr"`
}

// LoadSession decodes a yaml session description.
func LoadSession(r io.Reader) (Session, error) {
	var s Session
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Session{}, fmt.Errorf("catalog: session: %w", err)
	}
	return s, nil
}

// ReadSpectrum parses a two-column wavelength/flux table. Blank lines and
// lines starting with # are skipped.
func ReadSpectrum(r io.Reader) (wave, flux []float64, err error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}

		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}
		f, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}

		wave = append(wave, w)
		flux = append(flux, f)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("catalog: read: %w", err)
	}
	if len(wave) == 0 {
		return nil, nil, ErrEmptyTable
	}

	return wave, flux, nil
}

// Loader assembles Spectrum values from raw tables plus session metadata.
type Loader struct {
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger routes loader warnings. Nil (the default) is silent.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader returns a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	ld := &Loader{}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load reads a two-column spectrum and applies the session's corrections:
// the heliocentric velocity correction (unless the grid already carries it)
// followed by the wavelength offset. A missing barycentric value falls back
// to zero with a warning, never an error.
func (ld *Loader) Load(r io.Reader, ses Session) (*spectrum.Spectrum, error) {
	wave, flux, err := ReadSpectrum(r)
	if err != nil {
		return nil, err
	}

	vbar := 0.0
	if ses.BarycentricKms != nil {
		vbar = *ses.BarycentricKms
	} else if !ses.HelioCorrected {
		ld.warn("no barycentric correction in session, assuming zero",
			slog.String("instrument", ses.Instrument))
	}

	if !ses.HelioCorrected && vbar != 0 {
		factor := 1 + 1000*vbar/profile.SpeedOfLight
		for i := range wave {
			wave[i] *= factor
		}
	}

	if ses.OffsetAA != 0 {
		for i := range wave {
			wave[i] -= ses.OffsetAA
		}
	}

	opts := []spectrum.Option{
		spectrum.WithOffset(ses.OffsetAA),
		spectrum.WithBarycentricVelocity(vbar),
		spectrum.WithLogger(ld.logger),
	}
	if ses.Resolution > 0 {
		opts = append(opts, spectrum.WithResolution(ses.Resolution))
	}
	if ses.HJD != 0 {
		opts = append(opts, spectrum.WithHJD(ses.HJD))
	}
	if ses.SNR > 0 {
		opts = append(opts, spectrum.WithSNR(ses.SNR))
	}

	return spectrum.New(wave, flux, opts...)
}

func (ld *Loader) warn(msg string, args ...any) {
	if ld.logger != nil {
		ld.logger.Warn(msg, args...)
	}
}
