package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-spectro/measure/snr"
)

// Line is one entry of a spectral line list.
type Line struct {
	// Wavelength is the rest wavelength in angstrom.
	Wavelength float64
	// Element labels the transition, e.g. "SiIII".
	Element string
	// Loggf is the oscillator strength, NaN when the list omits it.
	Loggf float64
}

// LoadLines parses a line list with rows of the form
//
//	wavelength element [loggf]
//
// Blank lines and # comments are skipped.
func LoadLines(r io.Reader) ([]Line, error) {
	var out []Line

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
			return nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}

		wl, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}

		entry := Line{Wavelength: wl, Element: fields[1], Loggf: math.NaN()}
		if len(fields) > 2 {
			gf, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
			}
			entry.Loggf = gf
		}

		out = append(out, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrEmptyTable
	}

	return out, nil
}

// LoadGaps parses continuum gap ranges, one "lo-hi" pair per line, for the
// signal-to-noise estimator.
func LoadGaps(r io.Reader) ([]snr.Gap, error) {
	var out []snr.Gap

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		lo, hi, ok := strings.Cut(text, "-")
		if !ok {
			return nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}

		loV, errLo := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		hiV, errHi := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if errLo != nil || errHi != nil || hiV <= loV {
			return nil, fmt.Errorf("catalog: line %d: %w", lineNo, ErrBadFormat)
		}

		out = append(out, snr.Gap{Lo: loV, Hi: hiV})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrEmptyTable
	}

	return out, nil
}
