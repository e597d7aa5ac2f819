// Command specfit runs the spectral line analysis pipeline on two-column
// ASCII spectra.
//
// Usage:
//
//	specfit fit --spectrum star.dat --resolution 85000 --line 4552.622
//	specfit fit --spectrum star.dat --session obs.yaml --line 6562.80 --model vr_H
//	specfit clean --spectrum star.dat --resolution 46000 --out cleaned.dat
//	specfit degrade --spectrum star.dat --resolution 85000 --target 10000 --out low.dat
//	specfit snr --spectrum star.dat --resolution 46000 --gaps snr_gaps.txt
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-spectro/catalog"
	"github.com/cwbudde/algo-spectro/measure/linefit"
	"github.com/cwbudde/algo-spectro/measure/snr"
	"github.com/cwbudde/algo-spectro/render"
	"github.com/cwbudde/algo-spectro/spectro/cosmic"
	"github.com/cwbudde/algo-spectro/spectro/spectrum"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "specfit:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	spectrumPath string
	sessionPath  string
	resolution   float64
	verbose      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "specfit",
		Short:         "measure absorption lines in stellar spectra",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.spectrumPath, "spectrum", "", "two-column ASCII spectrum file")
	pf.StringVar(&flags.sessionPath, "session", "", "yaml session metadata file")
	pf.Float64Var(&flags.resolution, "resolution", 0, "resolving power, overrides the session value")
	pf.BoolVar(&flags.verbose, "verbose", false, "log pipeline warnings")

	root.AddCommand(newFitCmd(flags))
	root.AddCommand(newCleanCmd(flags))
	root.AddCommand(newDegradeCmd(flags))
	root.AddCommand(newSNRCmd(flags))

	return root
}

func (f *rootFlags) logger() *slog.Logger {
	if !f.verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func (f *rootFlags) load() (*spectrum.Spectrum, error) {
	if f.spectrumPath == "" {
		return nil, fmt.Errorf("--spectrum is required")
	}

	ses := catalog.Session{}
	if f.sessionPath != "" {
		sf, err := os.Open(f.sessionPath)
		if err != nil {
			return nil, err
		}
		ses, err = catalog.LoadSession(sf)
		sf.Close()
		if err != nil {
			return nil, err
		}
	}
	if f.resolution > 0 {
		ses.Resolution = f.resolution
	}

	r, err := os.Open(f.spectrumPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return catalog.NewLoader(catalog.WithLogger(f.logger())).Load(r, ses)
}

func writeSpectrum(s *spectrum.Spectrum, path string) error {
	if path == "" || path == "-" {
		return s.WriteASCII(os.Stdout)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.WriteASCII(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func newFitCmd(flags *rootFlags) *cobra.Command {
	var (
		lines   []string
		model   string
		width   float64
		tol     float64
		rounds  int
		plotDir string
		star    string
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "fit absorption lines and print their measurements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := flags.load()
			if err != nil {
				return err
			}

			m, err := linefit.ParseModel(model)
			if err != nil {
				return fmt.Errorf("%w: %q", err, model)
			}

			fitter := linefit.New(
				linefit.WithModel(m),
				linefit.WithWidth(width),
				linefit.WithTolerance(tol),
				linefit.WithRounds(rounds),
				linefit.WithLogger(flags.logger()),
			)

			var sink render.Sink = render.Nop{}
			if plotDir != "" {
				if err := os.MkdirAll(plotDir, 0o755); err != nil {
					return err
				}
				sink = render.NewPNG(plotDir)
			}

			if star != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				sp := catalog.NewResolver().SpectralType(ctx, star)
				cancel()
				if sp != "" {
					fmt.Printf("%s: %s\n", star, sp)
				}
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "line\tcenter\tRV km/s\tEW mA\tFWHM\tdepth\tSNR\tquality")
			for _, arg := range lines {
				line, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
				if err != nil {
					return fmt.Errorf("bad line wavelength %q", arg)
				}

				res, err := fitter.Fit(s, line)
				if err != nil {
					return err
				}
				if !res.Found {
					fmt.Fprintf(tw, "%.3f\tnot found: %s\t\t\t\t\t\t\n", line, res.Diagnostic)
					continue
				}

				fmt.Fprintf(tw, "%.3f\t%.3f\t%.3f\t%.2f\t%.2f\t%.2f\t%.0f\t%.3f\n",
					res.Line, res.Center, res.RVKms, res.EW, res.FWHM,
					res.Depth, res.SNR, res.Quality)

				if err := sink.Render(res); err != nil {
					return err
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringSliceVar(&lines, "line", nil, "rest wavelength to fit, repeatable")
	cmd.Flags().StringVar(&model, "model", "g", "profile model: g, l, v, r, vr_H, vr_Z, vrg_H, vrg_Z")
	cmd.Flags().Float64Var(&width, "width", 15, "initial window width in angstrom")
	cmd.Flags().Float64Var(&tol, "tol", 150, "center tolerance in km/s")
	cmd.Flags().IntVar(&rounds, "rounds", 3, "window refinement rounds")
	cmd.Flags().StringVar(&plotDir, "plot-dir", "", "write a PNG per fitted line into this directory")
	cmd.Flags().StringVar(&star, "star", "", "resolve this star's spectral type before fitting")
	cobra.CheckErr(cmd.MarkFlagRequired("line"))

	return cmd
}

func newCleanCmd(flags *rootFlags) *cobra.Command {
	var (
		threshold float64
		out       string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "remove cosmic ray hits from the spectrum",
		RunE: func(*cobra.Command, []string) error {
			s, err := flags.load()
			if err != nil {
				return err
			}

			n, err := cosmic.New(cosmic.WithThreshold(threshold)).Clean(s)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "replaced %d defect samples\n", n)

			return writeSpectrum(s, out)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 1.5, "defect threshold in sigma of the smoothed ratio")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")

	return cmd
}

func newDegradeCmd(flags *rootFlags) *cobra.Command {
	var (
		target float64
		vsini  float64
		vmac   float64
		dx     float64
		out    string
	)

	cmd := &cobra.Command{
		Use:   "degrade",
		Short: "degrade the spectrum to a lower resolving power or broaden it",
		RunE: func(*cobra.Command, []string) error {
			s, err := flags.load()
			if err != nil {
				return err
			}

			switch {
			case target > 0:
				if err := s.Degrade(target); err != nil {
					return err
				}
			case vsini > 0 || vmac > 0:
				if err := s.DegradeRotMac(vsini, vmac); err != nil {
					return err
				}
			default:
				return fmt.Errorf("need --target or --vsini/--vmac")
			}

			if dx > 0 {
				if err := s.Resample(dx); err != nil {
					return err
				}
			}

			return writeSpectrum(s, out)
		},
	}

	cmd.Flags().Float64Var(&target, "target", 0, "target resolving power for Gaussian degradation")
	cmd.Flags().Float64Var(&vsini, "vsini", 0, "rotational broadening velocity in km/s")
	cmd.Flags().Float64Var(&vmac, "vmac", 0, "macroturbulence velocity in km/s")
	cmd.Flags().Float64Var(&dx, "dx", 0, "resample to this wavelength step after degrading")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")

	return cmd
}

func newSNRCmd(flags *rootFlags) *cobra.Command {
	var gapsPath string

	cmd := &cobra.Command{
		Use:   "snr",
		Short: "estimate signal-to-noise over continuum gaps",
		RunE: func(*cobra.Command, []string) error {
			s, err := flags.load()
			if err != nil {
				return err
			}

			gf, err := os.Open(gapsPath)
			if err != nil {
				return err
			}
			gaps, err := catalog.LoadGaps(gf)
			gf.Close()
			if err != nil {
				return err
			}

			sum, err := snr.New().Estimate(s, gaps)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "gap\tsamples\tSNR")
			for _, g := range sum.Gaps {
				fmt.Fprintf(tw, "%.0f-%.0f\t%d\t%.0f\n", g.Gap.Lo, g.Gap.Hi, g.Samples, g.SNR)
			}
			fmt.Fprintf(tw, "overall\t\t%.0f\n", sum.SNR)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&gapsPath, "gaps", "", "file of lo-hi wavelength ranges")
	cobra.CheckErr(cmd.MarkFlagRequired("gaps"))

	return cmd
}
