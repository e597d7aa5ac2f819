package spectrum

import (
	"github.com/cwbudde/algo-spectro/spectro/conv"
	"github.com/cwbudde/algo-spectro/spectro/profile"
)

// rotMacHalfWidth is the fixed kernel support in angstrom for
// rotational/macroturbulence degradation.
const rotMacHalfWidth = 9.0

// Degrade convolves the flux with a Gaussian kernel matching the given
// resolving power, simulating observation by a lower-resolution
// instrument. The spectrum's resolving power is updated.
func (s *Spectrum) Degrade(resolution float64) error {
	if resolution <= 0 {
		return ErrInvalidResolution
	}

	sigma := s.MeanWave() / (gaussFWHM * resolution)
	k, err := conv.Gaussian(sigma, s.Dx, 10)
	if err != nil {
		return err
	}

	flux, err := conv.SameAroundUnity(s.Flux, k)
	if err != nil {
		return err
	}

	s.Flux = flux
	s.Resolution = resolution

	return nil
}

// DegradeRotMac convolves the flux with a combined rotational and
// radial-tangential macroturbulence kernel for the given velocities in
// km/s, over a fixed ±9 Å support. At least one velocity must be positive.
func (s *Spectrum) DegradeRotMac(vsini, vmac float64) error {
	if vsini <= 0 && vmac <= 0 {
		return ErrInvalidResolution
	}

	x, err := conv.Support(rotMacHalfWidth, s.Dx)
	if err != nil {
		return err
	}

	k, err := conv.New(profile.RotMac(x, s.MeanWave(), vsini, vmac))
	if err != nil {
		return err
	}

	flux, err := conv.SameAroundUnity(s.Flux, k)
	if err != nil {
		return err
	}

	s.Flux = flux

	return nil
}
