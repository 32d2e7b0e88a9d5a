// Package scenario builds initial conditions for the driver: Build
// returns a populated particle.RealParticles and a boundary.Config,
// and DefaultBundle returns the matching params.Bundle. No simulation
// handle is passed in or out.
//
// Grounded on internal/physics/sph.go's NewSPH scenario constructor
// (fixed particle layout, uniform spacing, symmetric initial state),
// generalized from the teacher's single 2-D dam-break layout to a
// 1-D two-state Riemann problem, the standard SPH code-verification
// case spec.md §8 names (S1 Sod shock tube).
package scenario

import (
	"github.com/san-kum/dynsim/internal/sph/boundary"
	"github.com/san-kum/dynsim/internal/sph/params"
	"github.com/san-kum/dynsim/internal/sph/particle"
)

// SodShockTube parameters, dimensionless, matching the classic
// left/right state (rho, p) = (1, 1) / (0.125, 0.1) with both halves
// initially at rest.
type SodShockTube struct {
	NLeft  int     // particle count in the left (dense) half
	NRight int     // particle count in the right (dilute) half
	Length float64 // domain half-length; tube spans [-Length, Length]
	Gamma  float64

	RhoLeft, PressureLeft   float64
	RhoRight, PressureRight float64
}

// DefaultSodShockTube returns the textbook parameterization at a
// resolution small enough for a unit test or a quick interactive run.
func DefaultSodShockTube() SodShockTube {
	return SodShockTube{
		NLeft: 320, NRight: 40, Length: 0.5, Gamma: 1.4,
		RhoLeft: 1.0, PressureLeft: 1.0,
		RhoRight: 0.125, PressureRight: 0.1,
	}
}

// Build lays particles uniformly over each half at a spacing that
// keeps mass-per-particle equal across the density jump (so every
// particle carries the same mass, the usual SPH shock-tube
// convention), and wires a reflecting (mirror, no-slip) boundary at
// both tube ends so the 1-D run stays bounded without invoking
// periodic wrap.
func (s SodShockTube) Build() (*particle.RealParticles, boundary.Config) {
	dim := 1
	// Equal particle mass across the density jump (standard Sod
	// convention): every particle carries the left state's
	// mass-per-particle, so the density ratio is realized through
	// particle number density rather than per-particle mass.
	massLeft := s.RhoLeft * s.Length / float64(s.NLeft)

	items := make([]particle.Particle, 0, s.NLeft+s.NRight)
	id := uint64(0)

	dxLeft := s.Length / float64(s.NLeft)
	for i := 0; i < s.NLeft; i++ {
		x := -s.Length + (float64(i)+0.5)*dxLeft
		p := particle.NewParticle(dim, id)
		p.Position[0] = x
		p.Mass = massLeft
		p.Density = s.RhoLeft
		p.Pressure = s.PressureLeft
		p.Energy = s.PressureLeft / ((s.Gamma - 1) * s.RhoLeft)
		p.SmoothingLength = 1.5 * dxLeft
		items = append(items, p)
		id++
	}

	dxRight := s.Length / float64(s.NRight)
	for i := 0; i < s.NRight; i++ {
		xr := (float64(i) + 0.5) * dxRight
		p := particle.NewParticle(dim, id)
		p.Position[0] = xr
		p.Mass = massLeft
		p.Density = s.RhoRight
		p.Pressure = s.PressureRight
		p.Energy = s.PressureRight / ((s.Gamma - 1) * s.RhoRight)
		p.SmoothingLength = 1.5 * dxRight
		items = append(items, p)
		id++
	}

	real := particle.NewRealParticles(dim, items)

	bcfg := boundary.Config{
		Dims: []boundary.DimConfig{
			{
				Type: boundary.Mirror, Min: -s.Length, Max: s.Length,
				MirrorSubtype: boundary.NoSlip, EnableLower: true, EnableUpper: true,
			},
		},
		UniformSpacing: dxLeft,
	}
	return real, bcfg
}

// DefaultBundle builds the params.Bundle a Sod shock tube normally
// runs with: SSPH formulation, Balsara-switch AV, CFL 0.3, no
// gravity.
func (s SodShockTube) DefaultBundle(bcfg boundary.Config) (params.Bundle, error) {
	rc := params.DefaultRunConfig()
	rc.Dim = 1
	rc.Gamma = s.Gamma
	rc.NeighborNumber = 5
	rc.Duration = 0.2
	rc.ParticleOutputInterval = 0.02
	rc.EnergyOutputInterval = 0.01
	return rc.Build(&bcfg)
}
