// Package timestep reduces per-particle Courant and force bounds to a
// single global dt (spec §4.8).
//
// Grounded on internal/sim/simulator.go's adaptiveStep halving/
// doubling idiom, generalized from a single adaptive-RK controller
// into the per-particle Courant/force reduction spec §4.8 describes.
package timestep

import (
	"math"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

// Config holds the CFL constants (spec §6 "CFL" sub-bundle).
type Config struct {
	SoundCoefficient float64 // C_c, default 0.3
	ForceCoefficient float64 // C_f, default 0.125
}

func DefaultConfig() Config {
	return Config{SoundCoefficient: 0.3, ForceCoefficient: 0.125}
}

// DivergenceLookup supplies the per-particle velocity-divergence magnitude
// computed during the pre-interaction pass (the same quantity that
// feeds the Balsara switch), needed by the Courant bound's AV term.
type DivergenceLookup func(i int) float64

// Compute reduces every real particle's Courant and force bounds to a
// single global dt, additionally capped at nextOutputTime - currentTime
// when nextOutputTime is later than currentTime (spec §4.8).
func Compute(real *particle.RealParticles, cfg Config, divV DivergenceLookup, avBeta float64, nextOutputTime, currentTime float64) float64 {
	n := real.Len()
	dt := math.Inf(1)

	for i := 0; i < n; i++ {
		p := real.At(i)
		h := p.SmoothingLength
		if h <= 0 {
			continue
		}

		dv := 0.0
		if divV != nil {
			dv = math.Abs(divV(i))
		}

		courantDenom := h*dv + p.SoundSpeed + 1.2*(p.AVAlpha*p.SoundSpeed+avBeta*h*dv)
		if courantDenom > 0 {
			dtC := cfg.SoundCoefficient * h / courantDenom
			if dtC < dt {
				dt = dtC
			}
		}

		aMag := norm(p.Accel)
		if aMag > 1e-300 {
			dtF := cfg.ForceCoefficient * math.Sqrt(h/aMag)
			if dtF < dt {
				dt = dtF
			}
		}
	}

	if math.IsInf(dt, 1) {
		dt = 0
	}

	if nextOutputTime > currentTime {
		remaining := nextOutputTime - currentTime
		if remaining < dt {
			dt = remaining
		}
	}

	return dt
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
