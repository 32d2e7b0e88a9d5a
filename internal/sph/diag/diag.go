// Package diag computes energy, momentum, and angular-momentum
// diagnostics over the real particle array, plus summary statistics
// used in the energy output record (spec §12 supplement).
//
// Grounded on internal/physics/nbody.go's Energy/Momentum/
// AngularMomentum methods, generalized from N-body-only accumulation
// to the KE+thermal+potential split the SPH output sink needs.
package diag

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

// Energy is the kinetic/thermal/potential/total energy record fed to
// OutputSink.WriteEnergy.
type Energy struct {
	Kinetic   float64
	Thermal   float64
	Potential float64
	Total     float64
}

// ComputeEnergy sums kinetic (0.5 m v^2), thermal (m u), and adds the
// externally-supplied potential (from the gravity evaluator, zero
// when gravity is disabled).
func ComputeEnergy(real *particle.RealParticles, potential float64) Energy {
	n := real.Len()
	ke, therm := 0.0, 0.0
	for i := 0; i < n; i++ {
		p := real.At(i)
		v2 := 0.0
		for _, v := range p.Velocity {
			v2 += v * v
		}
		ke += 0.5 * p.Mass * v2
		therm += p.Mass * p.Energy
	}
	return Energy{Kinetic: ke, Thermal: therm, Potential: potential, Total: ke + therm + potential}
}

// Momentum returns the total linear momentum vector (spec §12,
// mirroring physics.NBody.Momentum).
func Momentum(real *particle.RealParticles, dim int) []float64 {
	p := make([]float64, dim)
	n := real.Len()
	for i := 0; i < n; i++ {
		pi := real.At(i)
		for d := 0; d < dim; d++ {
			p[d] += pi.Mass * pi.Velocity[d]
		}
	}
	return p
}

// AngularMomentum2D returns the scalar z-angular-momentum for 2-D
// systems, mirroring physics.NBody.AngularMomentum.
func AngularMomentum2D(real *particle.RealParticles) float64 {
	n := real.Len()
	l := 0.0
	for i := 0; i < n; i++ {
		p := real.At(i)
		if len(p.Position) < 2 {
			continue
		}
		l += p.Mass * (p.Position[0]*p.Velocity[1] - p.Position[1]*p.Velocity[0])
	}
	return l
}

// DensityStats reports min/mean/max density across real particles
// using gonum/stat, for quick regression sanity-checking (e.g. Sod
// shock-tube density bounds). It is computed on demand by
// ComputeDensityStats and is not part of the energy record or of any
// sink's output.
type DensityStats struct {
	Min, Mean, Max float64
}

func ComputeDensityStats(real *particle.RealParticles) DensityStats {
	n := real.Len()
	if n == 0 {
		return DensityStats{}
	}
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = real.At(i).Density
	}
	minV, maxV := vals[0], vals[0]
	for _, v := range vals {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return DensityStats{Min: minV, Mean: stat.Mean(vals, nil), Max: maxV}
}
