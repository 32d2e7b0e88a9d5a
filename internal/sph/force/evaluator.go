package force

import (
	"math"

	"github.com/san-kum/dynsim/internal/dynamo"
	"github.com/san-kum/dynsim/internal/sph/boundary"
	"github.com/san-kum/dynsim/internal/sph/kernel"
	"github.com/san-kum/dynsim/internal/sph/particle"
	"github.com/san-kum/dynsim/internal/sph/solver"
	"github.com/san-kum/dynsim/internal/sph/tree"
)

// RiemannConfig bundles the GSPH sub-bundle (spec §6). Only the MUSCL
// reconstruction toggle is configurable: the Riemann solver is always
// HLL and the slope limiter is always van Leer.
type RiemannConfig struct {
	UseMUSCL bool
}

// Config bundles the per-run, per-particle-invariant inputs to the
// fluid-force pass.
type Config struct {
	Dim            int
	Kernel         kernel.Kernel
	Formulation    solver.Formulation
	Gamma          float64
	AV             AVConfig
	Riemann        RiemannConfig
	Boundary       *boundary.Config
	NeighborNumber int
	SearchFactor   int
}

// Evaluator computes acceleration and energy rate for every real
// particle from its neighbors (spec §4.6). All three formulations
// share periodic minimum-image separation, symmetrized kernel
// gradients, artificial viscosity, and optional artificial
// conductivity.
type Evaluator struct {
	cfg Config
}

func New(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Result holds the per-real-particle energy rate (u̇): Particle only
// carries the integrated quantity u, not its rate, so the driver's
// predictor/corrector reads EnergyRate alongside Particle.Accel to
// advance state.
type Result struct {
	EnergyRate []float64
}

// Evaluate runs the fluid-force pass in parallel over real particles.
// Neighbor queries use use_max_kernel=true (symmetric pass, spec
// §4.2) since the pairwise sum needs both h_i and h_j's support.
func (e *Evaluator) Evaluate(real *particle.RealParticles, universe *particle.SearchParticles, tr *tree.Tree) Result {
	n := real.Len()
	result := Result{EnergyRate: make([]float64, n)}

	dynamo.ParallelFor(n, 64, func(start, end int) {
		acc := particle.NewNeighborAccessor(universe)
		for i := start; i < end; i++ {
			e.evaluateOne(i, real, tr, acc, result.EnergyRate)
		}
	})

	return result
}

func (e *Evaluator) evaluateOne(i int, real *particle.RealParticles, tr *tree.Tree, acc *particle.NeighborAccessor, energyRate []float64) {
	p := real.At(i)
	dim := e.cfg.Dim

	res := tr.QueryNeighbors(p.Position, p.SmoothingLength, tree.SearchConfig{
		MaxNeighbors:  e.cfg.NeighborNumber,
		UseMaxKernel:  true,
		CollectFactor: e.cfg.SearchFactor,
	}, i, e.cfg.Boundary)

	accel := make([]float64, dim)
	uDot := 0.0
	sep := make([]float64, dim)
	unit := make([]float64, dim)
	velDiff := make([]float64, dim)

	for _, ni := range res.Indices {
		nb := acc.At(ni)

		if e.cfg.Boundary != nil {
			e.cfg.Boundary.PeriodicOffset(p.Position, nb.Position, sep)
		} else {
			for d := 0; d < dim; d++ {
				sep[d] = p.Position[d] - nb.Position[d]
			}
		}
		r := norm(sep)
		if r <= 1e-12 {
			continue
		}
		for d := 0; d < dim; d++ {
			unit[d] = sep[d] / r
			velDiff[d] = p.Velocity[d] - nb.Velocity[d]
		}

		gradWi := e.cfg.Kernel.GradW(r, p.SmoothingLength)
		gradWj := e.cfg.Kernel.GradW(r, nb.SmoothingLength)

		rhoBar := 0.5 * (p.Density + nb.Density)
		pi := Viscosity(e.cfg.AV, p.AVAlpha, nb.AVAlpha, sep, velDiff, p.SoundSpeed, nb.SoundSpeed, rhoBar, p.Balsara, nb.Balsara)
		cond := Conductivity(e.cfg.AV, p.Energy, nb.Energy, p.SoundSpeed, nb.SoundSpeed, rhoBar)

		var accelMag float64
		switch e.cfg.Formulation {
		case solver.DISPH:
			accelMag = e.disphPair(p, nb, gradWi, gradWj, pi)
		case solver.GSPH:
			accelMag = e.gsphPair(p, nb, sep, r, velDiff, gradWi, gradWj)
		default:
			accelMag = e.ssphPair(p, nb, gradWi, gradWj, pi)
		}

		for d := 0; d < dim; d++ {
			accel[d] -= accelMag * unit[d]
		}

		vDotUnit := 0.0
		for d := 0; d < dim; d++ {
			vDotUnit += velDiff[d] * unit[d]
		}
		uDot += 0.5 * accelMag * vDotUnit
		uDot += 0.5 * nb.Mass / math.Max(nb.Density, 1e-300) * p.Density * cond
	}

	copy(p.Accel, accel)
	energyRate[i] = uDot
}

// ssphPair implements standard density-energy SPH (spec §4.6):
//
//	a_i -= m_j [(p_i/rho_i^2 + Pi/2) gradWi + (p_j/rho_j^2 + Pi/2) gradWj]
//	udot_i += 0.5 * m_j (v_i-v_j).(same bracket)
//
// the grad-h correction multiplies each particle's own pressure term.
func (e *Evaluator) ssphPair(p, nb *particle.Particle, gradWi, gradWj, pi float64) float64 {
	termI := (p.Pressure/(p.Density*p.Density))*p.GradHCorrection + pi/2
	termJ := (nb.Pressure/(nb.Density*nb.Density))*nb.GradHCorrection + pi/2
	return nb.Mass * (termI*gradWi + termJ*gradWj)
}

// disphPair implements pressure-energy SPH, formulated in
// Y = m/u (volume via specific energy rather than density) to remove
// the E0/E1 surface-tension error at contact discontinuities (spec
// §4.6).
func (e *Evaluator) disphPair(p, nb *particle.Particle, gradWi, gradWj, pi float64) float64 {
	yi := p.Mass / math.Max(p.Energy, 1e-300)
	yj := nb.Mass / math.Max(nb.Energy, 1e-300)
	termI := p.Pressure/(yi*yi) + pi/2
	termJ := nb.Pressure/(yj*yj) + pi/2
	return nb.Mass * (termI*gradWi + termJ*gradWj)
}
