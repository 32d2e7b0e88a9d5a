package solver

import (
	"math"

	"github.com/san-kum/dynsim/internal/dynamo"
	"github.com/san-kum/dynsim/internal/sph/boundary"
	"github.com/san-kum/dynsim/internal/sph/kernel"
	"github.com/san-kum/dynsim/internal/sph/particle"
	"github.com/san-kum/dynsim/internal/sph/tree"
)

// Config bundles the inputs the pre-interaction pass needs that do
// not change per particle.
type Config struct {
	Dim            int
	Kernel         kernel.Kernel
	Formulation    Formulation
	Gamma          float64
	NeighborNumber int
	Delta          float64 // mean inter-particle spacing, for n_target
	MaxIter        int
	Tolerance      float64
	Boundary       *boundary.Config
	SearchFactor   int
}

// ConvergenceSummary is the count of particles that failed to converge
// in one step and the worst relative residual observed. The driver
// merges the per-step summaries into a per-run total in its Report and
// logs each step that has failures.
type ConvergenceSummary struct {
	FailedCount   int
	WorstResidual float64
}

func (c ConvergenceSummary) Merge(o ConvergenceSummary) ConvergenceSummary {
	c.FailedCount += o.FailedCount
	if o.WorstResidual > c.WorstResidual {
		c.WorstResidual = o.WorstResidual
	}
	return c
}

// Solver runs the per-particle Newton iteration and the second
// (grad-h/Balsara/sound-speed/MUSCL) pass.
type Solver struct {
	cfg Config
}

func New(cfg Config) *Solver {
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 12
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-4
	}
	return &Solver{cfg: cfg}
}

// Run executes the pre-interaction pass in parallel over real
// particles (spec §4.5 "outer loop over real particles is parallel").
// It reads neighbor state only through a NeighborAccessor built from
// universe, and writes results directly into the real array; the
// caller is responsible for syncing the cache afterward (invariant
// I3).
func (s *Solver) Run(real *particle.RealParticles, universe *particle.SearchParticles, tr *tree.Tree) ConvergenceSummary {
	n := real.Len()
	summaries := make([]ConvergenceSummary, n)

	dynamo.ParallelFor(n, 64, func(start, end int) {
		acc := particle.NewNeighborAccessor(universe)
		for i := start; i < end; i++ {
			summaries[i] = s.solveOne(i, real, universe, tr, acc)
		}
	})

	total := ConvergenceSummary{}
	for _, su := range summaries {
		total = total.Merge(su)
	}
	return total
}

// nTarget computes C_D * (h/delta)^D for the current h.
func (s *Solver) nTarget(h float64) float64 {
	if s.cfg.Delta <= 0 {
		return float64(s.cfg.NeighborNumber)
	}
	return kernel.NeighborTarget(s.cfg.Dim, h/s.cfg.Delta)
}

func (s *Solver) solveOne(i int, real *particle.RealParticles, universe *particle.SearchParticles, tr *tree.Tree, acc *particle.NeighborAccessor) ConvergenceSummary {
	p := real.At(i)
	h := p.SmoothingLength
	if h <= 0 {
		h = s.cfg.Delta
		if h <= 0 {
			h = 1.0
		}
	}

	m := p.Mass
	var lastResidual float64
	converged := false

	for iter := 0; iter < s.cfg.MaxIter; iter++ {
		res := tr.QueryNeighbors(p.Position, h, tree.SearchConfig{
			MaxNeighbors:  s.cfg.NeighborNumber,
			UseMaxKernel:  false,
			CollectFactor: s.cfg.SearchFactor,
		}, i, s.cfg.Boundary)

		rho, drhodh, realCount := s.densitySum(p, h, res.Indices, acc)

		target := s.nTarget(h)
		nTargetMass := m * target
		volumeConst := areaConstant(s.cfg.Dim)
		expected := nTargetMass / volumeConst

		lhs := rho * math.Pow(h, float64(s.cfg.Dim))
		residual := math.Abs(lhs-expected) / math.Abs(expected)
		lastResidual = residual

		if residual < s.cfg.Tolerance {
			p.Density = rho
			p.NeighborCount = realCount
			p.SmoothingLength = h
			converged = true
			break
		}

		// Newton step on f(h) = rho(h)*h^D - expected, df/dh = drhodh*h^D +
		// D*rho*h^(D-1).
		dLhsdH := drhodh*math.Pow(h, float64(s.cfg.Dim)) + float64(s.cfg.Dim)*rho*math.Pow(h, float64(s.cfg.Dim-1))
		if dLhsdH == 0 {
			break
		}
		deltaH := -(lhs - expected) / dLhsdH
		deltaH = clamp(deltaH, -0.5*h, 0.5*h)
		h += deltaH
		if h <= 0 {
			h = s.cfg.Delta
		}

		p.Density = rho
		p.NeighborCount = realCount
		p.SmoothingLength = h
	}

	s.secondPass(i, real, universe, tr, acc)

	if !converged {
		return ConvergenceSummary{FailedCount: 1, WorstResidual: lastResidual}
	}
	return ConvergenceSummary{}
}

// densitySum computes rho_i = sum_j m_j W(r_ij, h) and its h-derivative
// over the collected neighbor indices. Ghosts participate in the sum
// (needed for correct density near boundaries) but are excluded from
// the real-only neighbor counter used by the convergence criterion —
// this split is the load-bearing invariant spec §4.6 calls out.
func (s *Solver) densitySum(p *particle.Particle, h float64, indices []particle.NeighborIndex, acc *particle.NeighborAccessor) (rho, drhodh float64, realCount int) {
	rho = p.Mass * s.cfg.Kernel.W(0, h)
	for _, ni := range indices {
		nb := acc.At(ni)
		r := separationNorm(p.Position, nb.Position, s.cfg.Boundary)
		rho += nb.Mass * s.cfg.Kernel.W(r, h)
		drhodh += nb.Mass * kernelDWdh(s.cfg.Kernel, r, h)
		if acc.IsReal(ni) {
			realCount++
		}
	}
	return
}

// kernelDWdh approximates dW/dh via a centered finite difference; the
// kernels here are smooth and this keeps the Newton step well-behaved
// without a second analytic kernel form per function.
func kernelDWdh(k kernel.Kernel, r, h float64) float64 {
	const eps = 1e-5
	return (k.W(r, h+eps) - k.W(r, h-eps)) / (2 * eps)
}

func areaConstant(dim int) float64 {
	switch dim {
	case 1:
		return 2.0
	case 2:
		return math.Pi
	default:
		return 4.0 / 3.0 * math.Pi
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func separationNorm(a, b []float64, bc *boundary.Config) float64 {
	sep := make([]float64, len(a))
	if bc != nil {
		bc.PeriodicOffset(a, b, sep)
	} else {
		for d := range a {
			sep[d] = a[d] - b[d]
		}
	}
	sum := 0.0
	for _, v := range sep {
		sum += v * v
	}
	return math.Sqrt(sum)
}
