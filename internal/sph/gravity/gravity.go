// Package gravity implements the optional tree-walk multipole gravity
// evaluator (spec §4.7).
//
// Open Question (spec §9, decided explicitly rather than guessed):
// ghosts are excluded from gravity. The gravity walk is built over a
// tree spanning only real particles — a different tree than the
// neighbor-search tree built over the universe — so periodic ghost
// images are never double-counted. Periodic self-interaction of
// gravity (Ewald-type corrections) is out of scope; gravity and
// periodic boundaries may be combined but periodic gravity is not
// corrected for.
//
// Grounded on internal/physics/nbody.go's computeForcesCPU pairwise-
// softened kernel, generalized from O(n^2) to a tree walk, with the
// per-particle walk parallelized via dynamo.ParallelFor.
package gravity

import (
	"github.com/san-kum/dynsim/internal/dynamo"
	"github.com/san-kum/dynsim/internal/sph/particle"
	"github.com/san-kum/dynsim/internal/sph/tree"
)

// Config holds the gravity sub-bundle (spec §6): G and opening angle
// theta, plus the shape parameters (LeafCapacity, MaxLevel) of the
// gravity evaluator's own real-only tree, which is separate from the
// neighbor-search tree.
type Config struct {
	G            float64
	Theta        float64
	LeafCapacity int
	MaxLevel     int
}

// Evaluator walks a real-particles-only Barnes-Hut tree once per real
// particle, accumulating acceleration (added to Particle.Accel) and
// total potential energy (spec §4.7).
type Evaluator struct {
	cfg Config
	dim int
	tr  *tree.Tree
}

func New(cfg Config, dim int) *Evaluator {
	return &Evaluator{cfg: cfg, dim: dim, tr: tree.New(dim, cfg.LeafCapacity, cfg.MaxLevel)}
}

// Evaluate builds the real-only tree and walks it for every real
// particle in parallel, adding the gravitational acceleration into
// Particle.Accel and returning the total potential energy (halved to
// avoid double counting, matching physics.NBody.Energy's pairwise
// convention).
func (e *Evaluator) Evaluate(real *particle.RealParticles) float64 {
	universe := particle.NewSearchParticles(real)
	e.tr.Build(universe)

	n := real.Len()
	potentials := make([]float64, n)

	dynamo.ParallelFor(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			p := real.At(i)
			contrib := e.tr.WalkGravity(p.Position, e.cfg.G, e.cfg.Theta, p.SmoothingLength, i)
			for d := 0; d < e.dim; d++ {
				p.Accel[d] += contrib.Accel[d]
			}
			p.Potential = contrib.Potential
			potentials[i] = contrib.Potential
		}
	})

	total := 0.0
	for _, pot := range potentials {
		total += pot
	}
	return 0.5 * total
}
