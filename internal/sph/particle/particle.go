// Package particle owns the authoritative particle record and the
// typed-access discipline that keeps real-array indices from ever
// being mistaken for search-universe indices (spec §9).
//
// RealParticles and SearchParticles are distinct types with no
// implicit conversion between them. A NeighborAccessor can only be
// constructed from a SearchParticles value, and NeighborIndex wraps a
// plain int so a raw integer can never be threaded through a neighbor
// query by accident.
package particle

import "math"

// Kind discriminates real particles (integrated, conserved) from
// ghosts (derived, read-only, never integrated).
type Kind uint8

const (
	Real Kind = iota
	Ghost
)

// Particle is a value record carrying the full SPH state for one
// point. Dim-length slices (Position, Velocity, Accel, GradV, GradP,
// GradRho) must all share the same length; neither Particle nor the
// stores that own it validate these lengths.
type Particle struct {
	Position []float64
	Velocity []float64
	Accel    []float64

	Mass            float64
	Density         float64
	Pressure        float64
	Energy          float64 // specific internal energy u
	SmoothingLength float64
	SoundSpeed      float64

	ID uint64

	GradHCorrection float64
	NeighborCount   int

	AVAlpha float64 // artificial-viscosity alpha (per-particle, time-dependent AV)
	Balsara float64
	DivV    float64 // SPH velocity divergence, feeds EvolveAlpha and the AV Courant term

	Potential float64

	Kind Kind

	// GSPH MUSCL gradients, populated only by the second pre-interaction
	// pass when the active formulation is GSPH.
	GradV   []float64 // divergence proxy per-dimension (flattened Jacobian diag)
	GradP   []float64
	GradRho []float64

	// Ghost-only bookkeeping.
	SourceIndex int // index into the real array this ghost derives from
	Transform   Transform

	next int // set to -1 by NewParticle; the tree keeps its leaf chain in Tree.next and does not read this field
}

// Transform records how a ghost's state is derived from its source so
// UpdateGhosts can resynchronize without touching topology.
type Transform struct {
	Kind  TransformKind
	Shift []float64 // periodic: additive shift applied to position
	Wall  int        // mirror: boundary dimension index
	Sign  int        // mirror: +1 upper wall, -1 lower wall
	Slip  bool       // mirror: true = free-slip (normal component only), false = no-slip
}

type TransformKind uint8

const (
	TransformPeriodic TransformKind = iota
	TransformMirror
)

// NewParticle allocates a zeroed particle with Dim-sized vector
// fields and no MUSCL gradients (allocated lazily by the solver when
// GSPH is active).
func NewParticle(dim int, id uint64) Particle {
	return Particle{
		Position: make([]float64, dim),
		Velocity: make([]float64, dim),
		Accel:    make([]float64, dim),
		ID:       id,
		Kind:     Real,
		next:     -1,
	}
}

// IsFinite reports whether every integrated quantity is finite,
// matching spec P1 / NumericInstability detection.
func (p *Particle) IsFinite() bool {
	for _, v := range p.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range p.Velocity {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !math.IsNaN(p.Energy) && !math.IsInf(p.Energy, 0) &&
		!math.IsNaN(p.Density) && !math.IsInf(p.Density, 0)
}

func allocGradients(p *Particle, dim int) {
	if p.GradV == nil {
		p.GradV = make([]float64, dim)
		p.GradP = make([]float64, dim)
		p.GradRho = make([]float64, dim)
	}
}

// EnsureGradients lazily allocates the MUSCL gradient slots; called by
// the solver's second pass only when GSPH is active.
func EnsureGradients(p *Particle, dim int) {
	allocGradients(p, dim)
}
