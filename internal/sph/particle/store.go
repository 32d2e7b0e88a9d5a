package particle

import "fmt"

// RealParticles owns the authoritative, integrated particle array.
// Index i here and index i in the universe presented by
// SearchParticles always refer to the same particle (invariant I4);
// there is however no implicit conversion between the two types, so a
// caller cannot accidentally index one array with a value obtained
// from the other.
type RealParticles struct {
	dim   int
	items []Particle
}

// NewRealParticles wraps an already-populated slice of real particles.
// Every element's Kind must be Real; NewRealParticles panics otherwise
// since a mis-tagged particle would silently corrupt conserved-sum
// invariants (I1).
func NewRealParticles(dim int, items []Particle) *RealParticles {
	for i := range items {
		if items[i].Kind != Real {
			panic(fmt.Sprintf("particle.NewRealParticles: item %d is not Kind Real", i))
		}
	}
	return &RealParticles{dim: dim, items: items}
}

func (r *RealParticles) Dim() int  { return r.dim }
func (r *RealParticles) Len() int  { return len(r.items) }
func (r *RealParticles) At(i int) *Particle { return &r.items[i] }

// Slice exposes the backing array read-write; callers outside this
// package should prefer At for single-particle access so that index
// provenance stays auditable. Its users are this package's whole-array
// copies (NewSearchParticles, Reset, SyncFromReal, WriteBackReal).
func (r *RealParticles) Slice() []Particle { return r.items }

// SearchParticles is the concatenation real‖ghost over which every
// neighbor query and tree build operates (spec §3 "search universe").
// Index [0, RealCount) is the identity-prefix of the real array;
// [RealCount, Len) are ghosts appended by the ghost manager. Neighbor
// reads go through NeighborAccessor/NeighborIndex, whose only
// constructor, NewNeighborAccessor, takes a SearchParticles, never a
// RealParticles; the elements themselves are also reachable directly
// through Raw and Position.
type SearchParticles struct {
	dim       int
	realCount int
	items     []Particle // real prefix + ghosts
}

// NewSearchParticles seeds the universe from the current real array;
// the ghost manager appends to it via AppendGhost/Reset each step.
func NewSearchParticles(real *RealParticles) *SearchParticles {
	items := make([]Particle, real.Len())
	copy(items, real.Slice())
	return &SearchParticles{dim: real.Dim(), realCount: real.Len(), items: items}
}

// Reset truncates the universe back to the real prefix and refreshes
// it from the current real array, discarding previous ghost topology.
// Called at the start of every regenerate_ghosts per spec §4.4.
func (s *SearchParticles) Reset(real *RealParticles) {
	s.realCount = real.Len()
	if cap(s.items) < s.realCount {
		s.items = make([]Particle, s.realCount, s.realCount*2)
	}
	s.items = s.items[:s.realCount]
	copy(s.items, real.Slice())
}

// AppendGhost extends the universe with one derived particle. Returns
// its universe index.
func (s *SearchParticles) AppendGhost(g Particle) int {
	g.Kind = Ghost
	s.items = append(s.items, g)
	return len(s.items) - 1
}

func (s *SearchParticles) Dim() int       { return s.dim }
func (s *SearchParticles) Len() int       { return len(s.items) }
func (s *SearchParticles) RealCount() int { return s.realCount }
func (s *SearchParticles) GhostCount() int { return len(s.items) - s.realCount }

// SyncFromReal overwrites the real prefix's mutable fields (position,
// velocity, density, pressure, h, ...) from the current real array
// without touching the ghost suffix or reallocating — the "sync
// cache" step of spec invariant I3.
func (s *SearchParticles) SyncFromReal(real *RealParticles) {
	copy(s.items[:s.realCount], real.Slice())
}

// WriteBackReal copies the real prefix of the universe back into the
// real array. The driver does not call it: the solver writes
// density/h/grad-h straight into the real array, and SyncFromReal then
// refreshes the cache (invariant I3).
func (s *SearchParticles) WriteBackReal(real *RealParticles) {
	copy(real.Slice(), s.items[:s.realCount])
}

// NeighborIndex is a wrapper around a plain int index into a
// SearchParticles universe. Outside this package it is built with
// MakeNeighborIndex; it cannot be used to index a RealParticles
// directly — the only read path is through NeighborAccessor.At.
type NeighborIndex struct {
	idx int
}

func (n NeighborIndex) Int() int { return n.idx }

// NeighborAccessor is the sole read path for neighbor state. It can
// only be constructed from a SearchParticles value (never from a
// RealParticles, and never from a bare slice), which is what makes it
// a compile-time error in Go to pass a real-array-only collection
// where the search universe is required — there is no function in
// this package that accepts a []Particle or a RealParticles and
// returns a NeighborAccessor.
type NeighborAccessor struct {
	universe *SearchParticles
}

// NewNeighborAccessor is the only constructor; it requires a
// SearchParticles, which exists from NewSearchParticles onward whether
// or not ghosts have been generated into it yet. Invariant I1 rests on
// the driver's phase order (ghosts are regenerated before each tree
// build and query), not on a check here.
func NewNeighborAccessor(universe *SearchParticles) *NeighborAccessor {
	return &NeighborAccessor{universe: universe}
}

// At dereferences a NeighborIndex into the universe. Panics if out of
// range — any index handed back by the tree's neighbor query is
// constructed in-range by contract (P4), so an out-of-range value here
// indicates a tree bug, not a recoverable condition.
func (a *NeighborAccessor) At(n NeighborIndex) *Particle {
	return &a.universe.items[n.idx]
}

// IsReal reports whether a neighbor index refers to a real particle
// (index < RealCount) or a ghost.
func (a *NeighborAccessor) IsReal(n NeighborIndex) bool {
	return n.idx < a.universe.realCount
}

// Len is the total universe size, for bounds checks (P4).
func (a *NeighborAccessor) Len() int { return a.universe.Len() }

// MakeNeighborIndex constructs a NeighborIndex from a position known
// to be a valid universe offset. It is unexported-equivalent in
// practice: only the tree package (which walks the universe it was
// built from) and this package's own iteration helpers call it.
// Exported so the tree package, in a different package, can return
// indices — but every caller of MakeNeighborIndex already holds the
// SearchParticles the index is relative to, since the tree is built
// from one.
func MakeNeighborIndex(i int) NeighborIndex { return NeighborIndex{idx: i} }

// Position returns the position slice of universe particle i.
func (s *SearchParticles) Position(i int) []float64 { return s.items[i].Position }

// Raw exposes the backing slice to the tree/solver/force packages,
// which live in the same module and are trusted with the universe
// once it has been constructed; external callers never see this
// method because they only ever hold a *SearchParticles through the
// driver, which does not re-export it.
func (s *SearchParticles) Raw() []Particle { return s.items }
