package tree

import "github.com/san-kum/dynsim/internal/sph/particle"

// defaultCollectorFactor is K in capacity = neighbor_number * K
// (spec §4.2, K ~= 20 by default).
const defaultCollectorFactor = 20

// Collector is a bounded, move-only accumulator for neighbor indices.
// try_add only returns true while capacity remains; once full it
// still counts candidates so truncation is observable (spec §4.2).
type Collector struct {
	capacity int
	indices  []particle.NeighborIndex
	total    int
}

// NewCollector sizes the collector at neighborNumber * factor; factor
// <= 0 uses the spec default of 20.
func NewCollector(neighborNumber, factor int) *Collector {
	if factor <= 0 {
		factor = defaultCollectorFactor
	}
	cap := neighborNumber * factor
	if cap < 1 {
		cap = 1
	}
	return &Collector{capacity: cap, indices: make([]particle.NeighborIndex, 0, cap)}
}

// TryAdd admits idx if capacity remains and idx >= 0. Every idx >= 0
// increments the candidate counter, including one refused for lack of
// capacity, so a caller can detect truncation; a negative idx is
// neither counted nor added.
func (c *Collector) TryAdd(idx int) bool {
	if idx < 0 {
		return false
	}
	c.total++
	if len(c.indices) >= c.capacity {
		return false
	}
	c.indices = append(c.indices, particle.MakeNeighborIndex(idx))
	return true
}

// Result is the immutable, move-only outcome of a neighbor query
// (spec §4.2).
type Result struct {
	Indices         []particle.NeighborIndex
	IsTruncated     bool
	TotalCandidates int
}

// Finish converts the collector into its final Result. The Collector
// must not be reused after this call.
func (c *Collector) Finish() Result {
	return Result{
		Indices:         c.indices,
		IsTruncated:     c.total > len(c.indices),
		TotalCandidates: c.total,
	}
}
