// Package tree implements the Barnes-Hut spatial tree over the search
// universe (spec §4.2): construction, bounded-collector neighbor
// queries, and multipole gravity walks. No pack repository ships a
// spatial tree (the one "SpatialIndex" in other_examples is a
// Morton-code flat index with no multipole support), so this is built
// directly in the index-not-pointer style spec §9 calls for and that
// internal/physics.NBody already uses for its flat position buffers.
package tree

import (
	"github.com/san-kum/dynsim/internal/dynamo"
	"github.com/san-kum/dynsim/internal/sph/particle"
)

// Node is one Barnes-Hut node. Children are owned uniquely by their
// parent and referenced by index into the tree's node pool, never by
// pointer, so the pool stays a single source of truth and is
// trivially reusable across steps (spec §9 "cyclic ownership
// avoidance").
type Node struct {
	Min, Max []float64
	Center   []float64 // center of mass
	Mass     float64
	Level    int

	// children[c] is -1 when absent; len(children) == 2^dim for an
	// internal node, nil for a leaf.
	children []int

	leaf       bool
	firstChild int // head of the intrusive particle chain, -1 if empty
	count      int
}

func (n *Node) edgeLength() float64 {
	longest := 0.0
	for d := range n.Min {
		if e := n.Max[d] - n.Min[d]; e > longest {
			longest = e
		}
	}
	return longest
}

// Tree owns a reusable pool of nodes and the particle "next" chain
// that links the particles of each leaf. The chain is the Tree.next
// slice, one entry per universe particle; the particle records are not
// used for it. Old topology is overwritten rather than freed (spec §5
// resource policy): Build reuses the pool slice, growing it only when
// needed.
type Tree struct {
	dim          int
	leafCapacity int
	maxLevel     int

	nodes []Node
	root  int

	universe *particle.SearchParticles
	next     []int // intrusive chain, one entry per universe particle

	overflowed bool // set when max_level is hit with a non-empty leaf (TreeOverflow, non-fatal)
}

func New(dim, leafCapacity, maxLevel int) *Tree {
	if leafCapacity < 1 {
		leafCapacity = 1
	}
	if maxLevel < 1 {
		maxLevel = 32
	}
	return &Tree{dim: dim, leafCapacity: leafCapacity, maxLevel: maxLevel, root: -1}
}

func (t *Tree) Overflowed() bool { return t.overflowed }

// Build computes a root bounding box enclosing every universe
// position, then recursively subdivides into 2^dim children per spec
// §4.2. Called once per driver step over the full universe
// (invariant I2: topology is valid only for the snapshot taken at
// build time).
func (t *Tree) Build(universe *particle.SearchParticles) {
	t.universe = universe
	t.overflowed = false
	n := universe.Len()

	if cap(t.next) < n {
		t.next = make([]int, n, n*2)
	}
	t.next = t.next[:n]
	for i := range t.next {
		t.next[i] = -1
	}

	t.nodes = t.nodes[:0]
	if n == 0 {
		t.root = -1
		return
	}

	minB := append([]float64(nil), universe.Position(0)...)
	maxB := append([]float64(nil), universe.Position(0)...)
	for i := 1; i < n; i++ {
		pos := universe.Position(i)
		for d := 0; d < t.dim; d++ {
			if pos[d] < minB[d] {
				minB[d] = pos[d]
			}
			if pos[d] > maxB[d] {
				maxB[d] = pos[d]
			}
		}
	}
	// Pad a degenerate box so every particle falls strictly inside.
	for d := 0; d < t.dim; d++ {
		if maxB[d]-minB[d] < 1e-9 {
			maxB[d] += 0.5
			minB[d] -= 0.5
		}
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	t.root = t.build(minB, maxB, indices, 0)
}

func (t *Tree) newNode(min, max []float64, level int) int {
	t.nodes = append(t.nodes, Node{Min: min, Max: max, Level: level, firstChild: -1})
	return len(t.nodes) - 1
}

// build recursively partitions indices into 2^dim octants, stopping
// at leafCapacity or maxLevel (spec §4.2). Leaves store particles as
// an intrusive chain via t.next rather than a per-leaf slice.
func (t *Tree) build(min, max []float64, indices []int, level int) int {
	idx := t.newNode(min, max, level)
	node := &t.nodes[idx]

	if len(indices) <= t.leafCapacity || level >= t.maxLevel {
		if len(indices) > t.leafCapacity && level >= t.maxLevel {
			t.overflowed = true
		}
		t.makeLeaf(idx, indices)
		return idx
	}

	mid := make([]float64, t.dim)
	for d := 0; d < t.dim; d++ {
		mid[d] = 0.5 * (min[d] + max[d])
	}

	numOctants := 1 << uint(t.dim)
	buckets := make([][]int, numOctants)
	for _, i := range indices {
		pos := t.universe.Position(i)
		oct := 0
		for d := 0; d < t.dim; d++ {
			if pos[d] > mid[d] {
				oct |= 1 << uint(d)
			}
		}
		buckets[oct] = append(buckets[oct], i)
	}

	node.children = make([]int, numOctants)
	for oct := 0; oct < numOctants; oct++ {
		if len(buckets[oct]) == 0 {
			node.children[oct] = -1
			continue
		}
		childMin := make([]float64, t.dim)
		childMax := make([]float64, t.dim)
		for d := 0; d < t.dim; d++ {
			if oct&(1<<uint(d)) != 0 {
				childMin[d], childMax[d] = mid[d], max[d]
			} else {
				childMin[d], childMax[d] = min[d], mid[d]
			}
		}
		childIdx := t.build(childMin, childMax, buckets[oct], level+1)
		// t.nodes may have been reallocated by recursive append; re-fetch.
		node = &t.nodes[idx]
		node.children[oct] = childIdx
	}

	t.computeMultipole(idx)
	return idx
}

func (t *Tree) makeLeaf(idx int, indices []int) {
	node := &t.nodes[idx]
	node.leaf = true
	node.count = len(indices)
	node.firstChild = -1

	var head int = -1
	for i := len(indices) - 1; i >= 0; i-- {
		t.next[indices[i]] = head
		head = indices[i]
	}
	node.firstChild = head

	node.Center = make([]float64, t.dim)
	mass := 0.0
	for _, i := range indices {
		p := &t.universe.Raw()[i]
		for d := 0; d < t.dim; d++ {
			node.Center[d] += p.Mass * p.Position[d]
		}
		mass += p.Mass
	}
	if mass > 0 {
		for d := 0; d < t.dim; d++ {
			node.Center[d] /= mass
		}
	}
	node.Mass = mass
}

func (t *Tree) computeMultipole(idx int) {
	node := &t.nodes[idx]
	node.Center = make([]float64, t.dim)
	mass := 0.0
	for _, c := range node.children {
		if c < 0 {
			continue
		}
		child := &t.nodes[c]
		for d := 0; d < t.dim; d++ {
			node.Center[d] += child.Mass * child.Center[d]
		}
		mass += child.Mass
	}
	if mass > 0 {
		for d := 0; d < t.dim; d++ {
			node.Center[d] /= mass
		}
	}
	node.Mass = mass
}

// leafChain walks the intrusive particle chain of a leaf node.
func (t *Tree) leafChain(node *Node, visit func(i int)) {
	for i := node.firstChild; i >= 0; i = t.next[i] {
		visit(i)
	}
}

// ParallelQuery splits [0, n) into chunks and runs fn(start, end) on
// each chunk in parallel, mirroring the fork-join discipline of spec §5. Reused directly from
// dynamo.ParallelFor, which is already generic over (n, minChunk, fn).
func ParallelQuery(n, minChunk int, fn func(start, end int)) {
	dynamo.ParallelFor(n, minChunk, fn)
}
