package tree

import "math"

// GravityContribution is the accumulated acceleration and potential
// contribution of one tree walk for a single query particle.
type GravityContribution struct {
	Accel     []float64
	Potential float64
}

// WalkGravity traverses the tree once for a query particle at pos
// with Plummer softening (eps = the softening argument, which callers
// set to the query particle's own smoothing length, spec §4.7). Leaf
// pairs and multipole terms use the same Plummer form; there is no
// kernel-shaped near-field softening. A node is accepted as a multipole
// source when L/D < theta (L = node size, D = center-to-query
// distance); otherwise it is descended. excludeSelf skips a universe
// index (the query particle, when the tree was built over particles
// that include it).
func (t *Tree) WalkGravity(pos []float64, g, theta, softening float64, excludeSelf int) GravityContribution {
	out := GravityContribution{Accel: make([]float64, len(pos))}
	if t.root < 0 {
		return out
	}
	eps2 := softening * softening
	sep := make([]float64, len(pos))

	var visit func(idx int)
	visit = func(idx int) {
		node := &t.nodes[idx]
		if node.Mass == 0 {
			return
		}

		for d := range pos {
			sep[d] = node.Center[d] - pos[d]
		}
		dist := norm(sep)

		if node.leaf {
			t.leafChain(node, func(i int) {
				if i == excludeSelf {
					return
				}
				p := &t.universe.Raw()[i]
				accumulatePairwise(pos, p.Position, p.Mass, g, eps2, out.Accel, &out.Potential)
			})
			return
		}

		L := node.edgeLength()
		if dist > 0 && L/dist < theta {
			accumulatePairwise(pos, node.Center, node.Mass, g, eps2, out.Accel, &out.Potential)
			return
		}

		for _, c := range node.children {
			if c >= 0 {
				visit(c)
			}
		}
	}
	visit(t.root)
	return out
}

func accumulatePairwise(pos, srcPos []float64, mass, g, eps2 float64, accel []float64, potential *float64) {
	sep := make([]float64, len(pos))
	r2 := 0.0
	for d := range pos {
		sep[d] = srcPos[d] - pos[d]
		r2 += sep[d] * sep[d]
	}
	soft2 := r2 + eps2
	invDist := 1.0 / math.Sqrt(soft2)
	invDist3 := invDist * invDist * invDist
	f := g * mass * invDist3
	for d := range accel {
		accel[d] += f * sep[d]
	}
	*potential -= g * mass * invDist
}
