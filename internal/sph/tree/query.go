package tree

import (
	"math"

	"github.com/san-kum/dynsim/internal/sph/boundary"
)

// SearchConfig parameterizes a neighbor query (spec §4.2).
type SearchConfig struct {
	MaxNeighbors  int
	UseMaxKernel  bool
	CollectFactor int // 0 uses the package default (20)
}

// boxDistance returns the shortest distance between point pos and a
// node's bounding box, zero if pos is inside. When periodicCfg is
// non-nil, each periodic dimension's offset is folded to its
// minimum-image value first (spec §4.2 "periodic dimensions use
// minimum-image distance from the periodic-offset helper").
func boxDistance(pos []float64, node *Node, periodicCfg *boundary.Config) float64 {
	sum := 0.0
	for d := range pos {
		lo, hi := node.Min[d], node.Max[d]
		var delta float64
		switch {
		case pos[d] < lo:
			delta = lo - pos[d]
		case pos[d] > hi:
			delta = pos[d] - hi
		default:
			delta = 0
		}
		if periodicCfg != nil && d < len(periodicCfg.Dims) && periodicCfg.Dims[d].Type == boundary.Periodic {
			L := periodicCfg.Dims[d].Max - periodicCfg.Dims[d].Min
			if delta > L/2 {
				delta = L - delta
			}
		}
		sum += delta * delta
	}
	return math.Sqrt(sum)
}

// QueryNeighbors implements the bounded, cutoff-pruned Barnes-Hut
// neighbor search (spec §4.2). queryPos/h describe the query particle;
// excludeSelf, when >= 0, is a universe index skipped from the result
// (the query particle itself). periodicCfg may be nil for a fully
// non-periodic domain.
func (t *Tree) QueryNeighbors(queryPos []float64, h float64, cfg SearchConfig, excludeSelf int, periodicCfg *boundary.Config) Result {
	collector := NewCollector(cfg.MaxNeighbors, cfg.CollectFactor)
	if t.root < 0 {
		return collector.Finish()
	}

	cutoff := h
	sep := make([]float64, len(queryPos))

	var visit func(idx int)
	visit = func(idx int) {
		node := &t.nodes[idx]

		effectiveCutoff := cutoff
		if cfg.UseMaxKernel {
			nodeKernelSize := node.edgeLength()
			if nodeKernelSize > effectiveCutoff {
				effectiveCutoff = nodeKernelSize
			}
		}

		if boxDistance(queryPos, node, periodicCfg) >= effectiveCutoff {
			return
		}

		if node.leaf {
			t.leafChain(node, func(i int) {
				if i == excludeSelf {
					return
				}
				pos := t.universe.Position(i)
				if periodicCfg != nil {
					periodicCfg.PeriodicOffset(queryPos, pos, sep)
				} else {
					for d := range sep {
						sep[d] = queryPos[d] - pos[d]
					}
				}
				r := norm(sep)
				if r <= effectiveCutoff {
					collector.TryAdd(i)
				}
			})
			return
		}

		for _, c := range node.children {
			if c >= 0 {
				visit(c)
			}
		}
	}
	visit(t.root)

	return collector.Finish()
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
