package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

func gridReal(n, dim int, spacing float64) *particle.RealParticles {
	items := make([]particle.Particle, n)
	for i := range items {
		p := particle.NewParticle(dim, uint64(i))
		p.Position[0] = float64(i) * spacing
		p.Mass = 1.0
		items[i] = p
	}
	return particle.NewRealParticles(dim, items)
}

func TestBuild_EveryParticleReachableViaLeafChain(t *testing.T) {
	real := gridReal(40, 1, 0.1)
	universe := particle.NewSearchParticles(real)
	tr := New(1, 4, 32)
	tr.Build(universe)

	found := make(map[int]bool)
	var walk func(idx int)
	walk = func(idx int) {
		node := &tr.nodes[idx]
		if node.leaf {
			tr.leafChain(node, func(i int) { found[i] = true })
			return
		}
		for _, c := range node.children {
			if c >= 0 {
				walk(c)
			}
		}
	}
	walk(tr.root)
	assert.Len(t, found, 40)
}

func TestBuild_EmptyUniverseHasNoRoot(t *testing.T) {
	real := particle.NewRealParticles(1, nil)
	universe := particle.NewSearchParticles(real)
	tr := New(1, 4, 32)
	tr.Build(universe)
	assert.Equal(t, -1, tr.root)
	assert.False(t, tr.Overflowed())
}

func TestBuild_TotalMassConservedAtRoot(t *testing.T) {
	real := gridReal(20, 1, 0.05)
	universe := particle.NewSearchParticles(real)
	tr := New(1, 2, 32)
	tr.Build(universe)
	require.GreaterOrEqual(t, tr.root, 0)
	assert.InDelta(t, 20.0, tr.nodes[tr.root].Mass, 1e-9)
}

func TestQueryNeighbors_FindsCloseParticles(t *testing.T) {
	real := gridReal(10, 1, 1.0)
	universe := particle.NewSearchParticles(real)
	tr := New(1, 2, 32)
	tr.Build(universe)

	res := tr.QueryNeighbors([]float64{5.0}, 1.5, SearchConfig{MaxNeighbors: 10}, 5, nil)
	assert.False(t, res.IsTruncated)
	assert.NotEmpty(t, res.Indices)
	for _, idx := range res.Indices {
		assert.NotEqual(t, 5, idx.Int(), "excludeSelf must drop the query particle itself")
	}
}

func TestQueryNeighbors_TruncatesWhenCollectorFull(t *testing.T) {
	real := gridReal(200, 1, 0.01)
	universe := particle.NewSearchParticles(real)
	tr := New(1, 8, 32)
	tr.Build(universe)

	res := tr.QueryNeighbors([]float64{1.0}, 5.0, SearchConfig{MaxNeighbors: 1, CollectFactor: 1}, -1, nil)
	assert.True(t, res.IsTruncated)
	assert.Greater(t, res.TotalCandidates, len(res.Indices))
}

func TestOverflow_SetsFlagAtMaxLevelWithExcessParticles(t *testing.T) {
	items := make([]particle.Particle, 10)
	for i := range items {
		p := particle.NewParticle(1, uint64(i))
		p.Position[0] = 0 // identical positions: subdivision can never separate them
		p.Mass = 1
		items[i] = p
	}
	real := particle.NewRealParticles(1, items)
	universe := particle.NewSearchParticles(real)
	tr := New(1, 1, 2) // leaf capacity 1, shallow max level forces overflow
	tr.Build(universe)
	assert.True(t, tr.Overflowed())
}
