package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

func periodicConfig(length float64) Config {
	return Config{
		Dims: []DimConfig{
			{Type: Periodic, Min: 0, Max: length},
			{Type: Periodic, Min: 0, Max: length},
		},
		UniformSpacing: 0.1,
	}
}

func mirrorConfig(length float64) Config {
	return Config{
		Dims: []DimConfig{
			{Type: Mirror, Min: 0, Max: length, EnableLower: true, EnableUpper: true, MirrorSubtype: NoSlip},
		},
		UniformSpacing: 0.1,
	}
}

func TestPeriodicOffset_MinimumImage(t *testing.T) {
	cfg := periodicConfig(1.0)
	xi := []float64{0.05, 0.5}
	xj := []float64{0.95, 0.5}
	out := make([]float64, 2)
	cfg.PeriodicOffset(xi, xj, out)
	assert.InDelta(t, 0.1, out[0], 1e-9, "wrapped separation should be the short way around")
	assert.InDelta(t, 0, out[1], 1e-9)
}

func TestWallPosition_HalfSpacingOutsideDomain(t *testing.T) {
	cfg := mirrorConfig(1.0)
	cfg.Dims[0].SpacingLower = 0.2
	assert.InDelta(t, -0.1, cfg.WallPosition(0, false), 1e-9)
	assert.InDelta(t, 1.05, cfg.WallPosition(0, true), 1e-9)
}

func newRealAt(dim int, positions ...[]float64) *particle.RealParticles {
	items := make([]particle.Particle, len(positions))
	for i, pos := range positions {
		p := particle.NewParticle(dim, uint64(i))
		copy(p.Position, pos)
		p.SmoothingLength = 0.1
		items[i] = p
	}
	return particle.NewRealParticles(dim, items)
}

func TestRegenerateGhosts_PeriodicNearBothWalls(t *testing.T) {
	cfg := periodicConfig(1.0)
	mgr := NewManager(cfg, 2)
	real := newRealAt(2, []float64{0.01, 0.01})
	universe := particle.NewSearchParticles(real)

	mgr.RegenerateGhosts(real, universe, func(i int) float64 { return 0.2 })

	assert.Equal(t, 3, universe.GhostCount(), "near a corner: one ghost per axis plus the diagonal")
}

func TestRegenerateGhosts_MirrorReflectsAcrossWall(t *testing.T) {
	cfg := mirrorConfig(1.0)
	mgr := NewManager(cfg, 1)
	real := newRealAt(1, []float64{0.02})
	real.At(0).Velocity[0] = 1.0
	universe := particle.NewSearchParticles(real)

	mgr.RegenerateGhosts(real, universe, func(i int) float64 { return 0.3 })
	require.Equal(t, 1, universe.GhostCount())

	g := universe.Raw()[1]
	assert.Less(t, g.Position[0], 0.0, "mirror ghost must sit on the far side of the wall")
	assert.Equal(t, -1.0, g.Velocity[0], "no-slip wall flips velocity")
}

func TestUpdateGhosts_MatchesRegenerate_WhenPositionsUnchanged(t *testing.T) {
	cfg := mirrorConfig(1.0)
	mgr := NewManager(cfg, 1)
	real := newRealAt(1, []float64{0.02})
	universe := particle.NewSearchParticles(real)

	mgr.RegenerateGhosts(real, universe, func(i int) float64 { return 0.3 })
	regenerated := universe.Raw()[1].Position[0]

	mgr.UpdateGhosts(real, universe)
	updated := universe.Raw()[1].Position[0]

	assert.Equal(t, regenerated, updated)
}

func TestWrapPeriodic_BringsParticleBackInRange(t *testing.T) {
	cfg := periodicConfig(1.0)
	mgr := NewManager(cfg, 2)
	real := newRealAt(2, []float64{1.2, -0.3})

	mgr.WrapPeriodic(real)

	assert.InDelta(t, 0.2, real.At(0).Position[0], 1e-9)
	assert.InDelta(t, 0.7, real.At(0).Position[1], 1e-9)
}

func TestInBounds_DetectsViolationAfterWrapFailure(t *testing.T) {
	cfg := periodicConfig(1.0)
	mgr := NewManager(cfg, 2)
	assert.True(t, mgr.InBounds([]float64{0.5, 0.5}))
	assert.False(t, mgr.InBounds([]float64{1.5, 0.5}))
}
