package force

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynsim/internal/sph/kernel"
	"github.com/san-kum/dynsim/internal/sph/particle"
	"github.com/san-kum/dynsim/internal/sph/solver"
	"github.com/san-kum/dynsim/internal/sph/tree"
)

func twoFluidParticles(sep float64) *particle.RealParticles {
	items := make([]particle.Particle, 2)
	for i := range items {
		p := particle.NewParticle(1, uint64(i))
		p.Mass = 1.0
		p.Density = 1.0
		p.Pressure = 1.0
		p.Energy = 2.5
		p.SmoothingLength = 1.0
		p.SoundSpeed = 1.0
		p.GradHCorrection = 1.0
		items[i] = p
	}
	items[1].Position[0] = sep
	return particle.NewRealParticles(1, items)
}

func buildEvalTree(real *particle.RealParticles) (*particle.SearchParticles, *tree.Tree) {
	universe := particle.NewSearchParticles(real)
	tr := tree.New(1, 4, 32)
	tr.Build(universe)
	return universe, tr
}

func baseForceConfig(formulation solver.Formulation) Config {
	return Config{
		Dim:            1,
		Kernel:         kernel.New(kernel.CubicSpline, 1),
		Formulation:    formulation,
		Gamma:          1.4,
		AV:             AVConfig{Alpha: 1.0},
		NeighborNumber: 4,
	}
}

func TestEvaluate_SSPH_NewtonThirdLawSymmetricPair(t *testing.T) {
	real := twoFluidParticles(0.3)
	universe, tr := buildEvalTree(real)

	e := New(baseForceConfig(solver.SSPH))
	e.Evaluate(real, universe, tr)

	assert.InDelta(t, -real.At(0).Accel[0], real.At(1).Accel[0], 1e-9, "equal-pressure equal-mass pair must accelerate apart with equal and opposite force")
}

func TestEvaluate_SSPH_EqualPressurePairRepelsUnderCompression(t *testing.T) {
	real := twoFluidParticles(0.3)
	universe, tr := buildEvalTree(real)

	e := New(baseForceConfig(solver.SSPH))
	e.Evaluate(real, universe, tr)

	assert.Less(t, real.At(0).Accel[0], 0.0, "left particle pushed further left, away from its close neighbor")
	assert.Greater(t, real.At(1).Accel[0], 0.0)
}

func TestEvaluate_DISPH_NewtonThirdLawSymmetricPair(t *testing.T) {
	real := twoFluidParticles(0.3)
	universe, tr := buildEvalTree(real)

	e := New(baseForceConfig(solver.DISPH))
	e.Evaluate(real, universe, tr)

	assert.InDelta(t, -real.At(0).Accel[0], real.At(1).Accel[0], 1e-9)
}

func TestEvaluate_DistantPairHasNoForce(t *testing.T) {
	real := twoFluidParticles(100.0) // far outside the kernel support for h=1
	universe, tr := buildEvalTree(real)

	e := New(baseForceConfig(solver.SSPH))
	result := e.Evaluate(real, universe, tr)

	require.Len(t, result.EnergyRate, 2)
	assert.Equal(t, 0.0, real.At(0).Accel[0])
	assert.Equal(t, 0.0, result.EnergyRate[0])
}

func TestEvaluate_EqualStatePairHasNoEnergyExchange(t *testing.T) {
	real := twoFluidParticles(0.3)
	universe, tr := buildEvalTree(real)

	e := New(baseForceConfig(solver.SSPH))
	result := e.Evaluate(real, universe, tr)

	assert.InDelta(t, 0.0, result.EnergyRate[0], 1e-9, "identical states at rest exchange no net PdV work")
	assert.InDelta(t, 0.0, result.EnergyRate[1], 1e-9)
}
