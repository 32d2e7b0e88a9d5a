package gravity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

func twoBody(separation, m1, m2 float64) *particle.RealParticles {
	items := make([]particle.Particle, 2)
	items[0] = particle.NewParticle(1, 0)
	items[0].Mass = m1
	items[0].Position[0] = 0
	items[0].SmoothingLength = 1e-6

	items[1] = particle.NewParticle(1, 1)
	items[1].Mass = m2
	items[1].Position[0] = separation
	items[1].SmoothingLength = 1e-6
	return particle.NewRealParticles(1, items)
}

func TestEvaluate_NewtonianAttractionBetweenTwoMasses(t *testing.T) {
	real := twoBody(2.0, 1.0, 1.0)
	e := New(Config{G: 1.0, Theta: 0.5, LeafCapacity: 1, MaxLevel: 16}, 1)
	e.Evaluate(real)

	assert.Greater(t, real.At(0).Accel[0], 0.0, "left mass accelerates toward the right mass")
	assert.Less(t, real.At(1).Accel[0], 0.0, "right mass accelerates toward the left mass")
}

func TestEvaluate_ForceMagnitudeMatchesInverseSquareLaw(t *testing.T) {
	real := twoBody(2.0, 1.0, 1.0)
	e := New(Config{G: 1.0, Theta: 0.0, LeafCapacity: 1, MaxLevel: 16}, 1)
	e.Evaluate(real)

	expected := 1.0 / (2.0 * 2.0) // G*m/r^2
	assert.InDelta(t, expected, real.At(0).Accel[0], 1e-3)
}

func TestEvaluate_EquidistantSymmetricMasses_NetForceIsZero(t *testing.T) {
	items := []particle.Particle{}
	for _, x := range []float64{-1.0, 0.0, 1.0} {
		p := particle.NewParticle(1, uint64(len(items)))
		p.Mass = 1.0
		p.Position[0] = x
		p.SmoothingLength = 1e-6
		items = append(items, p)
	}
	real := particle.NewRealParticles(1, items)
	e := New(Config{G: 1.0, Theta: 0.0, LeafCapacity: 1, MaxLevel: 16}, 1)
	e.Evaluate(real)

	assert.True(t, math.Abs(real.At(1).Accel[0]) < 1e-9, "middle particle sees equal and opposite pulls")
}
