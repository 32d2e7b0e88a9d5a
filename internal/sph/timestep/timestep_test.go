package timestep

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

func onePoint(h, soundSpeed float64, accel float64) *particle.RealParticles {
	p := particle.NewParticle(1, 0)
	p.SmoothingLength = h
	p.SoundSpeed = soundSpeed
	p.Accel[0] = accel
	return particle.NewRealParticles(1, []particle.Particle{p})
}

func TestCompute_ScalesWithSoundSpeedBound(t *testing.T) {
	cfg := DefaultConfig()
	real := onePoint(0.1, 1.0, 0)
	dt := Compute(real, cfg, nil, 0, math.Inf(1), 0)
	expected := cfg.SoundCoefficient * 0.1 / 1.0
	assert.InDelta(t, expected, dt, 1e-9)
}

func TestCompute_ForceBoundCanBeTighterThanSoundBound(t *testing.T) {
	cfg := DefaultConfig()
	real := onePoint(0.1, 0, 100.0)
	dt := Compute(real, cfg, nil, 0, math.Inf(1), 0)
	expected := cfg.ForceCoefficient * math.Sqrt(0.1/100.0)
	assert.InDelta(t, expected, dt, 1e-9)
}

func TestCompute_ZeroSmoothingLengthParticleIsSkipped(t *testing.T) {
	cfg := DefaultConfig()
	real := onePoint(0, 1.0, 0)
	dt := Compute(real, cfg, nil, 0, math.Inf(1), 0)
	assert.Equal(t, 0.0, dt, "no valid particle contributes a bound, so dt collapses to the safe zero default")
}

func TestCompute_ClampedToNextOutputTime(t *testing.T) {
	cfg := DefaultConfig()
	real := onePoint(10.0, 0.01, 0) // would otherwise pick a huge dt
	dt := Compute(real, cfg, nil, 0, 0.05, 0.04)
	assert.InDelta(t, 0.01, dt, 1e-9)
}

func TestCompute_DivergenceLookupIncreasesAVDenominator(t *testing.T) {
	cfg := DefaultConfig()
	real := onePoint(0.1, 1.0, 0)
	withoutDiv := Compute(real, cfg, nil, 2.0, math.Inf(1), 0)
	withDiv := Compute(real, cfg, DivergenceLookup(func(i int) float64 { return 5.0 }), 2.0, math.Inf(1), 0)
	assert.Less(t, withDiv, withoutDiv, "a large divergence signal should tighten the Courant bound")
}
