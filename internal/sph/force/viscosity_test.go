package force

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViscosity_ZeroForSeparatingPair(t *testing.T) {
	cfg := AVConfig{Alpha: 1.0}
	sep := []float64{1.0, 0}
	velDiff := []float64{1.0, 0} // moving apart
	pi := Viscosity(cfg, 1.0, 1.0, sep, velDiff, 1.0, 1.0, 1.0, 0, 0)
	assert.Equal(t, 0.0, pi)
}

func TestViscosity_PositiveForApproachingPair(t *testing.T) {
	cfg := AVConfig{Alpha: 1.0}
	sep := []float64{1.0, 0}
	velDiff := []float64{-1.0, 0} // approaching
	pi := Viscosity(cfg, 1.0, 1.0, sep, velDiff, 1.0, 1.0, 1.0, 0, 0)
	assert.Greater(t, pi, 0.0, "AV pressure-like term must be positive (repulsive, dissipative) for approaching pairs")
}

func TestViscosity_BalsaraSwitchSuppressesShearDominatedPairs(t *testing.T) {
	cfg := AVConfig{Alpha: 1.0, UseBalsara: true}
	sep := []float64{1.0, 0}
	velDiff := []float64{-1.0, 0}
	withoutSwitch := Viscosity(AVConfig{Alpha: 1.0}, 1.0, 1.0, sep, velDiff, 1.0, 1.0, 1.0, 0, 0)
	withSwitch := Viscosity(cfg, 1.0, 1.0, sep, velDiff, 1.0, 1.0, 1.0, 0.1, 0.1)
	assert.Less(t, withSwitch, withoutSwitch, "a low Balsara value (shear-dominated) should weaken the AV term toward zero")
}

func TestEffectiveBeta_DefaultsToTwiceAlpha(t *testing.T) {
	cfg := AVConfig{Alpha: 0.5}
	assert.Equal(t, 1.0, cfg.EffectiveBeta())
}

func TestEffectiveBeta_ExplicitValueWins(t *testing.T) {
	cfg := AVConfig{Alpha: 0.5, Beta: 3.0}
	assert.Equal(t, 3.0, cfg.EffectiveBeta())
}

func TestConductivity_DisabledWhenCoefficientIsZero(t *testing.T) {
	cfg := AVConfig{}
	cond := Conductivity(cfg, 2.0, 1.0, 1.0, 1.0, 1.0)
	assert.Equal(t, 0.0, cond)
}

func TestConductivity_SignMatchesEnergyGradient(t *testing.T) {
	cfg := AVConfig{ArtificialCond: 1.0}
	cond := Conductivity(cfg, 2.0, 1.0, 1.0, 1.0, 1.0)
	assert.Greater(t, cond, 0.0, "heat should flow from the hotter (higher-u) particle")
}

func TestEvolveAlpha_DecaysTowardMinWithoutCompression(t *testing.T) {
	cfg := AVConfig{UseTimeDependent: true, AlphaMin: 0.1, AlphaMax: 1.5, EpsilonDecay: 1.0}
	next := EvolveAlpha(cfg, 1.5, 0.0, 1.0, 1.0, 0.1)
	assert.Less(t, next, 1.5)
	assert.GreaterOrEqual(t, next, cfg.AlphaMin)
}

func TestEvolveAlpha_GrowsTowardMaxOnCompression(t *testing.T) {
	cfg := AVConfig{UseTimeDependent: true, AlphaMin: 0.1, AlphaMax: 1.5, EpsilonDecay: 1.0}
	next := EvolveAlpha(cfg, 0.1, -5.0, 1.0, 1.0, 0.01)
	assert.Greater(t, next, 0.1)
	assert.LessOrEqual(t, next, cfg.AlphaMax)
}

func TestEvolveAlpha_NoOpWhenTimeDependenceDisabled(t *testing.T) {
	cfg := AVConfig{}
	assert.Equal(t, 0.7, EvolveAlpha(cfg, 0.7, -5.0, 1.0, 1.0, 1.0))
}
