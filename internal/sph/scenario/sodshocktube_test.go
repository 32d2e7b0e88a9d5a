package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSodShockTube_Build_ProducesEqualParticleMass(t *testing.T) {
	sod := DefaultSodShockTube()
	real, bcfg := sod.Build()

	require.Equal(t, sod.NLeft+sod.NRight, real.Len())

	m0 := real.At(0).Mass
	mLast := real.At(real.Len() - 1).Mass
	assert.InDelta(t, m0, mLast, 1e-12, "the standard Sod convention keeps particle mass uniform across the density jump")

	assert.Equal(t, -sod.Length, bcfg.Dims[0].Min)
	assert.Equal(t, sod.Length, bcfg.Dims[0].Max)
}

func TestSodShockTube_Build_LeftStateDenserThanRight(t *testing.T) {
	sod := DefaultSodShockTube()
	real, _ := sod.Build()

	left := real.At(0)
	right := real.At(real.Len() - 1)

	assert.Greater(t, left.Density, right.Density)
	assert.Greater(t, left.Pressure, right.Pressure)
}

func TestSodShockTube_Build_ParticlesOrderedLeftToRight(t *testing.T) {
	sod := DefaultSodShockTube()
	real, _ := sod.Build()

	for i := 1; i < real.Len(); i++ {
		assert.Greater(t, real.At(i).Position[0], real.At(i-1).Position[0])
	}
}

func TestSodShockTube_DefaultBundle_BuildsValidBundle(t *testing.T) {
	sod := DefaultSodShockTube()
	_, bcfg := sod.Build()

	bundle, err := sod.DefaultBundle(bcfg)
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.Base.Dim)
	assert.InDelta(t, sod.Gamma, bundle.Base.Gamma, 1e-9)
}
