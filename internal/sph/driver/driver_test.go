package driver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynsim/internal/sph/scenario"
)

func tinySodShockTube() scenario.SodShockTube {
	return scenario.SodShockTube{
		NLeft: 24, NRight: 6, Length: 0.5, Gamma: 1.4,
		RhoLeft: 1.0, PressureLeft: 1.0,
		RhoRight: 0.125, PressureRight: 0.1,
	}
}

func TestRun_CompletesReducedShockTubeAndReportsMonotonicTime(t *testing.T) {
	sod := tinySodShockTube()
	real, bcfg := sod.Build()

	bundle, err := sod.DefaultBundle(bcfg)
	require.NoError(t, err)
	bundle.Base.Duration = 0.01
	bundle.Base.EnergyOutputInterval = 0.002
	bundle.Base.ParticleOutputInterval = 0

	d := New(bundle, real, nil, nil)
	report, runErr := d.Run(real, 1e-4)

	require.NoError(t, runErr)
	assert.Greater(t, report.StepsTaken, 0)
	assert.GreaterOrEqual(t, report.FinalTime, bundle.Base.Duration)
	assert.NotEmpty(t, report.EnergyHistory)
}

func TestRun_TotalEnergyStaysBoundedOverShortRun(t *testing.T) {
	sod := tinySodShockTube()
	real, bcfg := sod.Build()

	bundle, err := sod.DefaultBundle(bcfg)
	require.NoError(t, err)
	bundle.Base.Duration = 0.02
	bundle.Base.EnergyOutputInterval = 0.002

	d := New(bundle, real, nil, nil)
	report, runErr := d.Run(real, 1e-4)
	require.NoError(t, runErr)
	require.GreaterOrEqual(t, len(report.EnergyHistory), 2)

	e0 := report.EnergyHistory[0]
	eLast := report.EnergyHistory[len(report.EnergyHistory)-1]
	drift := math.Abs(eLast-e0) / math.Abs(e0)
	assert.Less(t, drift, 0.2, "total energy should not drift wildly over a handful of sub-Courant steps")
}

func TestReport_SummaryHandlesInsufficientSamples(t *testing.T) {
	r := Report{}
	assert.Contains(t, r.Summary(), "insufficient samples")
}

func TestReport_SummaryRendersSparklineWithEnoughSamples(t *testing.T) {
	r := Report{EnergyHistory: []float64{1.0, 1.1, 0.9, 1.05}}
	out := r.Summary()
	assert.NotEmpty(t, out)
	assert.NotContains(t, out, "insufficient samples")
}
