package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKernel_ZeroOutsideSupport(t *testing.T) {
	for _, name := range []Name{CubicSpline, WendlandC4} {
		for _, dim := range []int{1, 2, 3} {
			k := New(name, dim)
			h := 0.5
			assert.Equal(t, 0.0, k.W(k.SupportRadius(h)+1e-9, h), "%s dim=%d", name, dim)
			assert.Equal(t, 0.0, k.GradW(k.SupportRadius(h)+1e-9, h), "%s dim=%d", name, dim)
		}
	}
}

func TestKernel_PositiveWithinSupport(t *testing.T) {
	for _, name := range []Name{CubicSpline, WendlandC4} {
		k := New(name, 2)
		h := 1.0
		assert.Greater(t, k.W(0, h), 0.0, "%s: W(0) must be positive", name)
		assert.Greater(t, k.W(0.5*h, h), 0.0)
		assert.Less(t, k.GradW(0.5*h, h), 0.0, "%s: gradient must be negative inside support (decreasing weight)", name)
	}
}

// TestKernel_NormalizationIntegratesToOne checks, by midpoint
// quadrature over the 1-D line, that sigma normalizes the kernel to
// unit integral — the defining property a compact-support SPH kernel
// must satisfy. Exercised for both kernels so a mislabeled or
// mis-normalized Wendland variant would fail here too.
func TestKernel_NormalizationIntegratesToOne(t *testing.T) {
	for _, name := range []Name{CubicSpline, WendlandC4} {
		h := 1.0
		k := New(name, 1)
		support := k.SupportRadius(h)

		n := 200000
		dx := 2 * support / float64(n)
		sum := 0.0
		for i := 0; i < n; i++ {
			r := -support + (float64(i)+0.5)*dx
			sum += k.W(math.Abs(r), h) * dx
		}
		assert.InDelta(t, 1.0, sum, 1e-3, "%s", name)
	}
}

func TestKernel_SupportRadiusScalesWithH(t *testing.T) {
	k := New(CubicSpline, 2)
	assert.Equal(t, 2.0, k.SupportRadius(1.0))
	assert.Equal(t, 4.0, k.SupportRadius(2.0))
}

// TestWendlandC4_GradientVanishesAtOrigin checks that the Wendland C4
// kernel is smooth at the origin: dW/dr tends to 0 as r tends to 0.
func TestWendlandC4_GradientVanishesAtOrigin(t *testing.T) {
	k := New(WendlandC4, 3)
	h := 1.0
	// GradW treats r<=0 as outside its domain (used only for r>0 pair
	// separations), so approach from a small positive r instead.
	assert.InDelta(t, 0.0, k.GradW(1e-6, h), 1e-3)
}

func TestKernel_ZeroSmoothingLengthIsSafe(t *testing.T) {
	for _, name := range []Name{CubicSpline, WendlandC4} {
		k := New(name, 2)
		assert.Equal(t, 0.0, k.W(1.0, 0))
		assert.Equal(t, 0.0, k.GradW(1.0, 0))
	}
}
