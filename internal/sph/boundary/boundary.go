// Package boundary implements the per-dimension boundary configuration,
// the minimum-image periodic offset helper, and the ghost manager that
// materializes periodic and Morris-1997 mirror-wall ghosts into the
// search universe (spec §4.3, §4.4).
//
// Grounded on internal/physics/sph.go's soft boundary-repulsion block
// (the teacher's only boundary-handling code), generalized from a
// penalty force into true ghost-particle mirroring per spec §4.4.
package boundary

import "math"

// Type selects how a single dimension's boundary is handled.
type Type uint8

const (
	None Type = iota
	Periodic
	Mirror
)

// MirrorSubtype selects reflection behavior for mirror walls.
type MirrorSubtype uint8

const (
	NoSlip MirrorSubtype = iota
	FreeSlip
)

// DimConfig is one dimension's boundary description.
type DimConfig struct {
	Type Type
	Min  float64
	Max  float64

	MirrorSubtype MirrorSubtype
	EnableLower   bool
	EnableUpper   bool

	// Per-wall spacing for Morris-1997 wall placement (§4.4). Zero
	// means "use Config.UniformSpacing".
	SpacingLower float64
	SpacingUpper float64
}

// Config is the full per-dimension boundary description (spec §3).
type Config struct {
	Dims []DimConfig

	// UniformSpacing is used for any wall whose per-dimension spacing
	// is left at zero.
	UniformSpacing float64
}

func (c Config) dimSpacing(d int, upper bool) float64 {
	dc := c.Dims[d]
	s := dc.SpacingLower
	if upper {
		s = dc.SpacingUpper
	}
	if s == 0 {
		return c.UniformSpacing
	}
	return s
}

// WallPosition returns the Morris-1997 wall location for dimension d:
// range_d +/- 0.5*spacing_d, placed half a particle-spacing outside
// the nominal domain range so the reflected ghost density is smooth
// across the wall (spec §4.4, glossary).
func (c Config) WallPosition(d int, upper bool) float64 {
	dc := c.Dims[d]
	spacing := c.dimSpacing(d, upper)
	if upper {
		return dc.Max + 0.5*spacing
	}
	return dc.Min - 0.5*spacing
}

// length returns the periodic range length L_d for dimension d.
func (c Config) length(d int) float64 {
	return c.Dims[d].Max - c.Dims[d].Min
}

// PeriodicOffset computes the minimum-image separation xi - xj under
// the active periodic dimensions (spec §4.3): for each periodic
// dimension, if the raw difference exceeds half the domain length, it
// is wrapped back into [-L/2, L/2]. Non-periodic dimensions use the
// raw difference.
func (c Config) PeriodicOffset(xi, xj []float64, out []float64) {
	for d := range xi {
		delta := xi[d] - xj[d]
		if d < len(c.Dims) && c.Dims[d].Type == Periodic {
			L := c.length(d)
			if delta > L/2 {
				delta -= L
			} else if delta < -L/2 {
				delta += L
			}
		}
		out[d] = delta
	}
}

// epsTol is the small multiple of machine epsilon added to the
// near-boundary proximity test (spec §4.4: "edge-case bug: strict <
// left gaps in density near boundaries" — the source's fix, matched
// here exactly rather than guessed at).
func epsTol(supportRadius float64) float64 {
	scale := supportRadius
	if scale < 1 {
		scale = 1
	}
	return 8 * (math.Nextafter(1, 2) - 1) * scale
}

// near reports whether distance dist to a wall is within kernel
// support, using the inclusive <= comparison spec §4.4 calls for.
func near(dist, supportRadius float64) bool {
	return dist <= supportRadius+epsTol(supportRadius)
}
