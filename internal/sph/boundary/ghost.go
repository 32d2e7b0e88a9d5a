package boundary

import (
	"github.com/san-kum/dynsim/internal/sph/particle"
)

// Manager generates, refreshes, and wraps ghost particles against a
// Config (spec §4.4). It holds no particle state of its own beyond
// the configuration; ghosts live in the SearchParticles universe it
// is given each call.
type Manager struct {
	cfg Config
	dim int
}

func NewManager(cfg Config, dim int) *Manager {
	return &Manager{cfg: cfg, dim: dim}
}

// RegenerateGhosts rebuilds ghost topology from scratch: it resets
// universe to the real-particle prefix, then appends periodic and
// mirror ghosts for every real particle whose kernel support touches
// a boundary. Used once per driver step (spec §4.4: "driver uses
// regenerate per step to tolerate particle drift across boundaries").
func (m *Manager) RegenerateGhosts(real *particle.RealParticles, universe *particle.SearchParticles, supportRadius func(i int) float64) {
	universe.Reset(real)

	n := real.Len()
	for i := 0; i < n; i++ {
		p := real.At(i)
		sr := supportRadius(i)
		m.appendPeriodicGhosts(i, p, sr, universe)
		m.appendMirrorGhosts(i, p, sr, universe)
	}
}

// UpdateGhosts refreshes existing ghosts' derived state (position,
// velocity, density, pressure) from their source particles without
// changing topology — used when topology is known unchanged (spec
// §4.4). It is also what makes property P7 (regenerate then update
// with unchanged positions is bit-equal to regenerate alone) hold:
// resync computes each field the same way the generate paths do and
// copies the same set of source fields.
func (m *Manager) UpdateGhosts(real *particle.RealParticles, universe *particle.SearchParticles) {
	items := universe.Raw()
	for i := universe.RealCount(); i < universe.Len(); i++ {
		g := &items[i]
		src := real.At(g.SourceIndex)
		m.resync(src, g)
	}
}

func (m *Manager) resync(src *particle.Particle, g *particle.Particle) {
	switch g.Transform.Kind {
	case particle.TransformPeriodic:
		for d := 0; d < m.dim; d++ {
			g.Position[d] = src.Position[d] + g.Transform.Shift[d]
			g.Velocity[d] = src.Velocity[d]
		}
	case particle.TransformMirror:
		wallPos := m.cfg.WallPosition(g.Transform.Wall, g.Transform.Sign > 0)
		for d := 0; d < m.dim; d++ {
			if d == g.Transform.Wall {
				g.Position[d] = 2*wallPos - src.Position[d]
			} else {
				g.Position[d] = src.Position[d]
			}
		}
		copy(g.Velocity, src.Velocity)
		if g.Transform.Slip {
			// free-slip: flip only the normal component
			g.Velocity[g.Transform.Wall] = -g.Velocity[g.Transform.Wall]
		} else {
			// no-slip: flip all components
			for d := range g.Velocity {
				g.Velocity[d] = -g.Velocity[d]
			}
		}
	}
	g.Mass = src.Mass
	g.Density = src.Density
	g.Pressure = src.Pressure
	g.Energy = src.Energy
	g.SmoothingLength = src.SmoothingLength
	g.SoundSpeed = src.SoundSpeed
	g.AVAlpha = src.AVAlpha
	g.Balsara = src.Balsara
}

// appendPeriodicGhosts generates wrapped copies for every periodic
// face the particle is near, including explicit corner/edge ghosts in
// multiple periodic dimensions (spec §4.4: periodic boundaries need
// explicit corner ghosts because independent single-axis wraps miss
// the diagonal neighbors).
func (m *Manager) appendPeriodicGhosts(srcIdx int, p *particle.Particle, supportRadius float64, universe *particle.SearchParticles) {
	type axisShift struct {
		dim   int
		shift float64
	}
	var shifts []axisShift

	for d := 0; d < m.dim; d++ {
		dc := m.cfg.Dims[d]
		if dc.Type != Periodic {
			continue
		}
		L := m.cfg.length(d)
		x := p.Position[d]
		if near(x-dc.Min, supportRadius) {
			shifts = append(shifts, axisShift{dim: d, shift: L})
		}
		if near(dc.Max-x, supportRadius) {
			shifts = append(shifts, axisShift{dim: d, shift: -L})
		}
	}
	if len(shifts) == 0 {
		return
	}

	// Enumerate every non-empty subset of per-axis shifts: a single
	// shift is an edge/face ghost, two or more combined shifts are the
	// corner/edge ghosts spec §4.4 requires explicitly in multiple
	// periodic dimensions.
	nShifts := len(shifts)
	for mask := 1; mask < (1 << nShifts); mask++ {
		// Skip masks that pick two shifts on the same axis (both walls
		// at once is impossible for a single particle in a reasonably
		// sized domain and would double-shift that axis).
		seen := make(map[int]bool)
		conflict := false
		for b := 0; b < nShifts; b++ {
			if mask&(1<<b) == 0 {
				continue
			}
			if seen[shifts[b].dim] {
				conflict = true
				break
			}
			seen[shifts[b].dim] = true
		}
		if conflict {
			continue
		}

		shift := make([]float64, m.dim)
		for b := 0; b < nShifts; b++ {
			if mask&(1<<b) != 0 {
				shift[shifts[b].dim] += shifts[b].shift
			}
		}

		g := particle.Particle{
			Position:    make([]float64, m.dim),
			Velocity:    make([]float64, m.dim),
			Accel:       make([]float64, m.dim),
			Mass:        p.Mass,
			SourceIndex: srcIdx,
			Transform: particle.Transform{
				Kind:  particle.TransformPeriodic,
				Shift: shift,
			},
		}
		for d := 0; d < m.dim; d++ {
			g.Position[d] = p.Position[d] + shift[d]
			g.Velocity[d] = p.Velocity[d]
		}
		g.Density, g.Pressure, g.Energy = p.Density, p.Pressure, p.Energy
		g.SmoothingLength, g.SoundSpeed = p.SmoothingLength, p.SoundSpeed
		g.AVAlpha, g.Balsara = p.AVAlpha, p.Balsara
		universe.AppendGhost(g)
	}
}

// appendMirrorGhosts reflects the particle across every enabled
// mirror wall it is near. No explicit corner ghosts are generated for
// mirrors: a corner particle yields one reflected ghost per adjacent
// wall and their union already covers the kernel support (spec §4.4).
func (m *Manager) appendMirrorGhosts(srcIdx int, p *particle.Particle, supportRadius float64, universe *particle.SearchParticles) {
	for d := 0; d < m.dim; d++ {
		dc := m.cfg.Dims[d]
		if dc.Type != Mirror {
			continue
		}
		if dc.EnableLower {
			wallPos := m.cfg.WallPosition(d, false)
			dist := p.Position[d] - wallPos
			if dist >= 0 && near(dist, supportRadius) {
				universe.AppendGhost(m.reflect(srcIdx, p, d, false, wallPos))
			}
		}
		if dc.EnableUpper {
			wallPos := m.cfg.WallPosition(d, true)
			dist := wallPos - p.Position[d]
			if dist >= 0 && near(dist, supportRadius) {
				universe.AppendGhost(m.reflect(srcIdx, p, d, true, wallPos))
			}
		}
	}
}

func (m *Manager) reflect(srcIdx int, p *particle.Particle, d int, upper bool, wallPos float64) particle.Particle {
	dc := m.cfg.Dims[d]
	sign := -1
	if upper {
		sign = 1
	}
	slip := dc.MirrorSubtype == FreeSlip

	g := particle.Particle{
		Position: make([]float64, m.dim),
		Velocity: make([]float64, m.dim),
		Accel:    make([]float64, m.dim),
		Mass:     p.Mass,
		SourceIndex: srcIdx,
		Transform: particle.Transform{
			Kind: particle.TransformMirror,
			Wall: d,
			Sign: sign,
			Slip: slip,
		},
	}
	copy(g.Position, p.Position)
	g.Position[d] = 2*wallPos - p.Position[d]
	copy(g.Velocity, p.Velocity)
	if slip {
		g.Velocity[d] = -g.Velocity[d]
	} else {
		for i := range g.Velocity {
			g.Velocity[i] = -g.Velocity[i]
		}
	}
	g.Density, g.Pressure, g.Energy = p.Density, p.Pressure, p.Energy
	g.SmoothingLength, g.SoundSpeed = p.SmoothingLength, p.SoundSpeed
	g.AVAlpha, g.Balsara = p.AVAlpha, p.Balsara
	return g
}

// WrapPeriodic applies periodic wrap to every real particle's
// position after integration (spec §4.4): for each periodic
// dimension, add or subtract L until the position is back in range.
// Must run before the next tree build.
func (m *Manager) WrapPeriodic(real *particle.RealParticles) {
	n := real.Len()
	for i := 0; i < n; i++ {
		p := real.At(i)
		for d := 0; d < m.dim; d++ {
			dc := m.cfg.Dims[d]
			if dc.Type != Periodic {
				continue
			}
			L := m.cfg.length(d)
			for p.Position[d] < dc.Min {
				p.Position[d] += L
			}
			for p.Position[d] > dc.Max {
				p.Position[d] -= L
			}
		}
	}
}

// InBounds reports whether every periodic dimension of a position is
// within [min, max] — used by the driver to detect a BoundaryViolation
// (spec §7: "should be impossible", fatal if it happens).
func (m *Manager) InBounds(pos []float64) bool {
	for d := 0; d < m.dim; d++ {
		dc := m.cfg.Dims[d]
		if dc.Type != Periodic {
			continue
		}
		if pos[d] < dc.Min-1e-9 || pos[d] > dc.Max+1e-9 {
			return false
		}
	}
	return true
}
