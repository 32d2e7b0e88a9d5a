package solver

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dynsim/internal/sph/boundary"
	"github.com/san-kum/dynsim/internal/sph/particle"
	"github.com/san-kum/dynsim/internal/sph/tree"
)

// secondPass computes, with h already converged: the grad-h
// correction term, the Balsara switch (from divergence/curl of v),
// sound speed c = sqrt(gamma*p/rho), and — only for GSPH — the
// least-squares MUSCL gradients of velocity/pressure/density in each
// dimension (spec §4.5 "second pass per particle").
func (s *Solver) secondPass(i int, real *particle.RealParticles, universe *particle.SearchParticles, tr *tree.Tree, acc *particle.NeighborAccessor) {
	p := real.At(i)
	h := p.SmoothingLength

	res := tr.QueryNeighbors(p.Position, h, tree.SearchConfig{
		MaxNeighbors:  s.cfg.NeighborNumber,
		UseMaxKernel:  true,
		CollectFactor: s.cfg.SearchFactor,
	}, i, s.cfg.Boundary)

	p.SoundSpeed = math.Sqrt(s.cfg.Gamma * p.Pressure / math.Max(p.Density, 1e-300))
	p.GradHCorrection = s.gradHCorrection(p, h, res.Indices, acc)

	divV, curlMag := s.velocityDerivatives(p, h, res.Indices, acc)
	p.DivV = divV
	p.Balsara = balsaraSwitch(divV, curlMag, p.SoundSpeed, h)

	if s.cfg.Formulation == GSPH {
		particle.EnsureGradients(p, s.cfg.Dim)
		s.muscleGradients(p, res.Indices, acc)
	}
}

// gradHCorrection estimates the SSPH grad-h term
// f_i = 1 / (1 + (h_i / (Dim*rho_i)) * d(rho)/dh) via a finite
// difference of the density sum (same trick as densitySum's
// kernelDWdh, applied to rho itself rather than W alone).
func (s *Solver) gradHCorrection(p *particle.Particle, h float64, indices []particle.NeighborIndex, acc *particle.NeighborAccessor) float64 {
	const eps = 1e-5
	rhoPlus, _, _ := s.densitySumSlice(p, h+eps, indices, acc)
	rhoMinus, _, _ := s.densitySumSlice(p, h-eps, indices, acc)
	drhodh := (rhoPlus - rhoMinus) / (2 * eps)
	denom := 1 + (h/(float64(s.cfg.Dim)*math.Max(p.Density, 1e-300)))*drhodh
	if denom == 0 {
		return 1
	}
	return 1.0 / denom
}

func (s *Solver) densitySumSlice(p *particle.Particle, h float64, indices []particle.NeighborIndex, acc *particle.NeighborAccessor) (rho, drhodh float64, realCount int) {
	rho = p.Mass * s.cfg.Kernel.W(0, h)
	for _, ni := range indices {
		nb := acc.At(ni)
		r := separationNorm(p.Position, nb.Position, s.cfg.Boundary)
		rho += nb.Mass * s.cfg.Kernel.W(r, h)
		if acc.IsReal(ni) {
			realCount++
		}
	}
	return
}

// velocityDerivatives estimates the SPH divergence and curl-magnitude
// of the velocity field at particle p, used by the Balsara switch.
func (s *Solver) velocityDerivatives(p *particle.Particle, h float64, indices []particle.NeighborIndex, acc *particle.NeighborAccessor) (div, curlMag float64) {
	var curl []float64
	if s.cfg.Dim == 3 {
		curl = make([]float64, 3)
	}
	for _, ni := range indices {
		nb := acc.At(ni)
		sep := make([]float64, s.cfg.Dim)
		subSep(p.Position, nb.Position, s.cfg.Boundary, sep)
		r := norm(sep)
		if r <= 1e-12 {
			continue
		}
		gradW := s.cfg.Kernel.GradW(r, h)
		volj := nb.Mass / math.Max(nb.Density, 1e-300)

		dv := make([]float64, s.cfg.Dim)
		for d := 0; d < s.cfg.Dim; d++ {
			dv[d] = nb.Velocity[d] - p.Velocity[d]
		}

		dot := 0.0
		for d := 0; d < s.cfg.Dim; d++ {
			dot += dv[d] * sep[d]
		}
		div += volj * dot * gradW / r

		if s.cfg.Dim == 3 {
			cx := dv[1]*sep[2] - dv[2]*sep[1]
			cy := dv[2]*sep[0] - dv[0]*sep[2]
			cz := dv[0]*sep[1] - dv[1]*sep[0]
			curl[0] += volj * cx * gradW / r
			curl[1] += volj * cy * gradW / r
			curl[2] += volj * cz * gradW / r
		} else if s.cfg.Dim == 2 {
			c := dv[0]*sep[1] - dv[1]*sep[0]
			curlMag += volj * c * gradW / r
		}
	}
	if s.cfg.Dim == 3 {
		curlMag = norm(curl)
	} else {
		curlMag = math.Abs(curlMag)
	}
	return
}

func balsaraSwitch(divV, curlMag, c, h float64) float64 {
	const epsBalsara = 1e-4
	denom := math.Abs(divV) + curlMag + epsBalsara*c/h
	if denom == 0 {
		return 0
	}
	return math.Abs(divV) / denom
}

// muscleGradients fits a least-squares linear reconstruction of
// velocity (per component), pressure, and density around particle p,
// used by GSPH's MUSCL extrapolation (spec §4.6). The normal equations
// are assembled directly and solved by solveSmall's Gaussian
// elimination, which uses gonum/floats.AddScaled for the row updates
// (gonum is a pack dependency contributed by pthm-soup; see DESIGN.md).
func (s *Solver) muscleGradients(p *particle.Particle, indices []particle.NeighborIndex, acc *particle.NeighborAccessor) {
	dim := s.cfg.Dim
	// Normal equations A^T A g = A^T b, A rows = sep vectors weighted by
	// kernel, b = scalar differences. Assembled directly since dim is
	// small (1-3): ATA is a dim x dim matrix.
	ata := make([]float64, dim*dim)
	atbRho := make([]float64, dim)
	atbP := make([]float64, dim)
	atbV := make([][]float64, dim)
	for d := range atbV {
		atbV[d] = make([]float64, dim)
	}

	for _, ni := range indices {
		nb := acc.At(ni)
		sep := make([]float64, dim)
		subSep(p.Position, nb.Position, s.cfg.Boundary, sep)
		r := norm(sep)
		if r <= 1e-12 {
			continue
		}
		w := s.cfg.Kernel.W(r, p.SmoothingLength)

		for a := 0; a < dim; a++ {
			for b := 0; b < dim; b++ {
				ata[a*dim+b] += w * sep[a] * sep[b]
			}
			atbRho[a] += w * sep[a] * (nb.Density - p.Density)
			atbP[a] += w * sep[a] * (nb.Pressure - p.Pressure)
			for vc := 0; vc < dim; vc++ {
				atbV[vc][a] += w * sep[a] * (nb.Velocity[vc] - p.Velocity[vc])
			}
		}
	}

	solveLS := func(atb []float64) []float64 {
		out := make([]float64, dim)
		solveSmall(ata, atb, out, dim)
		return out
	}

	copy(p.GradRho, solveLS(atbRho))
	copy(p.GradP, solveLS(atbP))
	// GradV stores only the divergence-relevant diagonal (per-component
	// gradient along its own axis), matching the flattened Jacobian diag
	// documented on particle.Particle.GradV.
	for vc := 0; vc < dim; vc++ {
		g := solveLS(atbV[vc])
		p.GradV[vc] = g[vc]
	}
}

// solveSmall solves (dim x dim) A x = b via Gauss elimination with
// partial pivoting, falling back to zero gradients if A is singular
// (insufficient, degenerate neighbor geometry — e.g. fewer than dim
// independent separations).
func solveSmall(aFlat, b []float64, out []float64, dim int) {
	a := make([][]float64, dim)
	for i := range a {
		a[i] = append([]float64(nil), aFlat[i*dim:(i+1)*dim]...)
	}
	rhs := append([]float64(nil), b...)

	for col := 0; col < dim; col++ {
		pivot := col
		for r := col + 1; r < dim; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			for i := range out {
				out[i] = 0
			}
			return
		}
		a[col], a[pivot] = a[pivot], a[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]

		for r := col + 1; r < dim; r++ {
			factor := a[r][col] / a[col][col]
			floats.AddScaled(a[r], -factor, a[col])
			rhs[r] -= factor * rhs[col]
		}
	}

	for row := dim - 1; row >= 0; row-- {
		sum := rhs[row]
		for c := row + 1; c < dim; c++ {
			sum -= a[row][c] * out[c]
		}
		out[row] = sum / a[row][row]
	}
}

func subSep(a, b []float64, bc *boundary.Config, out []float64) {
	if bc != nil {
		bc.PeriodicOffset(a, b, out)
		return
	}
	for d := range a {
		out[d] = a[d] - b[d]
	}
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
