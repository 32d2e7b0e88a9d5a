package force

import (
	"math"

	"github.com/san-kum/dynsim/internal/sph/particle"
)

// gsphPair implements the Godunov-SPH pairwise force (spec §4.6): a
// 1-D Riemann problem is constructed along the line joining i and j,
// optionally with MUSCL+Van-Leer reconstruction, and the resulting
// star-state pressure/velocity replace the arithmetic averages used
// by SSPH/DISPH. This is what lets GSPH drop explicit artificial
// viscosity in favor of Riemann dissipation; velDiff/gradWi/gradWj
// are still passed in so the bracket has the same shape as the other
// two formulations' pair functions.
func (e *Evaluator) gsphPair(p, nb *particle.Particle, sep []float64, r float64, velDiff []float64, gradWi, gradWj float64) float64 {
	dim := e.cfg.Dim
	unit := make([]float64, dim)
	for d := 0; d < dim; d++ {
		unit[d] = sep[d] / r
	}

	vLeftNormal := dot(p.Velocity, unit)
	vRightNormal := dot(nb.Velocity, unit)

	rhoL, pL, vL := p.Density, p.Pressure, vLeftNormal
	rhoR, pR, vR := nb.Density, nb.Pressure, vRightNormal

	if e.cfg.Riemann.UseMUSCL && p.GradRho != nil && nb.GradRho != nil {
		half := r / 2
		rhoL += vanLeerLimit(p.GradRho, unit) * half
		pL += vanLeerLimit(p.GradP, unit) * half
		vL += vanLeerLimit(p.GradV, unit) * half
		rhoR -= vanLeerLimit(nb.GradRho, unit) * half
		pR -= vanLeerLimit(nb.GradP, unit) * half
		vR -= vanLeerLimit(nb.GradV, unit) * half
	}

	pStar, vStar := hllSolve(e.cfg.Gamma, rhoL, pL, vL, rhoR, pR, vR)
	_ = vStar // star velocity used for contact tracking in a full MUSCL scheme; not needed by the pressure-bracket form used here

	// Replace the arithmetic pressure averages with the star pressure,
	// symmetrized across both kernel gradients (spec §4.6: "use those
	// star-state values instead of arithmetic averages").
	termI := pStar / (p.Density * p.Density)
	termJ := pStar / (nb.Density * nb.Density)
	return nb.Mass * (termI*gradWi + termJ*gradWj)
}

// vanLeerLimit projects a per-dimension gradient onto the unit
// separation vector and applies a Van Leer slope limiter against the
// raw gradient magnitude, damping the linear reconstruction near
// extrema (spec §4.6, glossary "MUSCL / Van-Leer limiter").
func vanLeerLimit(grad []float64, unit []float64) float64 {
	raw := dot(grad, unit)
	mag := norm(grad)
	if mag <= 1e-300 {
		return 0
	}
	r := raw / mag
	limiter := (r + math.Abs(r)) / (1 + math.Abs(r))
	return raw * limiter
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for d := range a {
		sum += a[d] * b[d]
	}
	return sum
}

// hllSolve is a two-wave HLL approximate Riemann solver for the 1-D
// Euler equations along the pair's normal direction, returning the
// star-state pressure and velocity (spec §4.6).
func hllSolve(gamma, rhoL, pL, vL, rhoR, pR, vR float64) (pStar, vStar float64) {
	cL := math.Sqrt(gamma * math.Max(pL, 1e-300) / math.Max(rhoL, 1e-300))
	cR := math.Sqrt(gamma * math.Max(pR, 1e-300) / math.Max(rhoR, 1e-300))

	sL := math.Min(vL-cL, vR-cR)
	sR := math.Max(vL+cL, vR+cR)

	if sL >= 0 {
		return pL, vL
	}
	if sR <= 0 {
		return pR, vR
	}

	// HLL star-state pressure from the momentum-flux jump condition.
	numerator := rhoR*vR*(sR-vR) - rhoL*vL*(sL-vL) + pL - pR
	denom := sR - sL
	if denom == 0 {
		return 0.5 * (pL + pR), 0.5 * (vL + vR)
	}
	pStar = (numerator + sR*sL*(rhoL-rhoR)) / denom
	if pStar < 0 {
		pStar = 0
	}
	vStar = (sR*rhoR*vR - sL*rhoL*vL + pL - pR) / (sR*rhoR - sL*rhoL + 1e-300)
	return
}
