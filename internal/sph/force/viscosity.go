// Package force implements the three fluid-force formulations (SSPH,
// DISPH, GSPH) sharing artificial viscosity, artificial conductivity,
// and symmetrized kernel gradients (spec §4.6).
//
// Grounded on internal/physics/sph.go's pairwise force-loop shape
// (density/pressure precompute, then a neighbor loop accumulating
// acceleration and energy rate), generalized from one formulation to
// three.
package force

import "math"

// AVConfig bundles the artificial-viscosity parameters from the
// parameter bundle's SSPH/DISPH sub-bundle (spec §6).
type AVConfig struct {
	Alpha              float64
	Beta               float64 // defaults to 2*Alpha when zero, Monaghan convention
	UseBalsara         bool
	UseTimeDependent   bool
	AlphaMin, AlphaMax float64
	EpsilonDecay       float64
	ArtificialCond     float64 // alpha_AC; zero disables artificial conductivity
}

func (c AVConfig) beta() float64 {
	if c.Beta != 0 {
		return c.Beta
	}
	return 2 * c.Alpha
}

// EffectiveBeta exposes the effective Monaghan beta (defaulting to
// 2*Alpha) to callers outside this package, e.g. the timestep
// controller's Courant bound.
func (c AVConfig) EffectiveBeta() float64 { return c.beta() }

// signalVelocity returns v_sig = c_i + c_j - beta*mu_ij for an
// approaching pair (mu_ij < 0), else the non-approaching branch value
// is irrelevant since Pi_ij is zero.
func signalVelocity(ci, cj, mu, beta float64) float64 {
	return ci + cj - beta*mu
}

// Viscosity computes the signal-velocity artificial viscosity term
// Pi_ij (spec §4.6): positive for approaching pairs and zero otherwise, scaled by
// the Balsara switch when enabled.
func Viscosity(cfg AVConfig, alphaI, alphaJ float64, posSep, velDiff []float64, ci, cj, rhoBar float64, balsaraI, balsaraJ float64) float64 {
	dot := 0.0
	for d := range posSep {
		dot += velDiff[d] * posSep[d]
	}
	if dot >= 0 {
		return 0
	}
	r := norm(posSep)
	if r <= 1e-12 {
		return 0
	}
	mu := dot / r
	beta := cfg.beta()
	vsig := signalVelocity(ci, cj, mu, beta)
	alpha := 0.5 * (alphaI + alphaJ)
	pi := -alpha * vsig * mu / rhoBar

	if cfg.UseBalsara {
		pi *= 0.5 * (balsaraI + balsaraJ)
	}
	return pi
}

// Conductivity computes the artificial-conductivity energy-rate term
// alpha_AC * v_sig * (u_i - u_j) / rhoBar (spec §4.6, optional).
func Conductivity(cfg AVConfig, ui, uj, ci, cj, rhoBar float64) float64 {
	if cfg.ArtificialCond == 0 {
		return 0
	}
	vsig := ci + cj
	return cfg.ArtificialCond * vsig * (ui - uj) / rhoBar
}

// EvolveAlpha integrates the time-dependent artificial-viscosity alpha
// ODE for one particle: alpha drives toward AlphaMax on compression
// (divV < 0) and decays toward AlphaMin at rate epsilon*c/h otherwise,
// clamped to [AlphaMin, AlphaMax] (spec §4.6).
func EvolveAlpha(cfg AVConfig, alpha, divV, c, h, dt float64) float64 {
	if !cfg.UseTimeDependent {
		return alpha
	}
	var source float64
	if divV < 0 {
		source = -divV * (cfg.AlphaMax - alpha)
	}
	decay := cfg.EpsilonDecay * c / h * (alpha - cfg.AlphaMin)
	alphaNew := alpha + dt*(source-decay)
	return clamp(alphaNew, cfg.AlphaMin, cfg.AlphaMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
