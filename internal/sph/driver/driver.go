// Grounded on internal/sim/simulator.go's Run loop (config validation,
// per-step metric/observer hooks, NaN/Inf state check, energy-drift
// bookkeeping), generalized from a single dynamics system to the
// multi-phase SPH step spec §4.1/§5 describes:
// predict -> regenerate_ghosts -> build_tree -> sync_cache_from_real
// -> pre_interaction -> sync_cache_after_density -> fluid_force ->
// gravity -> correct -> wrap_periodic.
package driver

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dynsim/internal/sph/boundary"
	"github.com/san-kum/dynsim/internal/sph/diag"
	"github.com/san-kum/dynsim/internal/sph/errs"
	"github.com/san-kum/dynsim/internal/sph/force"
	"github.com/san-kum/dynsim/internal/sph/gravity"
	"github.com/san-kum/dynsim/internal/sph/kernel"
	"github.com/san-kum/dynsim/internal/sph/params"
	"github.com/san-kum/dynsim/internal/sph/particle"
	"github.com/san-kum/dynsim/internal/sph/solver"
	"github.com/san-kum/dynsim/internal/sph/timestep"
	"github.com/san-kum/dynsim/internal/sph/tree"
)

// Logger receives step-level progress and non-fatal warnings. The
// teacher stack has no structured logging dependency anywhere in the
// pack (every repo reaches for plain fmt), so Driver's default Logger
// does the same rather than importing one for its own sake (see
// DESIGN.md).
type Logger interface {
	Printf(format string, args ...any)
}

type stdLogger struct{}

func (stdLogger) Printf(format string, args ...any) { fmt.Printf(format+"\n", args...) }

// Report is returned by Run: final state summary plus the full energy
// history, used both for the P3 energy-drift test and for the
// asciigraph sparkline Summary renders.
type Report struct {
	StepsTaken    int
	FinalTime     float64
	EnergyHistory []float64
	Convergence   solver.ConvergenceSummary
}

// Summary renders an asciigraph sparkline of the total-energy history;
// cmd/dynsim prints it in its summary panel.
func (r Report) Summary() string {
	if len(r.EnergyHistory) < 2 {
		return "(insufficient samples for energy plot)"
	}
	return asciigraph.Plot(r.EnergyHistory, asciigraph.Height(10), asciigraph.Caption("total energy"))
}

// Driver owns every long-lived subsystem for one run: the ghost
// manager, tree, solver, force evaluator, optional gravity evaluator,
// and the reusable search-universe cache.
type Driver struct {
	bundle params.Bundle
	kern   kernel.Kernel

	ghosts   *boundary.Manager
	tr       *tree.Tree
	sv       *solver.Solver
	fe       *force.Evaluator
	grav     *gravity.Evaluator
	universe *particle.SearchParticles

	sink   OutputSink
	logger Logger
}

// New assembles every subsystem from a validated Bundle (spec §6).
func New(bundle params.Bundle, real *particle.RealParticles, sink OutputSink, logger Logger) *Driver {
	if logger == nil {
		logger = stdLogger{}
	}

	k := kernel.New(bundle.Base.Kernel, bundle.Base.Dim)

	var gm *boundary.Manager
	if bundle.Base.Boundary != nil {
		gm = boundary.NewManager(*bundle.Base.Boundary, bundle.Base.Dim)
	}

	sv := solver.New(solver.Config{
		Dim: bundle.Base.Dim, Kernel: k, Formulation: bundle.Formulation,
		Gamma: bundle.Base.Gamma, NeighborNumber: bundle.Base.NeighborNumber,
		Delta: bundle.Base.Delta, MaxIter: bundle.Base.MaxIter, Tolerance: bundle.Base.Tolerance,
		Boundary: bundle.Base.Boundary, SearchFactor: bundle.Base.SearchFactor,
	})

	fe := force.New(force.Config{
		Dim: bundle.Base.Dim, Kernel: k, Formulation: bundle.Formulation,
		Gamma: bundle.Base.Gamma, AV: bundle.AV, Riemann: bundle.Riemann,
		Boundary: bundle.Base.Boundary, NeighborNumber: bundle.Base.NeighborNumber,
		SearchFactor: bundle.Base.SearchFactor,
	})

	var grav *gravity.Evaluator
	if bundle.Base.Gravity != nil {
		grav = gravity.New(*bundle.Base.Gravity, bundle.Base.Dim)
	}

	leafCap, maxLevel := bundle.Base.LeafCapacity, bundle.Base.MaxTreeLevel
	if leafCap <= 0 {
		leafCap = 8
	}
	if maxLevel <= 0 {
		maxLevel = 32
	}

	return &Driver{
		bundle:   bundle,
		kern:     k,
		ghosts:   gm,
		tr:       tree.New(bundle.Base.Dim, leafCap, maxLevel),
		sv:       sv,
		fe:       fe,
		grav:     grav,
		universe: particle.NewSearchParticles(real),
		sink:     sink,
		logger:   logger,
	}
}

// Run executes the full predictor/corrector loop until Duration is
// reached, reporting energy and particle snapshots at the configured
// cadence (spec §4.1). It returns on the first fatal StepError
// (BoundaryViolation, NumericInstability); non-fatal errors
// (ConvergenceFailure, NeighborTruncation, TreeOverflow) are logged
// and the run continues (spec §7).
func (d *Driver) Run(real *particle.RealParticles, dt0 float64) (Report, error) {
	report := Report{}
	t := 0.0
	dt := dt0
	step := 0

	nextParticleOut := 0.0
	nextEnergyOut := 0.0

	d.setup(real)

	for t < d.bundle.Base.Duration {
		convergence, err := d.stepOnce(real, &t, &dt, step)
		report.Convergence = report.Convergence.Merge(convergence)
		if err != nil {
			var se *errs.StepError
			if asStepError(err, &se) && errs.Fatal(se.Kind) {
				return report, err
			}
			d.logger.Printf("step %d: %v", step, err)
		}

		step++
		report.StepsTaken = step
		report.FinalTime = t

		if t+1e-12 >= nextEnergyOut {
			e := d.energySnapshot(real)
			report.EnergyHistory = append(report.EnergyHistory, e.Total)
			if d.sink != nil {
				if err := d.sink.WriteEnergy(step, t, e); err != nil {
					d.logger.Printf("write energy failed: %v", err)
				}
			}
			nextEnergyOut = t + d.bundle.Base.EnergyOutputInterval
			if d.bundle.Base.EnergyOutputInterval <= 0 {
				nextEnergyOut = d.bundle.Base.Duration + 1
			}
		}

		if d.sink != nil && d.bundle.Base.ParticleOutputInterval > 0 && t+1e-12 >= nextParticleOut {
			if err := d.sink.WriteParticles(step, t, real); err != nil {
				d.logger.Printf("write particles failed: %v", err)
			}
			nextParticleOut = t + d.bundle.Base.ParticleOutputInterval
		}
	}

	return report, nil
}

// setup performs the one-time initial pass (spec §4.1 "initial
// conditions must be run through one full pre-interaction and force
// pass before the first output"): ghosts, tree, density, and an
// initial force evaluation that seeds Accel for the first predictor.
// The first step uses the dt0 passed to Run as given; no Courant bound
// is computed from the initial state.
func (d *Driver) setup(real *particle.RealParticles) {
	d.regenerateAndBuild(real)
	d.sv.Run(real, d.universe, d.tr)
	d.universe.SyncFromReal(real)
	d.ghosts2Sync(real)
	d.fe.Evaluate(real, d.universe, d.tr)
	if d.grav != nil {
		d.grav.Evaluate(real)
	}
}

func (d *Driver) ghosts2Sync(real *particle.RealParticles) {
	if d.ghosts != nil {
		d.ghosts.UpdateGhosts(real, d.universe)
	}
}

func (d *Driver) regenerateAndBuild(real *particle.RealParticles) {
	if d.ghosts != nil {
		d.ghosts.RegenerateGhosts(real, d.universe, func(i int) float64 {
			return d.kern.SupportRadius(real.At(i).SmoothingLength)
		})
	} else {
		d.universe.Reset(real)
	}
	d.tr.Build(d.universe)
}

// stepOnce runs exactly one predictor/corrector cycle in the phase
// order spec §5 specifies.
func (d *Driver) stepOnce(real *particle.RealParticles, t *float64, dt *float64, step int) (solver.ConvergenceSummary, error) {
	h := *dt

	// predict: explicit half-step kick on velocity and position using
	// the previous step's acceleration (leapfrog KDK predictor, spec
	// §4.1); a full higher-order integrator is unnecessary once the
	// force pass itself resolves the stiff physics through the
	// Riemann/AV terms.
	n := real.Len()
	dim := d.bundle.Base.Dim
	for i := 0; i < n; i++ {
		p := real.At(i)
		for axis := 0; axis < dim; axis++ {
			p.Velocity[axis] += 0.5 * h * p.Accel[axis]
			p.Position[axis] += h * p.Velocity[axis]
		}
	}

	d.regenerateAndBuild(real)

	d.universe.SyncFromReal(real)

	convergence := d.sv.Run(real, d.universe, d.tr)

	// sync_cache_after_density: the solver wrote density/h/grad-h
	// directly into the real array (invariant I3), so the universe's
	// real-prefix and every ghost's derived state need refreshing
	// before the fluid-force pass reads either.
	d.universe.SyncFromReal(real)
	d.ghosts2Sync(real)

	result := d.fe.Evaluate(real, d.universe, d.tr)

	if d.grav != nil {
		d.grav.Evaluate(real)
	}

	// correct: second half-kick with the freshly computed acceleration,
	// energy update from the force pass's energy rate, and time-
	// dependent AV alpha evolution.
	for i := 0; i < n; i++ {
		p := real.At(i)
		for axis := 0; axis < dim; axis++ {
			p.Velocity[axis] += 0.5 * h * p.Accel[axis]
		}
		p.Energy += h * result.EnergyRate[i]
		if p.Energy < 0 {
			p.Energy = 0
		}
		p.AVAlpha = force.EvolveAlpha(d.bundle.AV, p.AVAlpha, p.DivV, p.SoundSpeed, p.SmoothingLength, h)
		if !p.IsFinite() {
			return convergence, &errs.StepError{Step: step, Time: *t, Kind: errs.ErrNumericInstability,
				Context: map[string]any{"particle_id": p.ID}}
		}
	}

	if d.ghosts != nil {
		d.ghosts.WrapPeriodic(real)
		for i := 0; i < n; i++ {
			if !d.ghosts.InBounds(real.At(i).Position) {
				return convergence, &errs.StepError{Step: step, Time: *t, Kind: errs.ErrBoundaryViolation,
					Context: map[string]any{"particle_id": real.At(i).ID}}
			}
		}
	}

	divLookup := timestep.DivergenceLookup(func(i int) float64 { return real.At(i).DivV })
	// The output bound passed is t + EnergyOutputInterval, so dt never
	// exceeds that interval; steps are not shortened to land exactly on
	// scheduled output times.
	*dt = timestep.Compute(real, d.bundle.Base.CFL, divLookup, d.bundle.AV.EffectiveBeta(), d.bundle.Base.EnergyOutputInterval+*t, *t)
	*t += h

	if convergence.FailedCount > 0 {
		return convergence, &errs.StepError{Step: step, Time: *t, Kind: errs.ErrConvergenceFailure,
			Context: map[string]any{"failed_count": convergence.FailedCount, "worst_residual": convergence.WorstResidual}}
	}
	return convergence, nil
}

func (d *Driver) energySnapshot(real *particle.RealParticles) diag.Energy {
	pot := 0.0
	if d.grav != nil {
		n := real.Len()
		for i := 0; i < n; i++ {
			pot += real.At(i).Potential
		}
		pot *= 0.5
	}
	return diag.ComputeEnergy(real, pot)
}

func asStepError(err error, out **errs.StepError) bool {
	se, ok := err.(*errs.StepError)
	if ok {
		*out = se
	}
	return ok
}
