// Package params builds the immutable parameter Bundle the driver runs
// with, through a type-staged builder: Base holds the fields every
// formulation needs, and one of SSPHBuilder/DISPHBuilder/GSPHBuilder
// adds the formulation-specific sub-bundle before Build() validates
// cross-field constraints and returns a Bundle.
//
// Grounded on internal/config/config.go's Load/Save/DefaultConfig
// shape for the YAML surface (same gopkg.in/yaml.v3 dependency), and
// on internal/config.Config's flat fields-then-validate pattern,
// generalized into a staged builder since the per-formulation
// sub-bundles (spec §6) cannot be validated until the formulation is
// chosen.
package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynsim/internal/sph/boundary"
	"github.com/san-kum/dynsim/internal/sph/errs"
	"github.com/san-kum/dynsim/internal/sph/force"
	"github.com/san-kum/dynsim/internal/sph/gravity"
	"github.com/san-kum/dynsim/internal/sph/kernel"
	"github.com/san-kum/dynsim/internal/sph/solver"
	"github.com/san-kum/dynsim/internal/sph/timestep"
)

// Base holds every field shared across formulations (spec §6).
type Base struct {
	Dim            int
	Kernel         kernel.Name
	Gamma          float64
	NeighborNumber int
	Delta          float64
	MaxIter        int
	Tolerance      float64
	SearchFactor   int

	Boundary *boundary.Config

	Gravity        *gravity.Config // nil disables gravity
	CFL            timestep.Config
	LeafCapacity   int
	MaxTreeLevel   int

	ParticleOutputInterval float64
	EnergyOutputInterval   float64
	Duration               float64
}

// Bundle is the immutable, validated result of a builder's Build().
type Bundle struct {
	Base        Base
	Formulation solver.Formulation
	AV          force.AVConfig
	Riemann     force.RiemannConfig
}

// Builder is the shared staged-build interface every formulation
// builder satisfies; driver code that only needs the final Bundle can
// take a Builder rather than a concrete *SSPHBuilder/etc.
type Builder interface {
	Build() (Bundle, error)
}

// SSPHBuilder stages the density-energy formulation's AV sub-bundle on
// top of Base.
type SSPHBuilder struct {
	base Base
	av   force.AVConfig
}

func NewSSPHBuilder(base Base) *SSPHBuilder { return &SSPHBuilder{base: base} }

func (b *SSPHBuilder) WithAV(av force.AVConfig) *SSPHBuilder {
	b.av = av
	return b
}

func (b *SSPHBuilder) Build() (Bundle, error) {
	bundle := Bundle{Base: b.base, Formulation: solver.SSPH, AV: b.av}
	return bundle, validate(bundle)
}

// DISPHBuilder stages the pressure-energy formulation; same AV
// sub-bundle shape as SSPH (spec §6), different force-pass semantics.
type DISPHBuilder struct {
	base Base
	av   force.AVConfig
}

func NewDISPHBuilder(base Base) *DISPHBuilder { return &DISPHBuilder{base: base} }

func (b *DISPHBuilder) WithAV(av force.AVConfig) *DISPHBuilder {
	b.av = av
	return b
}

func (b *DISPHBuilder) Build() (Bundle, error) {
	bundle := Bundle{Base: b.base, Formulation: solver.DISPH, AV: b.av}
	return bundle, validate(bundle)
}

// GSPHBuilder stages the Riemann-solver sub-bundle; GSPH carries no AV
// sub-bundle (dissipation comes from the Riemann solve itself, spec
// §4.6) but does carry MUSCL reconstruction options.
type GSPHBuilder struct {
	base    Base
	riemann force.RiemannConfig
}

func NewGSPHBuilder(base Base) *GSPHBuilder { return &GSPHBuilder{base: base} }

func (b *GSPHBuilder) WithRiemann(r force.RiemannConfig) *GSPHBuilder {
	b.riemann = r
	return b
}

func (b *GSPHBuilder) Build() (Bundle, error) {
	bundle := Bundle{Base: b.base, Formulation: solver.GSPH, Riemann: b.riemann}
	return bundle, validate(bundle)
}

// validate checks cross-field constraints that can only be enforced
// once the full bundle exists (spec §7 ConfigurationError).
func validate(b Bundle) error {
	if b.Base.Dim < 1 || b.Base.Dim > 3 {
		return fmt.Errorf("%w: dim must be 1, 2, or 3, got %d", errs.ErrConfiguration, b.Base.Dim)
	}
	if b.Base.Gamma <= 1.0 {
		return fmt.Errorf("%w: gamma must exceed 1.0, got %f", errs.ErrConfiguration, b.Base.Gamma)
	}
	if b.Base.NeighborNumber < 1 {
		return fmt.Errorf("%w: neighbor_number must be positive", errs.ErrConfiguration)
	}
	if b.Base.Boundary != nil && len(b.Base.Boundary.Dims) != b.Base.Dim {
		return fmt.Errorf("%w: boundary dims (%d) must match simulation dim (%d)", errs.ErrConfiguration, len(b.Base.Boundary.Dims), b.Base.Dim)
	}
	if b.Formulation == solver.GSPH && b.AV.Alpha != 0 {
		return fmt.Errorf("%w: GSPH does not take an artificial-viscosity alpha, dissipation comes from the Riemann solve", errs.ErrConfiguration)
	}
	if b.Base.Gravity != nil && b.Base.Gravity.Theta <= 0 {
		return fmt.Errorf("%w: gravity theta must be positive", errs.ErrConfiguration)
	}
	return nil
}

// RunConfig is the on-disk YAML schema loaded by the cmd/dynsim run
// command, mirroring internal/config.Config's flat-fields-plus-Load
// shape but scoped to the SPH engine's own parameters.
type RunConfig struct {
	Dim            int     `yaml:"dim"`
	Kernel         string  `yaml:"kernel"`
	Formulation    string  `yaml:"formulation"`
	Gamma          float64 `yaml:"gamma"`
	NeighborNumber int     `yaml:"neighbor_number"`
	Delta          float64 `yaml:"delta"`
	MaxIter        int     `yaml:"max_iter"`
	Tolerance      float64 `yaml:"tolerance"`
	SearchFactor   int     `yaml:"search_factor"`
	LeafCapacity   int     `yaml:"leaf_capacity"`
	MaxTreeLevel   int     `yaml:"max_tree_level"`

	Duration               float64 `yaml:"duration"`
	ParticleOutputInterval float64 `yaml:"particle_output_interval"`
	EnergyOutputInterval   float64 `yaml:"energy_output_interval"`

	AV      AVYAML      `yaml:"artificial_viscosity"`
	Riemann RiemannYAML `yaml:"riemann"`
	Gravity *GravityYAML `yaml:"gravity"`

	CFL struct {
		SoundCoefficient float64 `yaml:"sound_coefficient"`
		ForceCoefficient float64 `yaml:"force_coefficient"`
	} `yaml:"cfl"`
}

type AVYAML struct {
	Alpha            float64 `yaml:"alpha"`
	Beta             float64 `yaml:"beta"`
	UseBalsara       bool    `yaml:"use_balsara"`
	UseTimeDependent bool    `yaml:"use_time_dependent"`
	AlphaMin         float64 `yaml:"alpha_min"`
	AlphaMax         float64 `yaml:"alpha_max"`
	EpsilonDecay     float64 `yaml:"epsilon_decay"`
	ArtificialCond   float64 `yaml:"artificial_conductivity"`
}

type RiemannYAML struct {
	UseMUSCL bool `yaml:"use_muscl"`
}

type GravityYAML struct {
	G            float64 `yaml:"g"`
	Theta        float64 `yaml:"theta"`
	LeafCapacity int     `yaml:"leaf_capacity"`
	MaxLevel     int     `yaml:"max_level"`
}

// DefaultRunConfig mirrors internal/config.DefaultConfig: every field
// a reasonable simulation can start from without a YAML file.
func DefaultRunConfig() *RunConfig {
	rc := &RunConfig{
		Dim:                    2,
		Kernel:                 string(kernel.CubicSpline),
		Formulation:            "ssph",
		Gamma:                  1.4,
		NeighborNumber:         50,
		MaxIter:                12,
		Tolerance:              1e-4,
		SearchFactor:           20,
		LeafCapacity:           8,
		MaxTreeLevel:           32,
		Duration:               1.0,
		ParticleOutputInterval: 0.1,
		EnergyOutputInterval:   0.01,
	}
	rc.AV = AVYAML{Alpha: 1.0, Beta: 2.0, UseBalsara: true}
	rc.CFL.SoundCoefficient = 0.3
	rc.CFL.ForceCoefficient = 0.125
	return rc
}

func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rc := DefaultRunConfig()
	if err := yaml.Unmarshal(data, rc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfiguration, err)
	}
	return rc, nil
}

// Build constructs a validated Bundle from the on-disk config, picking
// the builder that matches Formulation.
func (rc *RunConfig) Build(boundaryCfg *boundary.Config) (Bundle, error) {
	base := Base{
		Dim:                    rc.Dim,
		Kernel:                 kernel.Name(rc.Kernel),
		Gamma:                  rc.Gamma,
		NeighborNumber:         rc.NeighborNumber,
		Delta:                  rc.Delta,
		MaxIter:                rc.MaxIter,
		Tolerance:              rc.Tolerance,
		SearchFactor:           rc.SearchFactor,
		Boundary:               boundaryCfg,
		LeafCapacity:           rc.LeafCapacity,
		MaxTreeLevel:           rc.MaxTreeLevel,
		CFL:                    timestep.Config{SoundCoefficient: rc.CFL.SoundCoefficient, ForceCoefficient: rc.CFL.ForceCoefficient},
		ParticleOutputInterval: rc.ParticleOutputInterval,
		EnergyOutputInterval:   rc.EnergyOutputInterval,
		Duration:               rc.Duration,
	}
	if rc.Gravity != nil {
		base.Gravity = &gravity.Config{
			G: rc.Gravity.G, Theta: rc.Gravity.Theta,
			LeafCapacity: rc.Gravity.LeafCapacity, MaxLevel: rc.Gravity.MaxLevel,
		}
	}

	av := force.AVConfig{
		Alpha: rc.AV.Alpha, Beta: rc.AV.Beta,
		UseBalsara: rc.AV.UseBalsara, UseTimeDependent: rc.AV.UseTimeDependent,
		AlphaMin: rc.AV.AlphaMin, AlphaMax: rc.AV.AlphaMax,
		EpsilonDecay: rc.AV.EpsilonDecay, ArtificialCond: rc.AV.ArtificialCond,
	}

	switch rc.Formulation {
	case "disph":
		return NewDISPHBuilder(base).WithAV(av).Build()
	case "gsph":
		return NewGSPHBuilder(base).WithRiemann(force.RiemannConfig{UseMUSCL: rc.Riemann.UseMUSCL}).Build()
	default:
		return NewSSPHBuilder(base).WithAV(av).Build()
	}
}
