package terraingen

import (
	"fmt"

	"dario.cat/mergo"

	"terraingen/internal/xerrors"
)

// WorldConfig is the sole input to GenerateWorld (§6).
type WorldConfig struct {
	Width  int // default 512; must satisfy Height < Width <= 8192
	Height int // default 256

	Seed int64 // deterministic PRNG seed

	// PlateCount is the requested plate count. Zero means "draw from
	// U[6,15] using Seed" (spec's Option<u32> == None).
	PlateCount int

	Erosion ErosionConfig

	// SimulationScale is the hires upscale factor f. Must be 1, 2, or 4.
	SimulationScale int

	EnableClimate bool

	// Budget, if non-zero, is a wall-clock ceiling on the erosion batching
	// loop (§7 BudgetExceeded). Zero means unbounded.
	Budget int64 // nanoseconds; 0 = no budget

	// Progress, if non-nil, is invoked after each 10,000-droplet batch when
	// Budget is non-zero, and once at the end of the run when a non-fatal
	// warning occurred; it is not invoked at the other stage boundaries.
	// Never drives control flow.
	Progress ProgressFunc
}

// DefaultWorldConfig returns spec's documented defaults.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Width:           512,
		Height:          256,
		PlateCount:      0,
		Erosion:         PresetNormal.Config(),
		SimulationScale: 4,
		EnableClimate:   true,
	}
}

// Preset names a tuned ErosionConfig bundle (§6).
type Preset int

const (
	PresetNone Preset = iota
	PresetMinimal
	PresetNormal
	PresetDramatic
	PresetRealistic
)

// Config returns the preset's baseline ErosionConfig.
func (p Preset) Config() ErosionConfig {
	switch p {
	case PresetNone:
		return ErosionConfig{} // everything disabled, all-zero: see Validate
	case PresetMinimal:
		c := defaultErosionConfig()
		c.HydraulicIterations = 50_000
		c.DropletMaxSteps = 100
		c.GlacialTimesteps = 100
		return c
	case PresetDramatic:
		c := defaultErosionConfig()
		c.HydraulicIterations = 750_000
		c.DropletMaxSteps = 750
		c.GlacialTimesteps = 750
		return c
	case PresetRealistic:
		c := defaultErosionConfig()
		c.HydraulicIterations = 1_000_000
		c.DropletMaxSteps = 1000
		c.GlacialTimesteps = 1000
		return c
	default: // PresetNormal
		return defaultErosionConfig()
	}
}

// ErosionConfig is every S5 tunable, with its spec-documented default
// (§6). A caller typically starts from a Preset and overrides a handful of
// fields; zero-valued fields in a caller-supplied ErosionConfig are filled
// from the preset baseline via ApplyPreset.
type ErosionConfig struct {
	EnableRivers    bool
	EnableHydraulic bool
	EnableGlacial   bool

	HydraulicIterations int // droplet count, at output resolution
	DropletInertia       float64
	DropletCapacityFactor float64
	DropletErosionRate    float64
	DropletDepositRate    float64
	DropletEvaporation    float64
	DropletMinVolume      float64
	DropletMaxSteps       int
	DropletErosionRadius  int
	DropletGravity        float64

	GlacialTimesteps       int
	GlacialDt              float64
	IceDeformCoefficient   float64
	IceSlidingCoefficient  float64
	ErosionCoefficient     float64
	GlenExponent           float64
	GlaciationTemperature  float64

	RiverSourceMinAccumulation float64
	RiverSourceMinElevation    float64
	RiverCapacityFactor        float64
	RiverErosionRate           float64
	RiverDepositionRate        float64
	RiverMaxErosion            float64
	RiverChannelWidth          int
}

func defaultErosionConfig() ErosionConfig {
	return ErosionConfig{
		EnableRivers:    true,
		EnableHydraulic: true,
		EnableGlacial:   true,

		HydraulicIterations:   750_000,
		DropletInertia:        0.3,
		DropletCapacityFactor: 10.0,
		DropletErosionRate:    0.05,
		DropletDepositRate:    0.2,
		DropletEvaporation:    0.001,
		DropletMinVolume:      0.01,
		DropletMaxSteps:       3000,
		DropletErosionRadius:  3,
		DropletGravity:        8.0,

		GlacialTimesteps:      500,
		GlacialDt:             100.0,
		IceDeformCoefficient:  1e-7,
		IceSlidingCoefficient: 5e-4,
		ErosionCoefficient:    1e-4,
		GlenExponent:          3.0,
		GlaciationTemperature: -3.0,

		RiverSourceMinAccumulation: 15.0,
		RiverSourceMinElevation:    100.0,
		RiverCapacityFactor:        20.0,
		RiverErosionRate:           0.5,
		RiverDepositionRate:        0.5,
		RiverMaxErosion:            30.0,
		RiverChannelWidth:          2,
	}
}

// ApplyPreset overlays cfg onto preset's baseline, filling only cfg's
// zero-valued fields via dario.cat/mergo.
func ApplyPreset(cfg ErosionConfig, preset Preset) (ErosionConfig, error) {
	baseline := preset.Config()
	if err := mergo.Merge(&cfg, baseline); err != nil {
		return cfg, fmt.Errorf("apply preset: %w", err)
	}
	return cfg, nil
}

// Validate checks WorldConfig against §7's InvalidConfig rules, returning
// a *xerrors.GenError (Code == InvalidConfig) describing the first
// violation found.
func (c WorldConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return xerrors.NewInvalidConfig("width and height must be positive")
	}
	if c.Height >= c.Width {
		return xerrors.NewInvalidConfig(fmt.Sprintf("height (%d) must be < width (%d)", c.Height, c.Width))
	}
	if c.Width > 8192 {
		return xerrors.NewInvalidConfig(fmt.Sprintf("width (%d) exceeds maximum 8192", c.Width))
	}
	if c.SimulationScale != 1 && c.SimulationScale != 2 && c.SimulationScale != 4 {
		return xerrors.NewInvalidConfig(fmt.Sprintf("simulation_scale (%d) must be 1, 2, or 4", c.SimulationScale))
	}
	if c.PlateCount < 0 {
		return xerrors.NewInvalidConfig("plate_count must not be negative")
	}
	return c.Erosion.Validate()
}

// Validate checks ErosionConfig against §7's InvalidConfig rules.
func (e ErosionConfig) Validate() error {
	if e.HydraulicIterations < 0 {
		return xerrors.NewInvalidConfig("hydraulic_iterations must not be negative")
	}
	if e.DropletMaxSteps < 0 {
		return xerrors.NewInvalidConfig("droplet_max_steps must not be negative")
	}
	if e.DropletErosionRadius < 0 {
		return xerrors.NewInvalidConfig("droplet_erosion_radius must not be negative")
	}
	if e.GlacialTimesteps < 0 {
		return xerrors.NewInvalidConfig("glacial_timesteps must not be negative")
	}
	if e.GlaciationTemperature < -50 || e.GlaciationTemperature > 50 {
		return xerrors.NewInvalidConfig("glaciation_temperature must be within [-50, 50]")
	}
	for name, v := range map[string]float64{
		"droplet_inertia":         e.DropletInertia,
		"droplet_capacity_factor": e.DropletCapacityFactor,
		"droplet_erosion_rate":    e.DropletErosionRate,
		"droplet_deposit_rate":    e.DropletDepositRate,
		"droplet_evaporation":     e.DropletEvaporation,
		"droplet_min_volume":      e.DropletMinVolume,
		"droplet_gravity":         e.DropletGravity,
		"glacial_dt":              e.GlacialDt,
		"river_capacity_factor":   e.RiverCapacityFactor,
		"river_erosion_rate":      e.RiverErosionRate,
		"river_deposition_rate":   e.RiverDepositionRate,
		"river_max_erosion":       e.RiverMaxErosion,
	} {
		if v < 0 {
			return xerrors.NewInvalidConfig(fmt.Sprintf("%s must not be negative", name))
		}
	}
	return nil
}
