package terraingen

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"terraingen/internal/climate"
	"terraingen/internal/debug"
	"terraingen/internal/erosion"
	"terraingen/internal/heightmap"
	"terraingen/internal/hydrology"
	"terraingen/internal/logging"
	"terraingen/internal/materials"
	"terraingen/internal/noise"
	"terraingen/internal/plates"
	"terraingen/internal/stress"
	"terraingen/internal/tilemap"
	"terraingen/internal/xerrors"
)

// downscaleVarianceThreshold, dropletBatchSize and the other constants below
// are fixed pipeline constants, not caller-tunable (§6 only exposes the
// ErosionConfig fields it lists).
const (
	downscaleVarianceThreshold = 15.0
	dropletBatchSize           = 10_000
	hiresBlurRadius            = 3
	hiresRoughnessAmplitude    = 20.0
	riverOverlayThreshold      = 50.0
	meanderPasses              = 12
)

// GenerateWorld is the pipeline's single entry point (§6): it runs
// S1 -> S2 -> S3 -> S4 -> S5 (rivers, then hydraulic, then climate, then
// glacial) -> S6 sequentially against config. Two independent
// deterministic sources are drawn from config.Seed: a *rand.Rand for
// plate seeding and droplet spawn/walk randomness, and a separate
// *noise.Generator for all coherent-noise sampling (heightmap
// roughness, hardness modulation, hires upscale roughness, moisture
// shading).
func GenerateWorld(ctx context.Context, config WorldConfig) (*WorldData, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logging.Init(false)
	logger := logging.NewLogger(fmt.Sprintf("seed-%d", config.Seed))

	rng := rand.New(rand.NewSource(config.Seed))
	n := noise.New(config.Seed)

	var progressWarning error
	world := &WorldData{}

	// S1: plate generation.
	s1 := logging.Stage(logger, "S1_plates")
	done := logging.Timed(s1, "S1_plates")
	plateIDs, plateTable, err := plates.Generate(rng, config.Width, config.Height, config.PlateCount)
	done()
	if err != nil {
		if ge, ok := asGenError(err); ok && ge.Code == xerrors.DegenerateTerrain {
			progressWarning = err
			debug.Log(debug.Plates, "plates: %v", err)
		} else {
			return nil, fmt.Errorf("stage S1_plates: %w", err)
		}
	}
	world.PlateID = plateIDs
	world.Plates = plateTable

	// S2: boundary stress.
	s2 := logging.Stage(logger, "S2_stress")
	done = logging.Timed(s2, "S2_stress")
	stressField := stress.Compute(plateIDs, plateTable)
	stressField = stress.Smooth(stressField, 1)
	done()
	world.Stress = stressField

	// S3: base heightmap.
	s3 := logging.Stage(logger, "S3_heightmap")
	done = logging.Timed(s3, "S3_heightmap")
	height := heightmap.Base(plateIDs, plateTable, stressField, n)
	done()

	// S4: hardness.
	s4 := logging.Stage(logger, "S4_materials")
	done = logging.Timed(s4, "S4_materials")
	hardness := materials.Hardness(plateIDs, plateTable, stressField, height, n)
	done()
	world.Hardness = hardness

	// S5: erosion core, operating on a hires working grid.
	s5 := logging.Stage(logger, "S5_erosion")
	s5Done := logging.Timed(s5, "S5_erosion")
	f := config.SimulationScale
	if f < 1 {
		f = 1
	}

	ec := config.Erosion
	var riverStats, hydraulicStats, glacialStats *erosion.Stats

	// With every erosion stage disabled, the hires upscale/downscale round
	// trip has nothing to do and is not an identity transform (Upscale adds
	// roughness noise and a blur; Downscale's variance-gated reduction does
	// not invert that exactly) — skip it so height passes through S5
	// unchanged, matching the no-erosion scenario.
	if !ec.EnableRivers && !ec.EnableHydraulic && !ec.EnableGlacial {
		finalHeight := height.Clone()
		s5Done()
		world.Height = finalHeight
		world.HydraulicStats = hydraulicStats
		world.RiverStats = riverStats
		world.GlacialStats = glacialStats

		if config.EnableClimate {
			world.Temperature = climate.Temperature(finalHeight)
			world.Moisture = climate.Moisture(finalHeight, n)
		}

		return finishHydrology(world, finalHeight, ec, config, logger, progressWarning)
	}

	hiresHeight := upscaleOrClone(height, f, n, hiresRoughnessAmplitude, hiresBlurRadius)
	hiresHardness := upscaleOrClone(hardness, f, n, 0, 0)

	if ec.EnableRivers {
		rlog := logging.Stage(s5, "rivers")
		done = logging.Timed(rlog, "rivers")
		dir := erosion.ComputeD8(hiresHeight)
		acc := erosion.FlowAccumulation(hiresHeight, dir)
		riverCfg := erosion.RiverConfig{
			SourceMinAccumulation: erosion.ScaledSourceMinAccumulation(ec.RiverSourceMinAccumulation, f),
			SourceMinElevation:    ec.RiverSourceMinElevation,
			CapacityFactor:        ec.RiverCapacityFactor,
			ErosionRate:           ec.RiverErosionRate,
			DepositionRate:        ec.RiverDepositionRate,
			MaxErosion:            ec.RiverMaxErosion,
			ChannelWidth:          ec.RiverChannelWidth,
		}
		riverStats = erosion.TraceRivers(hiresHeight, hiresHardness, acc, dir, riverCfg)
		erosion.Meander(hiresHeight, acc, dir, meanderPasses, riverCfg.SourceMinAccumulation)
		done()
	}

	if ec.EnableHydraulic {
		hlog := logging.Stage(s5, "hydraulic")
		done = logging.Timed(hlog, "hydraulic")
		dropletCfg := erosion.DropletConfig{
			Inertia:        ec.DropletInertia,
			CapacityFactor: ec.DropletCapacityFactor,
			ErosionRate:    ec.DropletErosionRate,
			DepositRate:    ec.DropletDepositRate,
			Evaporation:    ec.DropletEvaporation,
			MinVolume:      ec.DropletMinVolume,
			MaxSteps:       erosion.ScaledDropletMaxSteps(ec.DropletMaxSteps, f),
			Radius:         erosion.ScaledDropletRadius(ec.DropletErosionRadius),
			Gravity:        ec.DropletGravity,
		}

		hydraulicStats, world.Truncated, err = runDropletsWithBudget(ctx, hiresHeight, hiresHardness, rng, ec.HydraulicIterations, config.Budget, dropletCfg, config.Progress)
		done()
		if err != nil {
			if ge, ok := asGenError(err); ok && ge.Code == xerrors.BudgetExceeded {
				progressWarning = err
			} else {
				return nil, fmt.Errorf("stage S5_hydraulic: %w", err)
			}
		}
	}

	// S5a: climate, computed after hydraulic/rivers but before glacial —
	// glacial erosion consumes temperature for its mass-balance term.
	hiresTemperature := climate.Temperature(hiresHeight)
	if ec.EnableGlacial {
		glog := logging.Stage(s5, "glacial")
		done = logging.Timed(glog, "glacial")
		glacialCfg := erosion.GlacialConfig{
			Timesteps:             ec.GlacialTimesteps,
			Dt:                     ec.GlacialDt,
			IceDeformCoefficient:   ec.IceDeformCoefficient,
			IceSlidingCoefficient:  ec.IceSlidingCoefficient,
			ErosionCoefficient:     ec.ErosionCoefficient,
			GlenExponent:           ec.GlenExponent,
			GlaciationTemperature:  ec.GlaciationTemperature,
		}
		glacialStats, err = erosion.RunGlacial(hiresHeight, hiresTemperature, hiresHardness, glacialCfg)
		done()
		if err != nil {
			return nil, fmt.Errorf("stage S5_glacial: %w", err)
		}
	}

	// Post-processing (§4.5.6): a final meander pass, then downscale. The
	// depression fill itself runs once at output resolution below, where
	// its result (water_level) is actually consumed by S6 — the same fill
	// at working resolution would have no consumer here, so it's deferred
	// to avoid computing and discarding it twice.
	if ec.EnableRivers {
		postDir := erosion.ComputeD8(hiresHeight)
		postAcc := erosion.FlowAccumulation(hiresHeight, postDir)
		erosion.Meander(hiresHeight, postAcc, postDir, meanderPasses, erosion.ScaledSourceMinAccumulation(ec.RiverSourceMinAccumulation, f))
	}

	finalHeight := erosion.Downscale(hiresHeight, f, downscaleVarianceThreshold)
	s5Done()
	world.Height = finalHeight
	world.HydraulicStats = hydraulicStats
	world.RiverStats = riverStats
	world.GlacialStats = glacialStats

	// S5a output: temperature/moisture are pure functions of the final
	// height field, so the exposed grids are recomputed at output
	// resolution rather than downscaled from the hires working copy.
	if config.EnableClimate {
		world.Temperature = climate.Temperature(finalHeight)
		world.Moisture = climate.Moisture(finalHeight, n)
	}

	return finishHydrology(world, finalHeight, ec, config, logger, progressWarning)
}

// finishHydrology runs S6 (hydrology classification at output resolution)
// and delivers the final progress notice. Shared by the normal S5 path and
// the no-erosion-enabled shortcut, both of which reach it with a finished
// world.Height.
func finishHydrology(world *WorldData, finalHeight *tilemap.Field, ec ErosionConfig, config WorldConfig, logger zerolog.Logger, progressWarning error) (*WorldData, error) {
	s6 := logging.Stage(logger, "S6_hydrology")
	done := logging.Timed(s6, "S6_hydrology")
	outDir := erosion.ComputeD8(finalHeight)
	outAcc := erosion.FlowAccumulation(finalHeight, outDir)
	waterLevel := erosion.Fill(finalHeight)

	bodyID, bodies := hydrology.Classify(finalHeight, waterLevel, config.Seed)
	world.WaterLevel = waterLevel
	world.WaterDepth = hydrology.WaterDepth(finalHeight, waterLevel)
	world.WaterBodyID = bodyID
	world.WaterBodies = bodies
	world.RiverTiles = hydrology.RiverTiles(finalHeight, waterLevel, outAcc, riverOverlayThreshold)

	world.RiverNetwork = hydrology.ExtractNetwork(finalHeight, outAcc, outDir, bodyID,
		ec.RiverSourceMinAccumulation, ec.RiverSourceMinElevation, config.Seed)
	done()

	if progressWarning != nil && config.Progress != nil {
		config.Progress(ProgressEvent{Stage: "pipeline", Warning: progressWarning})
	}

	return world, nil
}

func upscaleOrClone(src *tilemap.Field, f int, n *noise.Generator, roughnessAmplitude float64, blurRadius int) *tilemap.Field {
	if f <= 1 {
		return src.Clone()
	}
	return erosion.Upscale(src, f, n, roughnessAmplitude, blurRadius)
}

// runDropletsWithBudget wraps erosion.RunDroplets with the wall-clock
// budget check (§7 BudgetExceeded): droplets run in the same fixed
// batches either way, but a non-zero config.Budget stops issuing further
// batches once exceeded and reports Truncated instead of an error.
func runDropletsWithBudget(ctx context.Context, height, hardness *tilemap.Field, rng *rand.Rand, count int, budgetNanos int64, cfg erosion.DropletConfig, progress ProgressFunc) (*erosion.Stats, bool, error) {
	if budgetNanos <= 0 {
		stats, err := erosion.RunDroplets(ctx, height, hardness, rng, count, dropletBatchSize, cfg)
		return stats, false, err
	}

	deadline := time.Now().Add(time.Duration(budgetNanos))
	total := &erosion.Stats{}
	remaining := count
	for remaining > 0 {
		if time.Now().After(deadline) {
			return total, true, nil
		}
		batch := dropletBatchSize
		if batch > remaining {
			batch = remaining
		}
		stats, err := erosion.RunDroplets(ctx, height, hardness, rng, batch, dropletBatchSize, cfg)
		if err != nil {
			return total, false, err
		}
		mergeStats(total, stats)
		remaining -= batch
		if progress != nil {
			progress(ProgressEvent{Stage: "S5_hydraulic", Message: fmt.Sprintf("%d droplets remaining", remaining)})
		}
	}
	return total, false, nil
}

// mergeStats folds src's counters into dst. erosion.Stats keeps its own
// merge logic private to the package (it backs droplet batch reduction);
// this is the same fold expressed over the exported fields for the
// orchestrator's budget-loop accumulation.
func mergeStats(dst, src *erosion.Stats) {
	dst.TotalEroded += src.TotalEroded
	dst.TotalDeposited += src.TotalDeposited
	dst.StepsTaken += src.StepsTaken
	dst.Iterations += src.Iterations
	if src.MaxErosion > dst.MaxErosion {
		dst.MaxErosion = src.MaxErosion
	}
	if src.MaxDeposition > dst.MaxDeposition {
		dst.MaxDeposition = src.MaxDeposition
	}
	dst.RiverLengths = append(dst.RiverLengths, src.RiverLengths...)
}

func asGenError(err error) (*xerrors.GenError, bool) {
	ge, ok := err.(*xerrors.GenError)
	return ge, ok
}
