package terraingen

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"terraingen/internal/heightmap"
	"terraingen/internal/noise"
	"terraingen/internal/plates"
	"terraingen/internal/stress"
)

// smallConfig is a fast end-to-end config: tiny grid, no upscale, minimal
// erosion budget, so the full pipeline runs in a test-sized amount of work.
func smallConfig(seed int64) WorldConfig {
	cfg := DefaultWorldConfig()
	cfg.Width = 32
	cfg.Height = 16
	cfg.Seed = seed
	cfg.SimulationScale = 1
	cfg.PlateCount = 6
	cfg.Erosion = PresetMinimal.Config()
	cfg.Erosion.HydraulicIterations = 200
	cfg.Erosion.GlacialTimesteps = 5
	return cfg
}

func TestGenerateWorldProducesEveryGrid(t *testing.T) {
	world, err := GenerateWorld(context.Background(), smallConfig(1))
	require.NoError(t, err)
	require.NotNil(t, world)

	require.Equal(t, 32, world.Height.W)
	require.Equal(t, 16, world.Height.H)
	require.Equal(t, 32*16, len(world.Height.Data))
	require.Equal(t, 32*16, len(world.PlateID.Data))
	require.NotEmpty(t, world.Plates)
	require.Equal(t, 32*16, len(world.Hardness.Data))
	require.NotNil(t, world.Temperature)
	require.NotNil(t, world.Moisture)
	require.NotNil(t, world.WaterLevel)
	require.NotNil(t, world.WaterBodyID)
	require.NotNil(t, world.RiverNetwork)
}

func TestGenerateWorldIsDeterministicForTheSameSeed(t *testing.T) {
	w1, err := GenerateWorld(context.Background(), smallConfig(7))
	require.NoError(t, err)
	w2, err := GenerateWorld(context.Background(), smallConfig(7))
	require.NoError(t, err)

	require.Equal(t, w1.Height.Data, w2.Height.Data, "height grid must be bit-identical across reruns of the same seed")
	require.Equal(t, w1.PlateID.Data, w2.PlateID.Data)
	require.Equal(t, w1.WaterBodyID.Data, w2.WaterBodyID.Data, "water body ids must be bit-identical across reruns of the same seed")
}

func TestGenerateWorldDiffersAcrossSeeds(t *testing.T) {
	w1, err := GenerateWorld(context.Background(), smallConfig(1))
	require.NoError(t, err)
	w2, err := GenerateWorld(context.Background(), smallConfig(2))
	require.NoError(t, err)

	require.NotEqual(t, w1.Height.Data, w2.Height.Data)
}

func TestGenerateWorldHonorsClimateDisable(t *testing.T) {
	cfg := smallConfig(3)
	cfg.EnableClimate = false
	world, err := GenerateWorld(context.Background(), cfg)
	require.NoError(t, err)
	require.Nil(t, world.Temperature)
	require.Nil(t, world.Moisture)
}

func TestGenerateWorldRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Width = 4
	cfg.Height = 8 // height >= width
	_, err := GenerateWorld(context.Background(), cfg)
	require.Error(t, err)
}

func TestGenerateWorldHeightStaysWithinHardClamp(t *testing.T) {
	world, err := GenerateWorld(context.Background(), smallConfig(11))
	require.NoError(t, err)
	for _, v := range world.Height.Data {
		require.GreaterOrEqual(t, float64(v), -6000.0)
		require.LessOrEqual(t, float64(v), 6000.0)
	}
}

func TestGenerateWorldWaterBodyIDsAreNilOnlyOffWater(t *testing.T) {
	world, err := GenerateWorld(context.Background(), smallConfig(5))
	require.NoError(t, err)
	for i, id := range world.WaterBodyID.Data {
		if id != uuid.Nil {
			continue
		}
		// Classify labels every water cell, so a cell without an id is dry land.
		h := float64(world.Height.Data[i])
		wl := float64(world.WaterLevel.Data[i])
		require.Greater(t, h, 0.0, "cell %d has no water body id but is at or below sea level", i)
		require.LessOrEqual(t, wl, h+1e-4, "cell %d has no water body id but lies under standing water", i)
	}
}

// TestGenerateWorldNoErosionLeavesHeightUnmodified exercises spec Scenario B
// at the default SimulationScale: with every erosion stage disabled, height
// must equal the base heightmap exactly, not a noisy upscale/downscale
// round trip of it.
func TestGenerateWorldNoErosionLeavesHeightUnmodified(t *testing.T) {
	const seed = 42
	cfg := DefaultWorldConfig()
	cfg.Width = 32
	cfg.Height = 16
	cfg.Seed = seed
	cfg.PlateCount = 6
	cfg.Erosion = PresetNone.Config()
	require.Equal(t, 4, cfg.SimulationScale, "this scenario must exercise the default upscale factor")

	world, err := GenerateWorld(context.Background(), cfg)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(seed))
	n := noise.New(seed)
	plateIDs, plateTable, _ := plates.Generate(rng, cfg.Width, cfg.Height, cfg.PlateCount)
	stressField := stress.Smooth(stress.Compute(plateIDs, plateTable), 1)
	wantHeight := heightmap.Base(plateIDs, plateTable, stressField, n)

	require.Equal(t, wantHeight.Data, world.Height.Data, "erosion=None must leave height equal to the base heightmap exactly")
}

func TestGenerateWorldPropagatesHydraulicCancellation(t *testing.T) {
	// The pipeline itself runs to completion once started (§5: "cancellation
	// not supported"); only the hydraulic droplet batch loop honors ctx,
	// since it is the one stage built to hand off to a GPU path that could
	// legitimately need to bail out of an in-flight batch.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := smallConfig(1)
	cfg.Erosion.EnableHydraulic = true
	cfg.Erosion.HydraulicIterations = 10_000
	_, err := GenerateWorld(ctx, cfg)
	require.Error(t, err)
}
