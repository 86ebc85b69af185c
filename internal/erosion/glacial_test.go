package erosion

import (
	"math"
	"testing"

	"terraingen/internal/tilemap"
)

func TestRunGlacialWarmClimateNeverAccumulatesIce(t *testing.T) {
	n := 8
	bedrock := tilemap.NewFilled[float32](n, n, 1000)
	temperature := tilemap.NewFilled[float32](n, n, 25) // well above glaciation threshold everywhere
	hardness := tilemap.NewFilled[float32](n, n, 0.3)

	cfg := GlacialConfig{
		Timesteps:             20,
		Dt:                    1,
		IceDeformCoefficient:  1,
		IceSlidingCoefficient: 1,
		ErosionCoefficient:    1,
		GlenExponent:          3,
		GlaciationTemperature: 0,
	}

	before := make([]float32, len(bedrock.Data))
	copy(before, bedrock.Data)

	stats, err := RunGlacial(bedrock, temperature, hardness, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEroded != 0 {
		t.Fatalf("a warm climate that never nucleates ice should erode nothing, got %v", stats.TotalEroded)
	}
	for i := range bedrock.Data {
		if bedrock.Data[i] != before[i] {
			t.Fatalf("bedrock changed at index %d with no ice ever present: %v -> %v", i, before[i], bedrock.Data[i])
		}
	}
}

func TestRunGlacialColdClimateProducesFiniteBedrock(t *testing.T) {
	n := 8
	bedrock := tilemap.New[float32](n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			bedrock.Set(x, y, float32(2000+50*y))
		}
	}
	temperature := tilemap.NewFilled[float32](n, n, -20) // well below glaciation threshold
	hardness := tilemap.NewFilled[float32](n, n, 0.3)

	cfg := GlacialConfig{
		Timesteps:             10,
		Dt:                    1,
		IceDeformCoefficient:  1,
		IceSlidingCoefficient: 1,
		ErosionCoefficient:    1,
		GlenExponent:          3,
		GlaciationTemperature: 0,
	}

	_, err := RunGlacial(bedrock, temperature, hardness, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range bedrock.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("glacial erosion produced a non-finite bedrock height: %v", f)
		}
		if f < -6000 || f > 6000 {
			t.Fatalf("glacial erosion breached the clamp: %v", f)
		}
	}
}

func TestRunGlacialRespectsSeaLevelFloorOnBasalErosion(t *testing.T) {
	n := 6
	bedrock := tilemap.NewFilled[float32](n, n, 15) // barely above the MinRiverHeight floor
	temperature := tilemap.NewFilled[float32](n, n, -30)
	hardness := tilemap.NewFilled[float32](n, n, 0.0) // soft rock, maximal erosion pressure

	cfg := GlacialConfig{
		Timesteps:             30,
		Dt:                    1,
		IceDeformCoefficient:  1,
		IceSlidingCoefficient: 1,
		ErosionCoefficient:    10,
		GlenExponent:          3,
		GlaciationTemperature: 0,
	}

	_, err := RunGlacial(bedrock, temperature, hardness, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range bedrock.Data {
		if float64(v) < MinRiverHeight-1e-6 {
			t.Fatalf("basal erosion dropped bedrock below the sea-level floor: %v", v)
		}
	}
}
