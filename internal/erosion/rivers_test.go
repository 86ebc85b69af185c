package erosion

import (
	"testing"

	"terraingen/internal/tilemap"
)

func rampConfig() RiverConfig {
	return RiverConfig{
		SourceMinAccumulation: 1,
		SourceMinElevation:    0,
		CapacityFactor:        1.0,
		ErosionRate:           0.5,
		DepositionRate:        0.5,
		MaxErosion:            2.0,
		ChannelWidth:          1,
	}
}

// buildRamp makes a strictly descending ramp, three identical rows deep,
// from a high-elevation source down to below sea level at the far end, so
// a source at x=0 always has somewhere to drain to.
func buildRamp(n int) *tilemap.Field {
	h := tilemap.New[float32](n, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < n; x++ {
			h.Set(x, y, float32(50-10*x))
		}
	}
	return h
}

func TestTraceRiversCarvesMonotonicDescent(t *testing.T) {
	height := buildRamp(8)
	hardness := tilemap.NewFilled[float32](8, 3, 0.3)

	dir := ComputeD8(height)
	acc := FlowAccumulation(height, dir)

	cfg := rampConfig()
	stats := TraceRivers(height, hardness, acc, dir, cfg)
	_ = stats

	for x := 0; x < 7; x++ {
		d := dir.Get(x, 1)
		nx, ny, ok := Downstream(x, 1, d, 8, 3)
		if !ok {
			continue
		}
		if float64(height.Get(nx, ny)) > float64(height.Get(x, 1)) {
			t.Fatalf("downstream cell (%d,%d) is higher than (%d,1) after carving", nx, ny, x)
		}
	}
}

func TestTraceRiversRespectsSeaLevelClamp(t *testing.T) {
	height := buildRamp(8)
	hardness := tilemap.NewFilled[float32](8, 3, 0.0) // soft rock, max erosion pressure

	dir := ComputeD8(height)
	acc := FlowAccumulation(height, dir)

	cfg := rampConfig()
	cfg.MaxErosion = 1000 // try to force below the clamp
	cfg.ErosionRate = 1.0

	// The ramp's far end starts below sea level; the clamp bounds how far
	// carving lowers a cell, so check every cell that tracing lowered.
	before := make([]float32, len(height.Data))
	copy(before, height.Data)

	TraceRivers(height, hardness, acc, dir, cfg)

	for i, v := range height.Data {
		if v < before[i] && float64(v) < MinRiverHeight-1e-6 {
			t.Fatalf("river carving breached the sea-level clamp: %v -> %v", before[i], v)
		}
	}
}

func TestFindSourcesRequiresMinimumAccumulationAndElevation(t *testing.T) {
	acc := tilemap.New[float32](4, 1)
	height := tilemap.New[float32](4, 1)
	acc.Set(0, 0, 100) // too much accumulation (already a major river, not a source)
	acc.Set(1, 0, 2)   // within [lo, hi)
	height.Set(1, 0, 5)
	acc.Set(2, 0, 2)
	height.Set(2, 0, -5) // below minimum elevation, excluded

	cfg := RiverConfig{SourceMinAccumulation: 1, SourceMinElevation: 0}
	sources := findSources(acc, height, cfg)

	found := map[[2]int]bool{}
	for _, s := range sources {
		found[s] = true
	}
	if found[[2]int{0, 0}] {
		t.Fatal("cell with accumulation above the source band should not be a source")
	}
	if !found[[2]int{1, 0}] {
		t.Fatal("cell within the source band and above minimum elevation should be a source")
	}
	if found[[2]int{2, 0}] {
		t.Fatal("cell below minimum elevation should not be a source")
	}
}

func TestTraceRiversDepositsDeltaAtOcean(t *testing.T) {
	n := 6
	height := tilemap.New[float32](n, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < n; x++ {
			height.Set(x, y, float32(20-5*x)) // crosses below zero near x=4
		}
	}
	hardness := tilemap.NewFilled[float32](n, 3, 0.3)
	dir := ComputeD8(height)
	acc := FlowAccumulation(height, dir)

	before := make([]float32, len(height.Data))
	copy(before, height.Data)

	cfg := rampConfig()
	TraceRivers(height, hardness, acc, dir, cfg)

	raised := false
	for i := range height.Data {
		if before[i] < 0 && height.Data[i] > before[i] {
			raised = true
			break
		}
	}
	if !raised {
		t.Fatal("expected river tracing to deposit a delta that raises a below-sea-level cell")
	}
}

func TestMeanderStaysWithinSeaLevelClamp(t *testing.T) {
	height := buildRamp(8)
	dir := ComputeD8(height)
	acc := FlowAccumulation(height, dir)

	// As above, the ramp starts below sea level at its far end: check every
	// cell the meander pass lowered.
	before := make([]float32, len(height.Data))
	copy(before, height.Data)

	Meander(height, acc, dir, 5, 0)

	for i, v := range height.Data {
		if v < before[i] && float64(v) < MinRiverHeight-1e-6 {
			t.Fatalf("meander pass breached the sea-level clamp: %v -> %v", before[i], v)
		}
	}
}

func TestMeanderNoOpWhenThresholdUnreachable(t *testing.T) {
	height := buildRamp(8)
	dir := ComputeD8(height)
	acc := FlowAccumulation(height, dir)

	before := make([]float32, len(height.Data))
	copy(before, height.Data)

	Meander(height, acc, dir, 3, 1e9) // no cell can reach this accumulation

	for i := range height.Data {
		if height.Data[i] != before[i] {
			t.Fatalf("meander altered height at index %d despite an unreachable threshold", i)
		}
	}
}
