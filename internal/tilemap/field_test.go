package tilemap

import (
	"math"
	"testing"

	"terraingen/internal/noise"
)

func TestUpscalePreservesCornerValues(t *testing.T) {
	src := New[float32](4, 4)
	src.Fill(100.0)
	n := noise.New(1)
	// zero roughness amplitude -> pure bilinear, corners must hold
	dst := UpscaleBilinear(src, 4, n, 0)
	if dst.W != 16 || dst.H != 16 {
		t.Fatalf("got %dx%d, want 16x16", dst.W, dst.H)
	}
	if v := dst.Get(0, 0); math.Abs(float64(v)-100) > 1e-6 {
		t.Fatalf("corner sample = %v, want ~100", v)
	}
}

func TestGaussianBlurSmoothsSpike(t *testing.T) {
	src := New[float32](9, 9)
	src.Set(4, 4, 100)
	blurred := GaussianBlur(src, 2)
	if blurred.Get(4, 4) >= src.Get(4, 4) {
		t.Fatal("blur should reduce the spike's peak value")
	}
	if blurred.Get(4, 4) <= 0 {
		t.Fatal("blur should spread some value around the spike")
	}
}

func TestDownscalePreserveRiversPicksMinOnHighVariance(t *testing.T) {
	// A 4x4 hires block: mostly 100, one carved channel at -50.
	src := New[float32](4, 4)
	src.Fill(100)
	src.Set(0, 0, -50)

	dst := DownscalePreserveRivers(src, 4, 15)
	if dst.W != 1 || dst.H != 1 {
		t.Fatalf("got %dx%d, want 1x1", dst.W, dst.H)
	}
	if dst.Get(0, 0) != -50 {
		t.Fatalf("high-variance block should downscale to its minimum, got %v", dst.Get(0, 0))
	}
}

func TestDownscalePreserveRiversPicksMeanOnLowVariance(t *testing.T) {
	src := New[float32](2, 2)
	src.Fill(10)
	dst := DownscalePreserveRivers(src, 2, 15)
	if dst.Get(0, 0) != 10 {
		t.Fatalf("uniform block should downscale to its mean, got %v", dst.Get(0, 0))
	}
}
