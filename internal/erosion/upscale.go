package erosion

import (
	"terraingen/internal/noise"
	"terraingen/internal/tilemap"
)

// ScaledSourceMinAccumulation applies §4.5.2's hires parameter scaling to a river
// source threshold: area-based thresholds scale by f^2 x 0.25 (denser
// network than raw area scaling).
func ScaledSourceMinAccumulation(base float64, f int) float64 {
	return base * float64(f*f) * 0.25
}

// ScaledDropletMaxSteps scales the step budget by f (path lengths scale
// linearly with resolution).
func ScaledDropletMaxSteps(base int, f int) int {
	return base * f
}

// ScaledDropletRadius clamps the erosion brush radius to <=1 at hires, for
// sharp channels.
func ScaledDropletRadius(base int) int {
	if base > 1 {
		return 1
	}
	return base
}

// Upscale performs §4.5.1: bilinear upsample by factor f with additive
// slope-biased roughness noise, then a Gaussian blur to melt interpolation
// ridges that would otherwise lock rivers into parallel tracks.
func Upscale(src *tilemap.Field, factor int, n *noise.Generator, roughnessAmplitude float64, blurRadius int) *tilemap.Field {
	up := tilemap.UpscaleBilinear(src, factor, n, roughnessAmplitude)
	return tilemap.GaussianBlur(up, blurRadius)
}

// Downscale performs §4.5.6's variance-gated reduction back to output
// resolution.
func Downscale(src *tilemap.Field, factor int, varianceThreshold float64) *tilemap.Field {
	return tilemap.DownscalePreserveRivers(src, factor, varianceThreshold)
}
