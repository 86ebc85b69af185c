// Package climate computes the temperature and moisture overlays (§4.5a),
// using a latitude-band-plus-lapse-rate model recast for a flat cylinder
// instead of a sphere: latitude becomes row distance from the equator row,
// and altitude above sea level becomes max(0, height).
package climate

import (
	"math"

	"terraingen/internal/noise"
	"terraingen/internal/tilemap"
)

const (
	equatorTemperature = 30.0   // T_equator, degrees C
	lapseRate          = 6.5e-3 // degrees C per meter of elevation above sea level
)

// Temperature computes T(x,y) = T_equator - |lat(y)|*T_latitude_gradient -
// max(0, height)*lapse_rate, with T_latitude_gradient = 60/H degrees per row
// from the equator row (H/2).
func Temperature(height *tilemap.Field) *tilemap.Field {
	w, h := height.W, height.H
	out := tilemap.New[float32](w, h)
	gradient := 60.0 / float64(h)
	equatorRow := float64(h) / 2.0

	for y := 0; y < h; y++ {
		lat := math.Abs(float64(y) - equatorRow)
		for x := 0; x < w; x++ {
			elevation := math.Max(0, float64(height.Get(x, y)))
			t := equatorTemperature - lat*gradient - elevation*lapseRate
			out.Set(x, y, float32(t))
		}
	}
	return out
}

// prevailingWindDX is the direction moisture travels inland from the ocean,
// west to east, matching the +x convention used throughout the pipeline.
const prevailingWindDX = 1

// Moisture derives a windward/leeward shader (§4.5a): a Perlin base (the
// teacher's moisture formula in climate_generator.go, unchanged) depleted by
// the cumulative orographic rise encountered marching upwind from the
// nearest ocean cell, and partially restored on the descending (leeward)
// side. Ocean cells themselves read as fully saturated.
func Moisture(height *tilemap.Field, n *noise.Generator) *tilemap.Field {
	w, h := height.W, height.H
	out := tilemap.New[float32](w, h)

	for y := 0; y < h; y++ {
		deficit := 0.0
		prevHeight := math.Max(0, float64(height.Get(0, y)))
		for step := 0; step < w; step++ {
			x := step
			elevation := math.Max(0, float64(height.Get(x, y)))

			if height.Get(x, y) <= 0 {
				deficit = 0 // crossing open water resets the rain shadow
			} else {
				rise := elevation - prevHeight
				if rise > 0 {
					deficit += rise * 0.0006 // orographic lift strips moisture climbing a slope
				} else {
					deficit += rise * 0.0002 // descending air recovers some moisture, more slowly
				}
				deficit = clamp01(deficit)
			}
			prevHeight = elevation

			base := (n.Noise2D(float64(x)*0.05, float64(y)*0.05) + 1.0) / 2.0
			moisture := clamp01(base - deficit*0.7)
			if height.Get(x, y) <= 0 {
				moisture = 1.0
			}
			out.Set(x, y, float32(moisture))
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
