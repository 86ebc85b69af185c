// Package heightmap implements S3: the base heightmap assembled from plate
// elevation, boundary stress, and low-frequency continental-shelf noise
// (§4.4), plus a mountain-collapse safety net ahead of the hard clamp.
package heightmap

import (
	"terraingen/internal/noise"
	"terraingen/internal/plates"
	"terraingen/internal/tilemap"
)

const (
	// KStress lifts convergent boundaries and depresses divergent ones.
	KStress = 3500.0
	// continentalShelfAmplitude bounds noise_low's contribution to a few
	// hundred metres.
	continentalShelfAmplitude = 300.0
	// collapseCeiling is the raw elevation of an Everest-scale peak; the
	// collapse damping maps it exactly onto maxHeight, so the hard
	// [-6000,6000] clamp only cuts raw heights above it.
	collapseCeiling = 8800.0
	minHeight       = -6000.0
	maxHeight       = 6000.0
)

// Base assembles S3's height field.
//
//	height[x,y] = base_elevation[plate] + stress[x,y]*K_stress + noise_low(x,y)
//
// followed by a 3x3 box smoothing pass (1-2 iterations) to soften the
// BFS-sharp plate boundaries, and a mountain-collapse damping pass ahead
// of the hard clamp.
func Base(ids *tilemap.Tilemap[uint16], plateTable []plates.Plate, stressField *tilemap.Field, n *noise.Generator) *tilemap.Field {
	out := tilemap.New[float32](ids.W, ids.H)

	for y := 0; y < ids.H; y++ {
		for x := 0; x < ids.W; x++ {
			plate := plateTable[ids.Get(x, y)]
			s := float64(stressField.Get(x, y))
			lowFreq := n.Noise2D(float64(x)*0.01, float64(y)*0.01) * continentalShelfAmplitude

			h := float64(plate.BaseElevation) + s*KStress + lowFreq
			out.Set(x, y, float32(h))
		}
	}

	smoothed := boxSmooth(out, 2)
	return clampWithCollapse(smoothed)
}

// boxSmooth runs a 3x3 box filter for `iterations` passes.
func boxSmooth(src *tilemap.Field, iterations int) *tilemap.Field {
	cur := src
	for i := 0; i < iterations; i++ {
		next := tilemap.New[float32](cur.W, cur.H)
		for y := 0; y < cur.H; y++ {
			for x := 0; x < cur.W; x++ {
				sum := float64(cur.Get(x, y))
				for _, nb := range cur.Neighbor8(x, y) {
					sum += float64(cur.Get(nb.X, nb.Y))
				}
				next.Set(x, y, float32(sum/9))
			}
		}
		cur = next
	}
	return cur
}

// clampWithCollapse damps elevation approaching the physical ceiling
// (mountain collapse) before the hard [-6000,6000] clamp — extreme
// convergent stress produces a damped approach to the ceiling rather than
// a visible plateau.
func clampWithCollapse(src *tilemap.Field) *tilemap.Field {
	out := tilemap.New[float32](src.W, src.H)
	knee := maxHeight * 0.8
	for i, v := range src.Data {
		h := float64(v)
		if h > knee {
			excess := h - knee
			h = knee + excess*(maxHeight-knee)/(collapseCeiling-knee)
		}
		if h < minHeight {
			h = minHeight
		}
		if h > maxHeight {
			h = maxHeight
		}
		out.Data[i] = float32(h)
	}
	return out
}
