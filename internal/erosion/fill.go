package erosion

import (
	"math"

	"terraingen/internal/tilemap"
)

const fillEpsilon = 1e-4

// Fill runs Planchon-Darboux depression filling (§4.5.3.f): water_level
// starts at terrain for ocean cells, +Inf elsewhere, then alternating
// forward/backward raster sweeps lower each cell to max(terrain, min
// neighbor level + ε) until a full pass causes no change.
func Fill(height *tilemap.Field) *tilemap.Field {
	w, h := height.W, height.H
	level := tilemap.New[float32](w, h)
	hasOcean := false
	minX, minY, minV := 0, 0, float32(math.Inf(1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := height.Get(x, y)
			if v < minV {
				minV, minX, minY = v, x, y
			}
			if v < 0 {
				hasOcean = true
				level.Set(x, y, v)
			} else {
				level.Set(x, y, float32(math.Inf(1)))
			}
		}
	}
	// A domain with no cell below sea level has no anchor to drain toward;
	// without one every cell converges to +Inf instead of its own terrain.
	// Anchor on the global minimum so the fill still terminates at a finite,
	// flat plateau.
	if !hasOcean {
		level.Set(minX, minY, minV)
	}

	for {
		changedFwd := sweep(height, level, false)
		changedBwd := sweep(height, level, true)
		if !changedFwd && !changedBwd {
			break
		}
	}
	return level
}

func sweep(height, level *tilemap.Field, reverse bool) bool {
	w, h := height.W, height.H
	changed := false

	yRange := rangeOf(h, reverse)
	xRange := rangeOf(w, reverse)

	for _, y := range yRange {
		for _, x := range xRange {
			terrain := float64(height.Get(x, y))
			cur := float64(level.Get(x, y))
			if cur <= terrain {
				continue
			}
			m := math.Inf(1)
			for _, nb := range level.Neighbor8(x, y) {
				nv := float64(level.Get(nb.X, nb.Y))
				if nv < m {
					m = nv
				}
			}
			newLevel := math.Max(terrain, m+fillEpsilon)
			if newLevel < cur {
				level.Set(x, y, float32(newLevel))
				changed = true
			}
		}
	}
	return changed
}

func rangeOf(n int, reverse bool) []int {
	out := make([]int, n)
	if reverse {
		for i := 0; i < n; i++ {
			out[i] = n - 1 - i
		}
	} else {
		for i := 0; i < n; i++ {
			out[i] = i
		}
	}
	return out
}
