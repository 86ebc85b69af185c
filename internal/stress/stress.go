// Package stress implements S2: velocity-driven boundary stress. Boundary
// cells get a convergent/divergent signal from the relative velocity of
// neighboring plates; interior cells are zero (§4.3).
package stress

import (
	"math"

	"terraingen/internal/plates"
	"terraingen/internal/tilemap"
)

// Compute produces the stress field from a plate_id grid and the plate
// table. Values are clipped to [-1, 1]; positive is convergent (pressing
// together), negative divergent (pulling apart).
func Compute(ids *tilemap.Tilemap[uint16], plateTable []plates.Plate) *tilemap.Field {
	out := tilemap.New[float32](ids.W, ids.H)

	for y := 0; y < ids.H; y++ {
		for x := 0; x < ids.W; x++ {
			self := ids.Get(x, y)
			var sum float64
			count := 0
			for _, nb := range ids.Neighbor8(x, y) {
				other := ids.Get(nb.X, nb.Y)
				if other == self {
					continue
				}
				sum += boundaryContribution(x, y, nb.X, nb.Y, ids.W, plateTable[self], plateTable[other])
				count++
			}
			if count == 0 {
				continue // interior cell: stays 0
			}
			v := sum / float64(count)
			out.Set(x, y, float32(clip(v, -1, 1)))
		}
	}
	return out
}

// boundaryContribution computes -(Δv · n̂) for one differing neighbor,
// where n̂ is the unit vector from (x,y) toward the neighbor (accounting
// for horizontal wrap when choosing the shorter direction across the
// seam), and Δv = v[other] - v[self].
func boundaryContribution(x, y, nx, ny, w int, self, other plates.Plate) float64 {
	dx := nx - x
	// Pick the shorter wrap-aware direction across the date line.
	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	dy := ny - y

	mag := math.Hypot(float64(dx), float64(dy))
	if mag == 0 {
		return 0
	}
	nhx, nhy := float64(dx)/mag, float64(dy)/mag

	dvx := float64(other.Velocity[0]) - float64(self.Velocity[0])
	dvy := float64(other.Velocity[1]) - float64(self.Velocity[1])

	return -(dvx*nhx + dvy*nhy)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Smooth applies exactly maxIterations Jacobi diffusion sweeps over every
// cell. Spec §4.3 permits — but does not require — a soft diffusion pass;
// it must be deterministic, which a fixed iteration count and a pure
// average-of-neighbors update satisfy.
func Smooth(field *tilemap.Field, maxIterations int) *tilemap.Field {
	cur := field
	for i := 0; i < maxIterations; i++ {
		next := tilemap.New[float32](cur.W, cur.H)
		for y := 0; y < cur.H; y++ {
			for x := 0; x < cur.W; x++ {
				var sum float64
				for _, nb := range cur.Neighbor8(x, y) {
					sum += float64(cur.Get(nb.X, nb.Y))
				}
				avg := (sum/8 + float64(cur.Get(x, y))) / 2
				next.Set(x, y, float32(clip(avg, -1, 1)))
			}
		}
		cur = next
	}
	return cur
}
