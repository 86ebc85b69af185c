// Package erosion implements S5, the terrain pipeline's main algorithmic
// body: D8 flow routing, Planchon-Darboux depression filling, river
// tracing with V-profile carving and meander passes, batched hydraulic
// droplet erosion, and Shallow-Ice-Approximation glacial erosion, all on
// a 4x-upscaled hires working grid (§4.5).
package erosion

import (
	"math"
	"sort"

	"terraingen/internal/tilemap"
)

// NoFlow is the D8 sentinel meaning "no downstream neighbor" (pit or
// ocean sink).
const NoFlow uint8 = 255

// d8Offsets enumerates the 8 neighbor directions in the order flow
// direction values 0..7 index into; even indices are orthogonal (dist 1),
// odd are diagonal (dist sqrt(2)).
var d8Offsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var d8Dist = [8]float64{
	1, math.Sqrt2, 1, math.Sqrt2,
	1, math.Sqrt2, 1, math.Sqrt2,
}

// ComputeD8 chooses, for every cell, the neighbor with the largest
// positive (height-neighbor)/dist; NoFlow if none is strictly lower
// (§4.5.3.a).
func ComputeD8(h *tilemap.Field) *tilemap.Tilemap[uint8] {
	out := tilemap.New[uint8](h.W, h.H)
	for y := 0; y < h.H; y++ {
		for x := 0; x < h.W; x++ {
			cur := float64(h.Get(x, y))
			best := -1
			bestSlope := 0.0
			for i, d := range d8Offsets {
				nx := x + d[0]
				ny := h.ClampY(y + d[1])
				nh := float64(h.Get(nx, ny))
				slope := (cur - nh) / d8Dist[i]
				if slope > bestSlope {
					bestSlope = slope
					best = i
				}
			}
			if best < 0 {
				out.Set(x, y, NoFlow)
			} else {
				out.Set(x, y, uint8(best))
			}
		}
	}
	return out
}

// Downstream resolves the (x,y) a flow-direction code points to, applying
// the grid's wrap-x/clamp-y rule. ok is false for NoFlow.
func Downstream(x, y int, dir uint8, w, h int) (nx, ny int, ok bool) {
	if dir == NoFlow || int(dir) >= len(d8Offsets) {
		return 0, 0, false
	}
	d := d8Offsets[dir]
	nx = ((x+d[0])%w + w) % w
	ny = y + d[1]
	if ny < 0 {
		ny = 0
	}
	if ny >= h {
		ny = h - 1
	}
	return nx, ny, true
}

// DistanceFor returns the D8 step distance (1 or sqrt(2)) for a direction
// code.
func DistanceFor(dir uint8) float64 {
	if int(dir) >= len(d8Dist) {
		return 1
	}
	return d8Dist[dir]
}

// FlowAccumulation processes cells in descending height order, each cell
// contributing its own accumulator (starting at 1) to its downstream
// neighbor, so every cell ends up holding the count of upstream cells
// draining through it (§4.5.3.b). Serial by height rank — the ordering
// itself is the thing that must be bit-identical run to run, so this is
// the reference implementation rather than a row-parallel approximation
// of it.
func FlowAccumulation(h *tilemap.Field, dir *tilemap.Tilemap[uint8]) *tilemap.Field {
	n := h.W * h.H
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return h.Data[order[i]] > h.Data[order[j]]
	})

	acc := tilemap.NewFilled[float32](h.W, h.H, 1)
	for _, idx := range order {
		x := idx % h.W
		y := idx / h.W
		nx, ny, ok := Downstream(x, y, dir.Data[idx], h.W, h.H)
		if !ok {
			continue
		}
		nidx := ny*h.W + nx
		acc.Data[nidx] += acc.Data[idx]
	}
	return acc
}
