package erosion

import (
	"math"

	"terraingen/internal/tilemap"
)

// MinRiverHeight is the sea-level clamp (§4.5.3.d): no river-carved cell
// may drop below this elevation.
const MinRiverHeight = 0.1

// RiverConfig mirrors the river.* fields of ErosionConfig, already scaled
// for the hires grid by the caller (§4.5.2).
type RiverConfig struct {
	SourceMinAccumulation float64
	SourceMinElevation    float64
	CapacityFactor        float64
	ErosionRate           float64
	DepositionRate        float64
	MaxErosion            float64
	ChannelWidth          int
}

// TraceRivers runs §4.5.3.c-d: detects sources, then walks each downstream
// along D8, carving a V-profile channel with capacity-based
// erosion/deposition, until it reaches the sea, a prior river cell, or
// runs out of downstream neighbors. Mutates height in place and returns
// mass-accounting stats plus the per-source path length (for
// RiverLengths).
func TraceRivers(height, hardness, acc *tilemap.Field, dir *tilemap.Tilemap[uint8], cfg RiverConfig) *Stats {
	stats := &Stats{}
	visited := make([]bool, height.W*height.H)

	sources := findSources(acc, height, cfg)
	for _, src := range sources {
		idx := src[1]*height.W + src[0]
		if visited[idx] {
			continue
		}
		length := traceOne(src[0], src[1], height, hardness, acc, dir, cfg, visited, stats)
		if length > 0 {
			stats.RiverLengths = append(stats.RiverLengths, length)
		}
	}
	return stats
}

func findSources(acc, height *tilemap.Field, cfg RiverConfig) [][2]int {
	var sources [][2]int
	lo, hi := cfg.SourceMinAccumulation, cfg.SourceMinAccumulation*3
	for y := 0; y < height.H; y++ {
		for x := 0; x < height.W; x++ {
			a := float64(acc.Get(x, y))
			if float64(height.Get(x, y)) >= cfg.SourceMinElevation && a >= lo && a < hi {
				sources = append(sources, [2]int{x, y})
			}
		}
	}
	return sources
}

func traceOne(x, y int, height, hardness, acc *tilemap.Field, dir *tilemap.Tilemap[uint8], cfg RiverConfig, visited []bool, stats *Stats) int {
	w, h := height.W, height.H
	sediment := 0.0
	velocity := 1.0
	qSrc := math.Max(float64(acc.Get(x, y)), 1)

	const maxPathLength = 100000 // generous hires-scale bound; real traces terminate long before this
	length := 0

	for step := 0; step < maxPathLength; step++ {
		idx := y*w + x
		if visited[idx] && step > 0 {
			break // confluence with an existing river
		}
		visited[idx] = true
		length++

		curHeight := float64(height.Get(x, y))
		if curHeight < 0 {
			depositDelta(height, x, y, w, h, sediment, stats)
			return length
		}

		d := dir.Get(x, y)
		nx, ny, ok := Downstream(x, y, d, w, h)
		if !ok {
			break // pit: nothing more to trace
		}

		dist := DistanceFor(d)
		nextHeight := float64(height.Get(nx, ny))
		slope := math.Max((curHeight-nextHeight)/dist, 0.001)
		velocity = clampf(1+slope*5, 0.1, 5)

		q := math.Max(float64(acc.Get(x, y)), 1)
		capacity := math.Max(cfg.CapacityFactor*math.Sqrt(q)*slope*velocity, cfg.CapacityFactor*math.Sqrt(q)*0.01)

		if sediment > capacity {
			deposit := (sediment - capacity) * cfg.DepositionRate
			depositAround(height, x, y, w, h, deposit)
			stats.recordDeposition(deposit)
			sediment -= deposit
		} else {
			hrd := float64(hardness.Get(x, y))
			desired := (capacity - sediment) * cfg.ErosionRate * (1 - hrd)
			if desired > cfg.MaxErosion {
				desired = cfg.MaxErosion
			}
			actual := math.Min(desired, math.Max(0, curHeight-MinRiverHeight))
			if actual > 0 {
				carveVProfile(height, x, y, nx, ny, w, h, actual, qSrc, q, cfg)
				stats.recordErosion(actual)
				sediment += actual
			}
		}

		enforceMonotonicDescent(height, x, y, nx, ny)

		x, y = nx, ny
	}
	return length
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// carveVProfile erodes `amount` at (x,y) and applies a quadratic falloff
// across the channel's lateral neighbors (perpendicular to the flow
// direction), widening with discharge per the half_width formula (§4.5.3.d).
func carveVProfile(height *tilemap.Field, x, y, nx, ny, w, h int, amount, qSrc, q float64, cfg RiverConfig) {
	halfWidth := int(clampf(math.Ceil(float64(cfg.ChannelWidth)*math.Sqrt(q/math.Max(qSrc, 1))), 1, 8))

	dx, dy := nx-x, ny-y
	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	// perpendicular direction to (dx,dy)
	px, py := -dy, dx
	mag := math.Hypot(float64(px), float64(py))
	if mag == 0 {
		px, py, mag = 1, 0, 1
	}
	pxf, pyf := float64(px)/mag, float64(py)/mag

	for offset := -halfWidth; offset <= halfWidth; offset++ {
		falloff := math.Max(0, 1-math.Pow(float64(offset)/float64(halfWidth+1), 2))
		if falloff <= 0 {
			continue
		}
		cx := ((x+int(math.Round(pxf*float64(offset))))%w + w) % w
		cy := y + int(math.Round(pyf*float64(offset)))
		if cy < 0 {
			cy = 0
		}
		if cy >= h {
			cy = h - 1
		}
		cur := float64(height.Get(cx, cy))
		eroded := amount * falloff
		next := math.Max(cur-eroded, MinRiverHeight)
		height.Set(cx, cy, float32(next))
	}
}

func depositAround(height *tilemap.Field, x, y, w, h int, amount float64) {
	cur := float64(height.Get(x, y))
	height.Set(x, y, float32(cur+amount*0.6))
	for _, nb := range height.Neighbor4(x, y) {
		v := float64(height.Get(nb.X, nb.Y))
		height.Set(nb.X, nb.Y, float32(v+amount*0.1))
	}
}

// enforceMonotonicDescent re-asserts the §4.5.3.d invariant after carving:
// the downstream cell must end up strictly lower.
func enforceMonotonicDescent(height *tilemap.Field, x, y, nx, ny int) {
	cur := float64(height.Get(x, y))
	next := float64(height.Get(nx, ny))
	if next >= cur-0.05 {
		height.Set(nx, ny, float32(math.Max(cur-0.05, MinRiverHeight)))
	}
}

// depositDelta drops remaining sediment as a radial delta fan at the
// river mouth (§4.5.3.d).
func depositDelta(height *tilemap.Field, x, y, w, h int, sediment float64, stats *Stats) {
	if sediment <= 0 {
		return
	}
	const radius = 4
	var total float64
	weights := make(map[[2]int]float64)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Hypot(float64(dx), float64(dy))
			if r > radius {
				continue
			}
			wgt := math.Max(0, 1-(r/radius)*(r/radius))
			weights[[2]int{dx, dy}] = wgt
			total += wgt
		}
	}
	if total == 0 {
		return
	}
	for d, wgt := range weights {
		cx := ((x+d[0])%w + w) % w
		cy := y + d[1]
		if cy < 0 || cy >= h {
			continue
		}
		share := sediment * wgt / total
		cur := float64(height.Get(cx, cy))
		height.Set(cx, cy, float32(cur+share))
	}
	stats.recordDeposition(sediment)
}

// Meander runs `passes` lateral-erosion passes over high-accumulation
// cells, preferentially eroding the outer bank estimated from local flow
// curvature (§4.5.3.e). Always subject to the sea-level clamp.
func Meander(height, acc *tilemap.Field, dir *tilemap.Tilemap[uint8], passes int, minAcc float64) {
	w, h := height.W, height.H
	for p := 0; p < passes; p++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if float64(acc.Get(x, y)) < minAcc {
					continue
				}
				d := dir.Get(x, y)
				if d == NoFlow {
					continue
				}
				curveX, curveY := outerBankOffset(dir, x, y, w, h)
				if curveX == 0 && curveY == 0 {
					continue
				}
				bx, by := ((x+curveX)%w+w)%w, clampInt(y+curveY, 0, h-1)
				cur := float64(height.Get(bx, by))
				eroded := math.Min(0.3, math.Max(0, cur-MinRiverHeight))
				if eroded > 0 {
					height.Set(bx, by, float32(cur-eroded))
				}
			}
		}
	}
}

// outerBankOffset estimates local channel curvature from the incoming
// vs. outgoing flow direction and returns a unit-ish offset toward the
// outer bank (perpendicular to flow, in the direction curvature points).
func outerBankOffset(dir *tilemap.Tilemap[uint8], x, y, w, h int) (int, int) {
	d := dir.Get(x, y)
	if d == NoFlow {
		return 0, 0
	}
	out := d8Offsets[d]

	// Approximate the incoming direction by checking which neighbor flows
	// into (x,y); fall back to the outgoing direction if none found
	// (headwater cell).
	inDx, inDy := out[0], out[1]
	for i, off := range d8Offsets {
		nx := ((x-off[0])%w + w) % w
		ny := clampInt(y-off[1], 0, h-1)
		if int(dir.Get(nx, ny)) == i {
			inDx, inDy = off[0], off[1]
			break
		}
	}

	curveX := out[0] - inDx
	curveY := out[1] - inDy
	if curveX == 0 && curveY == 0 {
		return 0, 0
	}
	// Perpendicular to the average flow direction, pointing toward the
	// outer bank.
	return -curveY, curveX
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
