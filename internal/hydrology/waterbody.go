// Package hydrology implements §4.6-4.7: water body classification via
// BFS flood fill (the same multi-source queue pattern the plate solver
// uses) and structured river network extraction.
package hydrology

import (
	"fmt"

	"github.com/google/uuid"

	"terraingen/internal/erosion"
	"terraingen/internal/tilemap"
)

// BodyKind distinguishes the water bodies a cell can belong to.
type BodyKind uint8

const (
	None BodyKind = iota
	Ocean
	Lake
)

func (k BodyKind) String() string {
	switch k {
	case Ocean:
		return "ocean"
	case Lake:
		return "lake"
	default:
		return "none"
	}
}

// namespaceBody is the fixed namespace UUID under which every water body's
// ID is deterministically derived (uuid.NewSHA1), so that re-running
// Classify with the same seed and terrain reproduces the exact same IDs —
// required by the pipeline's bit-identical-rerun contract, which a random
// v4 UUID per run would violate.
var namespaceBody = uuid.MustParse("6e6f9b8b-2b0a-4b7e-9e2a-9b3b7a2d6f10")

func deriveBodyID(seed int64, discoveryIndex int) uuid.UUID {
	return uuid.NewSHA1(namespaceBody, []byte(fmt.Sprintf("%d:body:%d", seed, discoveryIndex)))
}

// Body records the aggregate stats §4.6.3 asks for per lake/ocean.
type Body struct {
	ID                 uuid.UUID
	Kind               BodyKind
	TileCount          int
	MinElevation       float64
	MaxElevation       float64
	MeanElevation      float64
	BBoxMinX, BBoxMinY int
	BBoxMaxX, BBoxMaxY int
	TouchesNorthEdge   bool
	TouchesSouthEdge   bool
}

const candidateEps = 1e-4

func isCandidate(waterLevel, height float64) bool {
	return waterLevel > height+candidateEps || height <= 0
}

// Classify runs §4.6's water body detection: an ocean flood BFS seeded from
// water-candidate cells touching the north/south edges with height<=0,
// followed by a lake BFS over the remaining candidates, with the
// polar-sea reclassification rule (a lake touching both edges with
// min elevation <= 0 becomes ocean). seed is used only to derive stable,
// reproducible body IDs; it never affects which cells join which body.
func Classify(height, waterLevel *tilemap.Field, seed int64) (*tilemap.Tilemap[uuid.UUID], []Body) {
	w, h := height.W, height.H
	label := tilemap.NewFilled[int32](w, h, 0) // 0 = unlabeled sentinel, bodies labeled from 1

	visited := make([]bool, w*h)

	var bodies []Body
	nextLabel := int32(1)
	discoveryIndex := 0

	// Ocean flood: seed from every water-candidate cell on the north/south
	// edge rows with height <= 0.
	oceanQueue := make([][2]int, 0)
	for x := 0; x < w; x++ {
		for _, y := range []int{0, h - 1} {
			if height.Get(x, y) <= 0 && isCandidate(float64(waterLevel.Get(x, y)), float64(height.Get(x, y))) {
				idx := y*w + x
				if !visited[idx] {
					visited[idx] = true
					oceanQueue = append(oceanQueue, [2]int{x, y})
				}
			}
		}
	}
	if len(oceanQueue) > 0 {
		l := nextLabel
		nextLabel++
		body := flood(height, waterLevel, label, visited, oceanQueue, l, Ocean, w, h, true)
		body.ID = deriveBodyID(seed, discoveryIndex)
		discoveryIndex++
		bodies = append(bodies, body)
	}

	// Lake detection over remaining unlabeled candidates.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] {
				continue
			}
			if !isCandidate(float64(waterLevel.Get(x, y)), float64(height.Get(x, y))) {
				continue
			}
			l := nextLabel
			nextLabel++
			body := flood(height, waterLevel, label, visited, [][2]int{{x, y}}, l, Lake, w, h, false)
			body.ID = deriveBodyID(seed, discoveryIndex)
			discoveryIndex++
			bodies = append(bodies, body)
		}
	}

	// Polar-sea reclassification: a lake touching both edges with
	// min elevation <= 0 is really an ocean arm.
	for i := range bodies {
		b := &bodies[i]
		if b.Kind == Lake && b.TouchesNorthEdge && b.TouchesSouthEdge && b.MinElevation <= 0 {
			b.Kind = Ocean
		}
	}

	// Translate internal sequential labels to the public UUID grid.
	idByLabel := make(map[int32]uuid.UUID, len(bodies)+1)
	for i, b := range bodies {
		idByLabel[int32(i+1)] = b.ID
	}
	bodyID := tilemap.New[uuid.UUID](w, h)
	for i, l := range label.Data {
		if l == 0 {
			continue
		}
		bodyID.Data[i] = idByLabel[l]
	}

	return bodyID, bodies
}

// flood is the shared 4-connected wrap-aware BFS used for both the ocean
// seed set and individual lake components; oceanRule restricts expansion to
// height<=0 candidates (§4.6.2), while lake expansion accepts any
// water-candidate cell (§4.6.3).
func flood(height, waterLevel *tilemap.Field, label *tilemap.Tilemap[int32], visited []bool, seeds [][2]int, l int32, kind BodyKind, w, h int, oceanRule bool) Body {
	queue := append([][2]int{}, seeds...)
	body := Body{
		Kind:         kind,
		MinElevation: float64(height.Get(seeds[0][0], seeds[0][1])),
		MaxElevation: float64(height.Get(seeds[0][0], seeds[0][1])),
		BBoxMinX:     seeds[0][0], BBoxMinY: seeds[0][1],
		BBoxMaxX: seeds[0][0], BBoxMaxY: seeds[0][1],
	}
	var elevSum float64

	head := 0
	for head < len(queue) {
		cur := queue[head]
		head++
		x, y := cur[0], cur[1]
		idx := y*w + x

		elev := float64(height.Get(x, y))
		label.Data[idx] = l
		body.TileCount++
		elevSum += elev
		if elev < body.MinElevation {
			body.MinElevation = elev
		}
		if elev > body.MaxElevation {
			body.MaxElevation = elev
		}
		if x < body.BBoxMinX {
			body.BBoxMinX = x
		}
		if x > body.BBoxMaxX {
			body.BBoxMaxX = x
		}
		if y < body.BBoxMinY {
			body.BBoxMinY = y
		}
		if y > body.BBoxMaxY {
			body.BBoxMaxY = y
		}
		if y == 0 {
			body.TouchesNorthEdge = true
		}
		if y == h-1 {
			body.TouchesSouthEdge = true
		}

		for _, nb := range height.Neighbor4(x, y) {
			nIdx := nb.Y*w + nb.X
			if visited[nIdx] {
				continue
			}
			if oceanRule && height.Get(nb.X, nb.Y) > 0 {
				continue
			}
			if !isCandidate(float64(waterLevel.Get(nb.X, nb.Y)), float64(height.Get(nb.X, nb.Y))) {
				continue
			}
			visited[nIdx] = true
			queue = append(queue, [2]int{nb.X, nb.Y})
		}
	}

	body.MeanElevation = elevSum / float64(body.TileCount)
	return body
}

// RiverTiles marks §4.6.4's river overlay: dry land cells (not a water
// candidate, height >= the sea-level clamp) with flow_acc >= threshold.
// Rivers sit on top of the land grid, distinct from the water-body
// classification.
func RiverTiles(height, waterLevel, flowAcc *tilemap.Field, threshold float64) *tilemap.Tilemap[bool] {
	w, h := height.W, height.H
	out := tilemap.New[bool](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if isCandidate(float64(waterLevel.Get(x, y)), float64(height.Get(x, y))) {
				continue
			}
			if float64(height.Get(x, y)) < erosion.MinRiverHeight {
				continue
			}
			if float64(flowAcc.Get(x, y)) >= threshold {
				out.Set(x, y, true)
			}
		}
	}
	return out
}

// WaterDepth computes max(0, water_level - height) per cell.
func WaterDepth(height, waterLevel *tilemap.Field) *tilemap.Field {
	w, h := height.W, height.H
	out := tilemap.New[float32](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float64(waterLevel.Get(x, y)) - float64(height.Get(x, y))
			if d < 0 {
				d = 0
			}
			out.Set(x, y, float32(d))
		}
	}
	return out
}
