// Package plates implements S1 (plate generation): a multi-source BFS
// flood fill over the world grid from N random seed points, each tagged
// with a kind, base elevation, velocity and display color (§4.2).
package plates

import (
	"fmt"
	"math"
	"math/rand"

	"terraingen/internal/tilemap"
	"terraingen/internal/xerrors"
)

// Kind distinguishes oceanic from continental crust.
type Kind int

const (
	Oceanic Kind = iota
	Continental
)

func (k Kind) String() string {
	if k == Oceanic {
		return "Oceanic"
	}
	return "Continental"
}

// Plate is a single tectonic plate: immutable once produced by Generate.
type Plate struct {
	ID            uint16
	Kind          Kind
	BaseElevation float32
	Velocity      [2]float32
	Color         [3]float32 // RGB in [0,1]
}

const (
	pOceanic         = 0.6
	minVelocityMag   = 0.3
	maxVelocityMag   = 1.5
	oceanicElevLo    = -2500.0
	oceanicElevHi    = -1500.0
	continentElevLo  = 200.0
	continentElevHi  = 600.0
	defaultPlateMin  = 6
	defaultPlateMax  = 15
	seedRetries      = 32
)

type queueItem struct {
	x, y int
	id   uint16
}

// Generate realizes S1: picks up to `count` seed points (or, if count<=0,
// draws a count uniformly from [6,15] using rng), flood-fills plate
// membership by 4-connected BFS honoring horizontal wrap, and assigns each
// plate its kind/elevation/velocity/color. If seed collisions exhaust the
// retry budget, fewer than `count` plates are realized and a
// DegenerateTerrain error is returned alongside the (still fully valid)
// result — callers surface it through the progress callback, not as a
// fatal abort.
func Generate(rng *rand.Rand, w, h, count int) (*tilemap.Tilemap[uint16], []Plate, error) {
	if count <= 0 {
		count = defaultPlateMin + rng.Intn(defaultPlateMax-defaultPlateMin+1)
	}

	ids := tilemap.New[uint16](w, h)
	assigned := make([]bool, w*h)

	type point struct{ x, y int }
	occupied := make(map[point]bool, count)
	seeds := make([]point, 0, count)

	for len(seeds) < count {
		x, y := rng.Intn(w), rng.Intn(h)
		retries := 0
		for occupied[point{x, y}] && retries < seedRetries {
			x, y = rng.Intn(w), rng.Intn(h)
			retries++
		}
		if occupied[point{x, y}] {
			break
		}
		occupied[point{x, y}] = true
		seeds = append(seeds, point{x, y})
	}

	realized := len(seeds)
	var warn error
	if realized < count {
		warn = xerrors.NewDegenerateTerrain("plates",
			fmt.Sprintf("requested %d plates, realized %d after seed collisions", count, realized))
	}

	queue := make([]queueItem, 0, realized)
	for i, s := range seeds {
		idx := s.y*w + s.x
		assigned[idx] = true
		queue = append(queue, queueItem{s.x, s.y, uint16(i)})
	}

	for qi := 0; qi < len(queue); qi++ {
		item := queue[qi]
		ids.Set(item.x, item.y, item.id)
		for _, nb := range ids.Neighbor4(item.x, item.y) {
			nidx := nb.Y*w + nb.X
			if !assigned[nidx] {
				assigned[nidx] = true
				queue = append(queue, queueItem{nb.X, nb.Y, item.id})
			}
		}
	}

	result := make([]Plate, realized)
	for i := range result {
		result[i] = newPlate(rng, uint16(i))
	}
	return ids, result, warn
}

func newPlate(rng *rand.Rand, id uint16) Plate {
	p := Plate{ID: id}
	if rng.Float64() < pOceanic {
		p.Kind = Oceanic
		p.BaseElevation = float32(oceanicElevLo + rng.Float64()*(oceanicElevHi-oceanicElevLo))
	} else {
		p.Kind = Continental
		p.BaseElevation = float32(continentElevLo + rng.Float64()*(continentElevHi-continentElevLo))
	}

	angle := rng.Float64() * 2 * math.Pi
	mag := minVelocityMag + rng.Float64()*(maxVelocityMag-minVelocityMag)
	p.Velocity = [2]float32{float32(math.Cos(angle) * mag), float32(math.Sin(angle) * mag)}

	hue := rng.Float64() * 360
	sat := 0.5 + rng.Float64()*0.2
	val := 0.6 + rng.Float64()*0.3
	p.Color = hsvToRGB(hue, sat, val)
	return p
}

// hsvToRGB converts an HSV triple (hue in degrees, sat/val in [0,1]) to RGB
// in [0,1], used to give each plate a distinct, non-garish display color.
func hsvToRGB(h, s, v float64) [3]float32 {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return [3]float32{float32(r + m), float32(g + m), float32(b + m)}
}
