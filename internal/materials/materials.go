// Package materials implements S4: per-cell erosion resistance derived
// from a RockType tag and modulated by coherent noise (§3 Hardness, §4.4's
// sibling stage). Harder rock resists the erosion stages that follow.
package materials

import (
	"terraingen/internal/noise"
	"terraingen/internal/plates"
	"terraingen/internal/tilemap"
)

// RockType is a finite tagged union of crust compositions — no
// inheritance, branch explicitly per §9.
type RockType int

const (
	Sediment RockType = iota
	Granite
	Basalt
	Gabbro
)

func (r RockType) baseHardness() float64 {
	switch r {
	case Sediment:
		return 0.25
	case Granite:
		return 0.85
	case Basalt:
		return 0.6
	case Gabbro:
		return 0.7
	default:
		return 0.5
	}
}

const (
	minHardness = 0.05
	maxHardness = 1.0
)

// Hardness computes S4's hardness field. Rock type (derived from plate
// kind and elevation) sets a baseline — continental granite/andesite
// trends harder than oceanic basalt/gabbro; stress concentrates
// metamorphism, adding a small hardening bonus at high |stress|; noise
// adds per-cell speckle so hardness is not a step function at plate
// boundaries.
func Hardness(ids *tilemap.Tilemap[uint16], plateTable []plates.Plate, stressField, heightField *tilemap.Field, n *noise.Generator) *tilemap.Field {
	out := tilemap.New[float32](ids.W, ids.H)

	for y := 0; y < ids.H; y++ {
		for x := 0; x < ids.W; x++ {
			plate := plateTable[ids.Get(x, y)]
			rock := rockTypeFor(plate, heightField.Get(x, y))
			h := rock.baseHardness()

			s := float64(stressField.Get(x, y))
			h += 0.1 * absf(s) // compression/rifting both metamorphose rock somewhat

			speckle := n.Noise3D(float64(x)*0.08, float64(y)*0.08, 17.0)
			h += speckle * 0.1

			h = clamp(h, minHardness, maxHardness)
			out.Set(x, y, float32(h))
		}
	}
	return out
}

// rockTypeFor picks a RockType from plate kind and elevation: continental
// crust above sea level is granite-bearing, below (or oceanic) is
// sediment/basalt/gabbro.
func rockTypeFor(plate plates.Plate, elevation float32) RockType {
	if plate.Kind == plates.Continental {
		if elevation > 0 {
			return Granite
		}
		return Sediment
	}
	if elevation < -3000 {
		return Gabbro
	}
	return Basalt
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
