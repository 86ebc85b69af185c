// Package noise wraps github.com/aquilax/go-perlin for the coherent noise
// the pipeline needs: low-frequency continental-shelf variation (S3),
// hardness modulation (S4), hires upscale roughness (S5), and moisture
// shading (S5a).
package noise

import "github.com/aquilax/go-perlin"

// Generator produces deterministic 2D/3D Perlin noise from a seed.
type Generator struct {
	p *perlin.Perlin
}

// New creates a generator seeded deterministically. alpha/beta/octaves match
// the values the rest of the corpus settled on (2, 2, 3): a gentle roll-off
// with three harmonics, plenty for terrain-scale variation without needing
// per-call tuning.
func New(seed int64) *Generator {
	return &Generator{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// NewWithOctaves creates a generator with an explicit octave count, for
// callers that want sharper or smoother fields than the default. No
// pipeline stage uses it; every stage samples the generator from New.
func NewWithOctaves(seed int64, octaves int32) *Generator {
	return &Generator{p: perlin.NewPerlin(2, 2, octaves, seed)}
}

// Noise2D returns a value in [-1, 1].
func (g *Generator) Noise2D(x, y float64) float64 {
	return g.p.Noise2D(x, y)
}

// Noise3D returns a value in [-1, 1]; the third coordinate is typically a
// fixed per-layer offset used to decorrelate otherwise-identical 2D slices
// (e.g. hardness noise vs. roughness noise) without a second seed.
func (g *Generator) Noise3D(x, y, z float64) float64 {
	return g.p.Noise3D(x, y, z)
}

// Normalize01 maps a [-1,1] noise sample into [0,1].
func Normalize01(n float64) float64 {
	return (n + 1.0) / 2.0
}
