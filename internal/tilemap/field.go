package tilemap

import (
	"math"

	"terraingen/internal/noise"
)

// Field is the float32 specialization used for every continuous grid
// (height, stress, hardness, water level, flow accumulation).
type Field = Tilemap[float32]

// bilinearAt samples f at fractional coordinates (fx,fy), wrapping x and
// clamping y on every corner lookup — the same rule Get/Set enforce, just
// applied four times.
func bilinearAt(f *Field, fx, fy float64) float64 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	y0c := f.ClampY(y0)
	y1c := f.ClampY(y0 + 1)

	v00 := float64(f.Get(x0, y0c))
	v10 := float64(f.Get(x0+1, y0c))
	v01 := float64(f.Get(x0, y1c))
	v11 := float64(f.Get(x0+1, y1c))

	top := v00*(1-tx) + v10*tx
	bot := v01*(1-tx) + v11*tx
	return top*(1-ty) + bot*ty
}

// BilinearSample is the exported form used by the hires erosion stages for
// droplet gradient sampling.
func BilinearSample(f *Field, fx, fy float64) float64 {
	return bilinearAt(f, fx, fy)
}

// UpscaleBilinear produces a factor-f larger field by bilinear interpolation
// of src, then adds coherent roughness noise biased by local slope so flat
// plains stay flat while mountainsides gain texture (§4.5.1). roughnessAmp
// is the noise amplitude in the same units as the field (meters, for
// height).
func UpscaleBilinear(src *Field, factor int, n *noise.Generator, roughnessAmp float64) *Field {
	if factor < 1 {
		panic("tilemap: upscale factor must be >= 1")
	}
	outW, outH := src.W*factor, src.H*factor
	dst := New[float32](outW, outH)

	for y := 0; y < outH; y++ {
		srcY := float64(y) / float64(factor)
		for x := 0; x < outW; x++ {
			srcX := float64(x) / float64(factor)
			base := bilinearAt(src, srcX, srcY)

			slope := localSlope(src, srcX, srcY)
			bias := math.Min(1.0, slope/50.0) // flat (slope~0) -> ~0 roughness
			sample := n.Noise2D(float64(x)*0.15, float64(y)*0.15)
			roughness := sample * roughnessAmp * bias

			dst.Set(x, y, float32(base+roughness))
		}
	}
	return dst
}

func localSlope(f *Field, fx, fy float64) float64 {
	h := bilinearAt(f, fx, fy)
	hx := bilinearAt(f, fx+1, fy)
	hy := bilinearAt(f, fx, fy+1)
	dx := hx - h
	dy := hy - h
	return math.Sqrt(dx*dx + dy*dy)
}

// GaussianBlur applies a separable Gaussian blur of the given radius
// (cells). Used after upscale to melt interpolation ridges (§4.5.1) and
// inside other smoothing passes (S3's 3x3 box pass is a degenerate radius-1
// case expressed directly by callers, not through this helper).
func GaussianBlur(src *Field, radius int) *Field {
	if radius <= 0 {
		return src.Clone()
	}
	kernel := gaussianKernel(radius)

	horiz := New[float32](src.W, src.H)
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += float64(src.Get(x+k, y)) * kernel[k+radius]
			}
			horiz.Set(x, y, float32(sum))
		}
	}

	out := New[float32](src.W, src.H)
	for y := 0; y < src.H; y++ {
		for x := 0; x < src.W; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				yy := horiz.ClampY(y + k)
				sum += float64(horiz.Get(x, yy)) * kernel[k+radius]
			}
			out.Set(x, y, float32(sum))
		}
	}
	return out
}

func gaussianKernel(radius int) []float64 {
	sigma := float64(radius) / 2.0
	if sigma <= 0 {
		sigma = 0.5
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// DownscalePreserveRivers reduces a hires field (outW*factor x outH*factor)
// back to outW x outH. For each output cell, the block's variance decides
// the reduction: high-variance blocks (a carved channel among flat banks)
// take the block minimum so the channel survives; low-variance blocks take
// the mean (§4.5.6). threshold defaults to 15 per spec.
func DownscalePreserveRivers(src *Field, factor int, threshold float64) *Field {
	if factor < 1 {
		panic("tilemap: downscale factor must be >= 1")
	}
	outW, outH := src.W/factor, src.H/factor
	dst := New[float32](outW, outH)

	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			var sum, sumSq, min float64
			min = math.MaxFloat64
			count := 0
			for dy := 0; dy < factor; dy++ {
				for dx := 0; dx < factor; dx++ {
					v := float64(src.Get(ox*factor+dx, oy*factor+dy))
					sum += v
					sumSq += v * v
					if v < min {
						min = v
					}
					count++
				}
			}
			mean := sum / float64(count)
			variance := sumSq/float64(count) - mean*mean
			if variance > threshold {
				dst.Set(ox, oy, float32(min))
			} else {
				dst.Set(ox, oy, float32(mean))
			}
		}
	}
	return dst
}
