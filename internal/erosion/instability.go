package erosion

import (
	"math"

	"terraingen/internal/tilemap"
	"terraingen/internal/xerrors"
)

// assertFinite is the §7 NumericalInstability guard: implementations must
// check, after every droplet batch and every glacial timestep, that no
// NaN or Inf has entered the height field.
func assertFinite(h *tilemap.Field) error {
	for _, v := range h.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return xerrors.NewNumericalInstability("erosion", 0)
		}
	}
	return nil
}

// assertFiniteAt is the same guard, but identifies the offending stage and
// iteration for a caller that already knows them (e.g. glacial timesteps).
func assertFiniteAt(h *tilemap.Field, stage string, iteration int) error {
	for _, v := range h.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return xerrors.NewNumericalInstability(stage, iteration)
		}
	}
	return nil
}
