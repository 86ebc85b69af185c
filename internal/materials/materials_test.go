package materials

import (
	"math/rand"
	"testing"

	"terraingen/internal/heightmap"
	"terraingen/internal/noise"
	"terraingen/internal/plates"
	"terraingen/internal/stress"
)

func TestHardnessWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))
	ids, table, _ := plates.Generate(rng, 48, 24, 8)
	s := stress.Compute(ids, table)
	n := noise.New(1337)
	h := heightmap.Base(ids, table, s, n)

	hardness := Hardness(ids, table, s, h, n)
	for _, v := range hardness.Data {
		if v < minHardness || v > maxHardness {
			t.Fatalf("hardness out of range: %v", v)
		}
	}
}
