package erosion

import (
	"testing"

	"terraingen/internal/tilemap"
)

func TestComputeD8PicksSteepestDescent(t *testing.T) {
	h := tilemap.New[float32](3, 3)
	h.Fill(10)
	h.Set(2, 1, 0) // strictly lower neighbor to the east of (1,1)

	dir := ComputeD8(h)
	if dir.Get(1, 1) == NoFlow {
		t.Fatal("cell with a lower neighbor must not be NoFlow")
	}
	nx, ny, ok := Downstream(1, 1, dir.Get(1, 1), 3, 3)
	if !ok || nx != 2 || ny != 1 {
		t.Fatalf("expected downstream (2,1), got (%d,%d) ok=%v", nx, ny, ok)
	}
}

func TestComputeD8NoFlowOnLocalMinimum(t *testing.T) {
	h := tilemap.New[float32](3, 3)
	h.Fill(10)
	h.Set(1, 1, 0) // lowest cell, all neighbors higher

	dir := ComputeD8(h)
	if dir.Get(1, 1) != NoFlow {
		t.Fatal("local minimum should have no downstream neighbor")
	}
}

func TestFlowAccumulationMonotoneAlongPath(t *testing.T) {
	// Strictly descending ramp along x: 4->3->2->1->0.
	h := tilemap.New[float32](5, 1)
	for x := 0; x < 5; x++ {
		h.Set(x, 0, float32(4-x))
	}
	dir := ComputeD8(h)
	acc := FlowAccumulation(h, dir)

	for x := 0; x < 4; x++ {
		nx, _, ok := Downstream(x, 0, dir.Get(x, 0), 5, 1)
		if !ok {
			continue
		}
		if acc.Get(nx, 0) < acc.Get(x, 0) {
			t.Fatalf("flow accumulation decreased downstream at x=%d", x)
		}
	}
}

func TestFlowAccumulationEveryCellAtLeastOne(t *testing.T) {
	h := tilemap.New[float32](4, 4)
	for i := range h.Data {
		h.Data[i] = float32(i)
	}
	dir := ComputeD8(h)
	acc := FlowAccumulation(h, dir)
	for _, v := range acc.Data {
		if v < 1 {
			t.Fatalf("flow accumulation must be >= 1, got %v", v)
		}
	}
}
