package erosion

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"terraingen/internal/tilemap"
)

// DropletConfig mirrors the droplet_* ErosionConfig fields, already scaled
// for the hires grid (droplet_max_steps x f, droplet_erosion_radius
// clamped <=1) by the caller.
type DropletConfig struct {
	Inertia        float64
	CapacityFactor float64
	ErosionRate    float64
	DepositRate    float64
	Evaporation    float64
	MinVolume      float64
	MaxSteps       int
	Radius         int
	Gravity        float64
}

type cellDelta struct {
	idx    int
	amount float32 // positive = deposit, negative = erode
}

// RunDroplets executes §4.5.4: D droplets in batches of `batchSize`. Within
// a batch, each droplet reads an immutable snapshot of height (computed
// once per batch) and accumulates per-droplet deltas; batches are
// processed in a fixed deterministic order and, within a batch, droplet
// delta computation is fanned out across goroutines via errgroup (the
// snapshot→delta→reduce contract of §5), while the reduction onto the
// authoritative grid stays a fixed sequential pass over batch index then
// droplet index, so results are bit-identical across runs regardless of
// goroutine scheduling.
func RunDroplets(ctx context.Context, height, hardness *tilemap.Field, rng *rand.Rand, count int, batchSize int, cfg DropletConfig) (*Stats, error) {
	stats := &Stats{}
	brush := radialBrush(cfg.Radius)

	if batchSize <= 0 {
		batchSize = 10000
	}

	for start := 0; start < count; start += batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := start + batchSize
		if end > count {
			end = count
		}
		n := end - start

		snapshot := height.Clone()
		seeds := make([]int64, n)
		for i := range seeds {
			seeds[i] = rng.Int63()
		}

		deltas := make([][]cellDelta, n)
		batchStats := make([]Stats, n)

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				d, s := simulateDroplet(snapshot, hardness, rand.New(rand.NewSource(seeds[i])), brush, cfg)
				deltas[i] = d
				batchStats[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}

		for i := 0; i < n; i++ {
			for _, d := range deltas[i] {
				cur := float64(height.Data[d.idx])
				height.Data[d.idx] = float32(cur + float64(d.amount))
			}
			stats.merge(batchStats[i])
		}

		if err := assertFinite(height); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// simulateDroplet runs one droplet to completion against an immutable
// snapshot, returning the cell deltas it would apply and its own stats
// contribution.
func simulateDroplet(snapshot, hardness *tilemap.Field, rng *rand.Rand, brush []brushCell, cfg DropletConfig) ([]cellDelta, Stats) {
	w, h := snapshot.W, snapshot.H
	var stats Stats

	x, y := spawnPoint(snapshot, rng)
	dx, dy := 0.0, 0.0
	velocity, water, sediment := 1.0, 1.0, 0.0

	deltaMap := make(map[int]float64)

	for step := 0; step < cfg.MaxSteps; step++ {
		stats.StepsTaken++
		gx, gy := gradient(snapshot, x, y)

		dx = cfg.Inertia*dx - (1-cfg.Inertia)*gx
		dy = cfg.Inertia*dy - (1-cfg.Inertia)*gy
		mag := math.Hypot(dx, dy)
		if mag > 1e-9 {
			dx, dy = dx/mag, dy/mag
		}

		oldHeight := tilemap.BilinearSample(snapshot, x, y)
		nx, ny := x+dx, y+dy

		if ny < 0 || ny >= float64(h) {
			break // vertical leave terminates
		}
		nx = math.Mod(nx+float64(w), float64(w)) // horizontal leave wraps

		newHeight := tilemap.BilinearSample(snapshot, nx, ny)
		deltaH := newHeight - oldHeight

		capacity := clampf(math.Max(-deltaH, 0)*velocity*water*cfg.CapacityFactor, 0, 500)

		if sediment > capacity {
			amount := (sediment - capacity) * cfg.DepositRate
			applyBrush(deltaMap, w, h, int(math.Round(x)), int(math.Round(y)), brush, amount)
			sediment -= amount
			stats.recordDeposition(amount)
		} else {
			hrd := hardnessAt(hardness, x, y)
			amount := math.Min((capacity-sediment)*cfg.ErosionRate*(1-hrd), 15)
			applyBrush(deltaMap, w, h, int(math.Round(x)), int(math.Round(y)), brush, -amount)
			sediment += amount
			stats.recordErosion(amount)
		}

		velocity = math.Sqrt(math.Max(0, velocity*velocity+deltaH*cfg.Gravity))
		if velocity > 50 {
			velocity = 50
		}
		water *= 1 - cfg.Evaporation

		x, y = nx, ny

		if water < cfg.MinVolume {
			break
		}
		if newHeight < 0 {
			applyBrush(deltaMap, w, h, int(math.Round(x)), int(math.Round(y)), brush, sediment)
			stats.recordDeposition(sediment)
			break
		}
	}

	deltas := make([]cellDelta, 0, len(deltaMap))
	for idx, amount := range deltaMap {
		deltas = append(deltas, cellDelta{idx: idx, amount: float32(amount)})
	}
	return deltas, stats
}

func hardnessAt(hardness *tilemap.Field, x, y float64) float64 {
	return tilemap.BilinearSample(hardness, x, y)
}

func gradient(f *tilemap.Field, x, y float64) (float64, float64) {
	const eps = 1.0
	h0 := tilemap.BilinearSample(f, x, y)
	hx := tilemap.BilinearSample(f, x+eps, y)
	hy := tilemap.BilinearSample(f, x, y+eps)
	return hx - h0, hy - h0
}

// spawnPoint picks a droplet start position biased toward high elevation:
// reject-sample up to 10 times, accepting with probability
// max(0.1, h_norm^2). If all 10 draws are rejected, the last drawn
// position is returned whether or not it is land.
func spawnPoint(height *tilemap.Field, rng *rand.Rand) (float64, float64) {
	minH, maxH := minMax(height)
	span := maxH - minH
	if span <= 0 {
		span = 1
	}
	var x, y float64
	for attempt := 0; attempt < 10; attempt++ {
		x = rng.Float64() * float64(height.W)
		y = rng.Float64() * float64(height.H)
		h := float64(height.Get(int(x), int(y)))
		norm := (h - minH) / span
		if norm < 0 {
			norm = 0
		}
		accept := math.Max(0.1, norm*norm)
		if rng.Float64() < accept {
			return x, y
		}
	}
	return x, y
}

func minMax(f *tilemap.Field) (float64, float64) {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for _, v := range f.Data {
		fv := float64(v)
		if fv < min {
			min = fv
		}
		if fv > max {
			max = fv
		}
	}
	return min, max
}

type brushCell struct {
	dx, dy int
	weight float64
}

// radialBrush precomputes the erosion/deposition kernel once per radius:
// w(r) = max(0, 1-(r/R)^2), normalized to sum 1 (§4.5.4).
func radialBrush(radius int) []brushCell {
	if radius <= 0 {
		return []brushCell{{0, 0, 1.0}}
	}
	var cells []brushCell
	var total float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Hypot(float64(dx), float64(dy))
			if r > float64(radius) {
				continue
			}
			w := math.Max(0, 1-(r/float64(radius))*(r/float64(radius)))
			if w <= 0 {
				continue
			}
			cells = append(cells, brushCell{dx, dy, w})
			total += w
		}
	}
	for i := range cells {
		cells[i].weight /= total
	}
	return cells
}

func applyBrush(deltaMap map[int]float64, w, h, cx, cy int, brush []brushCell, amount float64) {
	for _, b := range brush {
		bx := ((cx+b.dx)%w + w) % w
		by := cy + b.dy
		if by < 0 || by >= h {
			continue
		}
		idx := by*w + bx
		deltaMap[idx] += amount * b.weight
	}
}
