package hydrology

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"terraingen/internal/erosion"
	"terraingen/internal/tilemap"
)

// ControlPoint is one sample along a traced river segment.
type ControlPoint struct {
	X, Y      int
	FlowAcc   float64
	Width     float64
	Elevation float64
}

// SegmentIndex refers into Network.Segments; -1 means "no parent" (the
// segment starts at a true source, not a confluence).
type SegmentIndex int

const NoParent SegmentIndex = -1

// Segment is a traced river path, stored as an arena entry rather than a
// tree of pointers (§4.7): every cross-reference is an index into the same
// Network.Segments slice, so the whole network serializes and clones
// trivially and never forms a reference cycle.
type Segment struct {
	ID             uuid.UUID
	Points         []ControlPoint
	Parent         SegmentIndex
	JoinPointIndex uint32
}

// namespaceSegment mirrors namespaceBody: a fixed namespace so segment IDs
// derive deterministically from (seed, discovery order) instead of a
// random v4 UUID, preserving bit-identical reruns.
var namespaceSegment = uuid.MustParse("8f3c2a41-7d5e-4a1a-9c3e-1a6b4d2f8e77")

func deriveSegmentID(seed int64, discoveryIndex int) uuid.UUID {
	return uuid.NewSHA1(namespaceSegment, []byte(fmt.Sprintf("%d:segment:%d", seed, discoveryIndex)))
}

// Network is the arena: a flat vector of segments plus the index of the
// point each tributary joins its parent at.
type Network struct {
	Segments []Segment
}

const (
	baseWidth = 1.0
	minWidth  = 0.5
	maxWidth  = 12.0
)

func widthFor(flowAcc, sourceThreshold float64) float64 {
	if sourceThreshold <= 0 {
		sourceThreshold = 1
	}
	ratio := flowAcc / sourceThreshold
	if ratio < 0 {
		ratio = 0
	}
	w := baseWidth * math.Sqrt(math.Sqrt(ratio))
	return clampf(w, minWidth, maxWidth)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExtractNetwork runs §4.7: finds sources, traces each downstream along
// flow_dir until it reaches a water body or joins an already-traced cell,
// and records the tributary relationship as a (parent segment, join point
// index) pair in the arena.
func ExtractNetwork(height, flowAcc *tilemap.Field, flowDir *tilemap.Tilemap[uint8], bodyID *tilemap.Tilemap[uuid.UUID], sourceMinAcc, sourceMinElev float64, seed int64) *Network {
	w, h := height.W, height.H
	net := &Network{}

	// belongsTo[idx] = (segment index, point index) once a cell has been
	// traced, so a later trace hitting it can record the join.
	type owner struct {
		seg   int
		point uint32
	}
	owned := make(map[int]owner)
	discoveryIndex := 0

	sources := findNetworkSources(height, flowAcc, sourceMinAcc, sourceMinElev)
	for _, src := range sources {
		x, y := src[0], src[1]
		if _, already := owned[y*w+x]; already {
			continue
		}

		segIdx := len(net.Segments)
		seg := Segment{Parent: NoParent, JoinPointIndex: 0}

		for {
			idx := y*w + x
			if prior, ok := owned[idx]; ok && len(seg.Points) > 0 {
				seg.Parent = SegmentIndex(prior.seg)
				seg.JoinPointIndex = prior.point
				break
			}

			point := ControlPoint{
				X: x, Y: y,
				FlowAcc:   float64(flowAcc.Get(x, y)),
				Width:     widthFor(float64(flowAcc.Get(x, y)), sourceMinAcc),
				Elevation: float64(height.Get(x, y)),
			}
			seg.Points = append(seg.Points, point)
			owned[idx] = owner{seg: segIdx, point: uint32(len(seg.Points) - 1)}

			if bodyID.Get(x, y) != uuid.Nil {
				break // reached ocean or lake
			}

			d := flowDir.Get(x, y)
			nx, ny, ok := erosion.Downstream(x, y, d, w, h)
			if !ok {
				break // terminates at a pit with no water body label (rare, post-fill)
			}
			x, y = nx, ny
		}

		if len(seg.Points) > 1 {
			seg.ID = deriveSegmentID(seed, discoveryIndex)
			discoveryIndex++
			net.Segments = append(net.Segments, seg)
		} else {
			// A discarded one-point trace gives up its cell: its segIdx is
			// reused by the next kept segment, so a later join must not see it.
			for _, p := range seg.Points {
				delete(owned, p.Y*w+p.X)
			}
		}
	}

	return net
}

func findNetworkSources(height, flowAcc *tilemap.Field, minAcc, minElev float64) [][2]int {
	var sources [][2]int
	hi := minAcc * 3
	for y := 0; y < height.H; y++ {
		for x := 0; x < height.W; x++ {
			a := float64(flowAcc.Get(x, y))
			if a >= minAcc && a < hi && float64(height.Get(x, y)) >= minElev {
				sources = append(sources, [2]int{x, y})
			}
		}
	}
	return sources
}

// Smooth fits a Catmull-Rom-style cubic through every four consecutive
// control points, returning denser sample points suitable for sub-cell
// rendering queries. Segments shorter than 4 points are returned unchanged.
func Smooth(points []ControlPoint, samplesPerSpan int) []ControlPoint {
	if len(points) < 4 || samplesPerSpan < 1 {
		return points
	}
	out := make([]ControlPoint, 0, len(points)*samplesPerSpan)
	for i := 0; i < len(points)-3; i++ {
		p0, p1, p2, p3 := points[i], points[i+1], points[i+2], points[i+3]
		for s := 0; s < samplesPerSpan; s++ {
			t := float64(s) / float64(samplesPerSpan)
			out = append(out, catmullRom(p0, p1, p2, p3, t))
		}
	}
	out = append(out, points[len(points)-1])
	return out
}

func catmullRom(p0, p1, p2, p3 ControlPoint, t float64) ControlPoint {
	t2 := t * t
	t3 := t2 * t

	blend := func(a, b, c, d float64) float64 {
		return 0.5 * ((2 * b) +
			(-a+c)*t +
			(2*a-5*b+4*c-d)*t2 +
			(-a+3*b-3*c+d)*t3)
	}

	return ControlPoint{
		X:         int(math.Round(blend(float64(p0.X), float64(p1.X), float64(p2.X), float64(p3.X)))),
		Y:         int(math.Round(blend(float64(p0.Y), float64(p1.Y), float64(p2.Y), float64(p3.Y)))),
		FlowAcc:   blend(p0.FlowAcc, p1.FlowAcc, p2.FlowAcc, p3.FlowAcc),
		Width:     blend(p0.Width, p1.Width, p2.Width, p3.Width),
		Elevation: blend(p0.Elevation, p1.Elevation, p2.Elevation, p3.Elevation),
	}
}
