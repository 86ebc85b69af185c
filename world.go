package terraingen

import (
	"github.com/google/uuid"

	"terraingen/internal/erosion"
	"terraingen/internal/hydrology"
	"terraingen/internal/plates"
	"terraingen/internal/tilemap"
)

// WorldData is everything GenerateWorld produces (§6): one grid per
// per-cell quantity, plus the plate/water-body/river-network side tables
// and the erosion mass-accounting stats. Every grid shares the output
// resolution (Width x Height); when SimulationScale > 1 the hires working
// grid is downscaled back to it before it is stored here.
type WorldData struct {
	Height   *tilemap.Field         // final bedrock elevation; Height.W/Height.H give the grid's dimensions
	Stress   *tilemap.Field         // S2 boundary stress after one smoothing sweep, at output resolution
	PlateID  *tilemap.Tilemap[uint16]
	Plates   []plates.Plate
	Hardness *tilemap.Field

	Temperature *tilemap.Field // nil unless EnableClimate
	Moisture    *tilemap.Field // nil unless EnableClimate

	WaterLevel  *tilemap.Field
	WaterDepth  *tilemap.Field
	WaterBodyID *tilemap.Tilemap[uuid.UUID]
	WaterBodies []hydrology.Body
	RiverTiles  *tilemap.Tilemap[bool]

	RiverNetwork *hydrology.Network

	HydraulicStats *erosion.Stats
	RiverStats     *erosion.Stats
	GlacialStats   *erosion.Stats

	// Truncated is set when Budget cut the erosion batching loop short
	// (§7 BudgetExceeded): every grid above is still fully valid, just
	// less eroded than an unbounded run would have produced.
	Truncated bool
}

// ProgressEvent is delivered to a caller-supplied callback after each
// 10,000-droplet hydraulic batch when a Budget is set, and once at the end
// of a run that produced a non-fatal warning. No event is sent at the other
// stage boundaries, and a hydraulic run without a Budget sends none.
type ProgressEvent struct {
	Stage   string
	Message string
	// Warning is non-nil for a non-fatal DegenerateTerrain notice; the
	// pipeline keeps running when this is set.
	Warning error
}

// ProgressFunc receives pipeline progress; may be nil.
type ProgressFunc func(ProgressEvent)
