package erosion

// Stats accumulates the erosion mass-accounting counters WorldData exposes
// (§6 erosion_stats, §8 properties 14-15): running totals are monotone by
// construction — recordErosion/recordDeposition only ever add.
type Stats struct {
	TotalEroded    float64
	TotalDeposited float64
	StepsTaken     int64
	Iterations     int64
	MaxErosion     float64
	MaxDeposition  float64
	RiverLengths   []int
}

func (s *Stats) recordErosion(amount float64) {
	if amount <= 0 {
		return
	}
	s.TotalEroded += amount
	if amount > s.MaxErosion {
		s.MaxErosion = amount
	}
}

func (s *Stats) recordDeposition(amount float64) {
	if amount <= 0 {
		return
	}
	s.TotalDeposited += amount
	if amount > s.MaxDeposition {
		s.MaxDeposition = amount
	}
}

// merge folds another Stats' totals into s, used to combine per-batch
// droplet stats after a parallel batch reduction.
func (s *Stats) merge(other Stats) {
	s.TotalEroded += other.TotalEroded
	s.TotalDeposited += other.TotalDeposited
	s.StepsTaken += other.StepsTaken
	s.Iterations += other.Iterations
	if other.MaxErosion > s.MaxErosion {
		s.MaxErosion = other.MaxErosion
	}
	if other.MaxDeposition > s.MaxDeposition {
		s.MaxDeposition = other.MaxDeposition
	}
	s.RiverLengths = append(s.RiverLengths, other.RiverLengths...)
}
