// Package tolerance computes each worker's deviation from target and
// classifies it into the tiers named by spec's glossary: ±8% objective,
// ±10% phase-1 ceiling, ±12% phase-2 absolute ceiling.
package tolerance

import (
	"math"
	"sort"

	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

// Tier classifies how far a worker's current count sits from target.
type Tier int

const (
	// WithinObjective means the worker is within the ±8% objective band.
	WithinObjective Tier = iota
	// WithinPhase1 means the worker is outside ±8% but within ±10%.
	WithinPhase1
	// WithinPhase2 means the worker is outside ±10% but within the
	// absolute ±12% ceiling.
	WithinPhase2
	// Breach means the worker is outside even the absolute ±12% ceiling —
	// a state the engine should never produce, but is classified rather
	// than assumed impossible so callers can detect it.
	Breach
)

func (t Tier) String() string {
	switch t {
	case WithinObjective:
		return "within_objective"
	case WithinPhase1:
		return "within_phase1"
	case WithinPhase2:
		return "within_phase2"
	default:
		return "breach"
	}
}

// ObjectiveTolerance is the ±8% band named by the glossary.
const ObjectiveTolerance = 0.08

// Phase1Tolerance is the ±10% band named by the glossary.
const Phase1Tolerance = 0.10

// Phase2Tolerance is the ±12% absolute band named by the glossary.
const Phase2Tolerance = 0.12

// Deviation describes one worker's distance from target.
type Deviation struct {
	WorkerID string
	Current  int
	Target   int
	Delta    int     // Current - Target; negative means under target.
	Ratio    float64 // abs(Delta) / Target, 0 when Target == 0.
	Tier     Tier
}

// Below reports whether the worker is under target.
func (d Deviation) Below() bool { return d.Delta < 0 }

// Above reports whether the worker is over target.
func (d Deviation) Above() bool { return d.Delta > 0 }

func classify(ratio float64) Tier {
	switch {
	case ratio <= ObjectiveTolerance:
		return WithinObjective
	case ratio <= Phase1Tolerance:
		return WithinPhase1
	case ratio <= Phase2Tolerance:
		return WithinPhase2
	default:
		return Breach
	}
}

// Evaluate computes every worker's deviation from target against the
// current state.
func Evaluate(st *state.ScheduleState, workers []*model.Worker) []Deviation {
	out := make([]Deviation, 0, len(workers))
	for _, w := range workers {
		current := st.ShiftCount(w.ID)
		delta := current - w.TargetShifts
		var ratio float64
		if w.TargetShifts > 0 {
			ratio = math.Abs(float64(delta)) / float64(w.TargetShifts)
		} else if delta != 0 {
			ratio = math.Inf(1)
		}
		out = append(out, Deviation{
			WorkerID: w.ID,
			Current:  current,
			Target:   w.TargetShifts,
			Delta:    delta,
			Ratio:    ratio,
			Tier:     classify(ratio),
		})
	}
	return out
}

// Violators returns every deviation at or beyond minTier, sorted by
// descending |deviation| (the order spec §4.4 step 1 wants: "sort each by
// |deviation| descending").
func Violators(deviations []Deviation, minTier Tier) []Deviation {
	out := make([]Deviation, 0, len(deviations))
	for _, d := range deviations {
		if d.Tier >= minTier {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(float64(out[i].Delta)) > math.Abs(float64(out[j].Delta))
	})
	return out
}

// Partition splits violators into those needing more shifts and those with
// excess, per spec §4.4 step 1.
func Partition(violators []Deviation) (needMore, haveExcess []Deviation) {
	for _, d := range violators {
		switch {
		case d.Below():
			needMore = append(needMore, d)
		case d.Above():
			haveExcess = append(haveExcess, d)
		}
	}
	return needMore, haveExcess
}
