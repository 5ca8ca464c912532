// Package balance implements the global balance scan, rebalancing
// recommendations, and the swap transfer-legality check spec §4.2.3
// delegates to: "a swap is accepted only if the BalanceValidator confirms
// both workers' deviations weakly improve, or one improves strictly while
// the other remains within the phase-2 ceiling."
package balance

import (
	"math"

	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
	"github.com/saldo27/shiftsched/internal/tolerance"
)

// Report summarizes global balance across the whole worker roster.
type Report struct {
	WorkloadImbalance float64
	WeekendImbalance  float64
	Recommendations   []Recommendation
}

// Recommendation suggests moving a shift from one worker to another to
// reduce imbalance.
type Recommendation struct {
	From, To string
	Reason   string
}

// Evaluate scans the whole roster and proposes transfers from the most
// over-target workers to the most under-target ones.
func Evaluate(st *state.ScheduleState, workers []*model.Worker) Report {
	devs := tolerance.Evaluate(st, workers)
	need, excess := tolerance.Partition(tolerance.Violators(devs, tolerance.WithinObjective))

	var recs []Recommendation
	for i := 0; i < len(excess) && i < len(need); i++ {
		recs = append(recs, Recommendation{
			From:   excess[i].WorkerID,
			To:     need[i].WorkerID,
			Reason: "workload imbalance",
		})
	}

	return Report{
		WorkloadImbalance: workloadImbalance(st, workers),
		WeekendImbalance:  weekendImbalance(st, workers),
		Recommendations:   recs,
	}
}

// workloadImbalance is the population standard deviation of
// current/target ratios across workers, spec §4.5.
func workloadImbalance(st *state.ScheduleState, workers []*model.Worker) float64 {
	ratios := make([]float64, 0, len(workers))
	for _, w := range workers {
		if w.TargetShifts == 0 {
			continue
		}
		ratios = append(ratios, float64(st.ShiftCount(w.ID))/float64(w.TargetShifts))
	}
	return stddev(ratios)
}

// weekendImbalance is the analogous stddev over weekend counts.
func weekendImbalance(st *state.ScheduleState, workers []*model.Worker) float64 {
	ratios := make([]float64, 0, len(workers))
	for _, w := range workers {
		if w.TargetShifts == 0 {
			continue
		}
		ratios = append(ratios, float64(st.WeekendCount(w.ID)))
	}
	return stddev(ratios)
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}

// TransferLegal implements the §4.2.3 swap-acceptance rule: given the
// deviation before and after for both the worker losing a shift (over) and
// the worker gaining one (under), decide whether the swap may be applied.
func TransferLegal(beforeOver, afterOver, beforeUnder, afterUnder tolerance.Deviation) bool {
	overImproves := math.Abs(float64(afterOver.Delta)) <= math.Abs(float64(beforeOver.Delta))
	underImproves := math.Abs(float64(afterUnder.Delta)) <= math.Abs(float64(beforeUnder.Delta))
	if overImproves && underImproves {
		return true
	}
	// One improves strictly while the other remains within the phase-2
	// absolute ceiling.
	overStrict := math.Abs(float64(afterOver.Delta)) < math.Abs(float64(beforeOver.Delta))
	underStrict := math.Abs(float64(afterUnder.Delta)) < math.Abs(float64(beforeUnder.Delta))
	overWithinPhase2 := afterOver.Current <= constraint.Phase2Ceiling(afterOver.Target)
	underWithinPhase2 := afterUnder.Current <= constraint.Phase2Ceiling(afterUnder.Target)
	if overStrict && underWithinPhase2 {
		return true
	}
	if underStrict && overWithinPhase2 {
		return true
	}
	return false
}
