// Package metrics implements OptimizationMetrics (spec §4.5): the scored
// view of a ScheduleState used to rank attempts, drive the improvement
// loop's stopping decisions, and feed BacktrackingManager's rollback
// scoring.
package metrics

import (
	"math"

	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
	"github.com/saldo27/shiftsched/internal/tolerance"
)

// Weights for OverallScore, named per spec §9's "named configuration
// constants, not hard-coded magic numbers."
const (
	WeightCoverage          = 100.0
	WeightEmptyCellPenalty  = 50.0
	WeightWorkloadImbalance = 200.0
	WeightWeekendImbalance  = 150.0
	WeightTolerancePenalty  = 75.0

	// plateauWindow is the number of trailing recorded scores compared for
	// "last 3 recorded scores equal" (spec §4.4) and for the no-empty,
	// no-violation plateau check of §4.5.
	plateauWindow = 3

	// stagnationCyclesThreshold is N1 of §4.7's detect_dead_end, recovered
	// from original_source/backtracking_manager.py's DEFAULT_CONFIG.
	stagnationCyclesThreshold = 10
)

// IterationResult records one improvement-loop iteration for trend
// detection (spec §4.5's record_iteration_result).
type IterationResult struct {
	Iteration  int
	Operations []string
	Score      float64
}

// Snapshot is a single evaluation of a ScheduleState's quality.
type Snapshot struct {
	OverallScore      float64
	WorkloadImbalance float64
	WeekendImbalance  float64
	EmptyCells        int
	ToleranceBreaches int
}

// Evaluate scores st against workers, spec §4.5's overall_score formula:
// weighted sum of (coverage, -empty_cells, -workload_imbalance,
// -weekend_imbalance, -tolerance_violations*k).
func Evaluate(st *state.ScheduleState, workers []*model.Worker) Snapshot {
	total := st.TotalCellCount()
	empty := st.EmptyCellCount()
	coverage := 0.0
	if total > 0 {
		coverage = float64(total-empty) / float64(total)
	}

	devs := tolerance.Evaluate(st, workers)
	breaches := len(tolerance.Violators(devs, tolerance.Breach))

	wi := workloadImbalance(st, workers)
	we := weekendImbalance(st, workers)

	score := WeightCoverage*coverage -
		WeightEmptyCellPenalty*float64(empty) -
		WeightWorkloadImbalance*wi -
		WeightWeekendImbalance*we -
		WeightTolerancePenalty*float64(breaches)

	return Snapshot{
		OverallScore:      score,
		WorkloadImbalance: wi,
		WeekendImbalance:  we,
		EmptyCells:        empty,
		ToleranceBreaches: breaches,
	}
}

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

func weekendImbalance(st *state.ScheduleState, workers []*model.Worker) float64 {
	counts := make([]float64, 0, len(workers))
	for _, w := range workers {
		counts = append(counts, float64(st.WeekendCount(w.ID)))
	}
	return stddev(counts)
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

// Tracker accumulates IterationResults for trend detection across an
// improvement loop, and also serves as the counter BacktrackingManager
// resets on rollback (spec §4.7's "notifies metrics to reset trend
// counters").
type Tracker struct {
	history             []IterationResult
	noImprovementStreak int
	lastScore           float64
	hasLastScore        bool
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordIterationResult appends iter to the trend history and updates the
// no-improvement streak (spec §4.5).
func (t *Tracker) RecordIterationResult(iter int, operations []string, score float64) {
	t.history = append(t.history, IterationResult{Iteration: iter, Operations: operations, Score: score})
	if t.hasLastScore && score <= t.lastScore {
		t.noImprovementStreak++
	} else {
		t.noImprovementStreak = 0
	}
	t.lastScore = score
	t.hasLastScore = true
}

// ResetTrend clears the no-improvement streak and trailing history,
// called by BacktrackingManager.Rollback (spec §4.7).
func (t *Tracker) ResetTrend() {
	t.noImprovementStreak = 0
	t.hasLastScore = false
	if len(t.history) > 0 {
		t.history = t.history[:0]
	}
}

// NoImprovementStreak returns the number of consecutive recorded
// iterations that failed to strictly improve the score.
func (t *Tracker) NoImprovementStreak() int {
	return t.noImprovementStreak
}

// ShouldContinueOptimization implements spec §4.5's
// should_continue_optimization: returns (false, reason) when (a) no
// significant-improvement cycles reach the stagnation threshold, (b)
// iter reaches hardCap, or (c) the score has plateaued with zero empty
// cells and zero violations.
func (t *Tracker) ShouldContinueOptimization(iter, hardCap int, current Snapshot) (bool, string) {
	if iter >= hardCap {
		return false, "hard_cap_reached"
	}
	if t.noImprovementStreak >= stagnationCyclesThreshold {
		return false, "stagnation"
	}
	if current.EmptyCells == 0 && current.ToleranceBreaches == 0 && t.scorePlateaued() {
		return false, "plateau_converged"
	}
	return true, ""
}

// ScorePlateaued reports whether the last plateauWindow recorded scores
// are identical (spec §4.4's "plateau trend: last 3 recorded scores
// equal").
func (t *Tracker) ScorePlateaued() bool {
	return t.scorePlateaued()
}

// scorePlateaued reports whether the last plateauWindow recorded scores
// are all equal (spec §4.4's "plateau trend: last 3 recorded scores
// equal").
func (t *Tracker) scorePlateaued() bool {
	if len(t.history) < plateauWindow {
		return false
	}
	tail := t.history[len(t.history)-plateauWindow:]
	for _, r := range tail[1:] {
		if r.Score != tail[0].Score {
			return false
		}
	}
	return true
}

// StagnationCount mirrors NoImprovementStreak under the name the
// optimizer's perturbation-intensity formula uses (spec §9/SPEC_FULL.md's
// supplemented stagnation-scaled perturbation).
func (t *Tracker) StagnationCount() int {
	return t.noImprovementStreak
}
