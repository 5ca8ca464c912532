// Package distributor implements InitialDistributor (spec §4.3): several
// strategy-diversified initial fill attempts, scored by metrics, with the
// best retained.
package distributor

import (
	"github.com/saldo27/shiftsched/internal/builder"
	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/metrics"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

// attemptCounts is the closed set of attempt budgets spec §4.3 names,
// chosen by ComplexityScore.
var attemptCounts = []int{3, 5, 7, 10}

// ComplexityScore is "number of workers x horizon x posts" (spec §4.3).
func ComplexityScore(numWorkers, horizonDays, posts int) int {
	return numWorkers * horizonDays * posts
}

// AttemptBudget maps a complexity score to one of the four attempt
// counts. Thresholds are evenly spaced log-scale bands over the
// complexity score; a small roster/horizon gets the minimum budget and a
// large one gets the maximum, per spec §4.3's "given a complexity score
// ... choose N".
func AttemptBudget(complexity int) int {
	switch {
	case complexity < 500:
		return attemptCounts[0]
	case complexity < 5000:
		return attemptCounts[1]
	case complexity < 50000:
		return attemptCounts[2]
	default:
		return attemptCounts[3]
	}
}

// Result is one attempt's outcome.
type Result struct {
	Attempt  int
	Policy   builder.OrderPolicy
	Snapshot *state.Snapshot
	Score    metrics.Snapshot
}

// Run executes AttemptBudget(complexity) initial-fill attempts from
// baseline (the post-mandatory snapshot), each starting from baseline
// restored fresh, cycling order policies round-robin with a varying seed
// per attempt (spec §4.3). It returns the best attempt's snapshot,
// restoring st to that snapshot before returning, plus every attempt's
// score for diagnostics.
func Run(st *state.ScheduleState, params constraint.Params, workers []*model.Worker, baseline *state.Snapshot, complexity int, fillIterationBudget int) ([]Result, *state.Snapshot) {
	n := AttemptBudget(complexity)
	results := make([]Result, 0, n)

	var best *Result
	for i := 0; i < n; i++ {
		st.Restore(baseline)
		policy := builder.PolicyAt(i)
		seed := int64(i*1009 + 17)

		b := builder.New(st, params, workers)
		for iter := 0; iter < fillIterationBudget; iter++ {
			if !b.TryFillEmptyShifts(policy, seed) {
				break
			}
		}

		score := metrics.Evaluate(st, workers)
		res := Result{Attempt: i, Policy: policy, Snapshot: st.Snapshot(), Score: score}
		results = append(results, res)

		if best == nil || better(res.Score, best.Score) {
			captured := res
			best = &captured
		}
	}

	if best == nil {
		st.Restore(baseline)
		return results, baseline
	}
	st.Restore(best.Snapshot)
	return results, best.Snapshot
}

// better implements spec §4.3's tie-break: "highest score; ties broken by
// fewer empty cells, then lower workload imbalance."
func better(a, b metrics.Snapshot) bool {
	if a.OverallScore != b.OverallScore {
		return a.OverallScore > b.OverallScore
	}
	if a.EmptyCells != b.EmptyCells {
		return a.EmptyCells < b.EmptyCells
	}
	return a.WorkloadImbalance < b.WorkloadImbalance
}
