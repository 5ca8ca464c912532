// Package optimizer implements IterativeOptimizer (spec §4.4): targeted
// redistribution of shifts from over-target to under-target workers
// until tolerance violations reach zero or a budget is exhausted, with a
// stagnation-scaled random perturbation to escape local minima.
package optimizer

import (
	"math/rand"

	"github.com/saldo27/shiftsched/internal/builder"
	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/metrics"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
	"github.com/saldo27/shiftsched/internal/tolerance"
)

// stagnationStopThreshold is the "3 consecutive iterations with identical
// violation counts -> stop" rule of spec §4.4.
const stagnationStopThreshold = 3

// perturbationViolationTrigger / perturbationStagnationTrigger gate the
// optional perturbation, recovered from
// original_source/iterative_optimizer.py: "iteration > 1 and
// (total_violations > 15 or stagnation_counter > 1)".
const (
	perturbationViolationTrigger  = 15
	perturbationStagnationTrigger = 1
)

// Result summarizes one optimize run.
type Result struct {
	Iterations int
	Converged  bool
	StopReason string
}

// Run drives the optimization loop for up to maxIterations, applying
// swaps between violators each iteration (spec §4.4 steps 1-4), stopping
// on convergence, stagnation, score plateau, or the hard cap. seed makes
// the perturbation step deterministic for a given run.
func Run(st *state.ScheduleState, params constraint.Params, workers []*model.Worker, tracker *metrics.Tracker, maxIterations int, seed int64) Result {
	r := rand.New(rand.NewSource(seed))
	b := builder.New(st, params, workers)

	identicalViolationStreak := 0
	lastViolationCount := -1
	stagnationCounter := 0

	for iter := 1; iter <= maxIterations; iter++ {
		devs := tolerance.Evaluate(st, workers)
		violators := tolerance.Violators(devs, tolerance.WithinPhase1)
		if len(violators) == 0 {
			return Result{Iterations: iter - 1, Converged: true, StopReason: "converged"}
		}

		if len(violators) == lastViolationCount {
			identicalViolationStreak++
		} else {
			identicalViolationStreak = 0
		}
		lastViolationCount = len(violators)
		if identicalViolationStreak >= stagnationStopThreshold {
			return Result{Iterations: iter - 1, Converged: false, StopReason: "stagnation"}
		}

		improved := runOneIteration(st, params, workers, violators)
		score := metrics.Evaluate(st, workers)
		if tracker != nil {
			tracker.RecordIterationResult(iter, []string{"tolerance_swap"}, score.OverallScore)
			if tracker.ScorePlateaued() {
				return Result{Iterations: iter, Converged: false, StopReason: "plateau"}
			}
		}

		if !improved {
			stagnationCounter++
		} else {
			stagnationCounter = 0
		}

		if iter > 1 && (len(violators) > perturbationViolationTrigger || stagnationCounter > perturbationStagnationTrigger) {
			intensity := minFloat(1.0, 0.3+float64(stagnationCounter)*0.2)
			perturbationIntensity := minFloat(intensity*0.8, 0.4)
			applyRandomPerturbation(st, params, workers, b, r, perturbationIntensity)
		}
	}
	return Result{Iterations: maxIterations, Converged: false, StopReason: "hard_cap_reached"}
}

// runOneIteration implements spec §4.4's per-iteration steps 1-4: for
// each (excess, need) pair locate a legal, later-dated shift to move and
// apply it atomically. Returns whether any swap succeeded.
func runOneIteration(st *state.ScheduleState, params constraint.Params, workers []*model.Worker, violators []tolerance.Deviation) bool {
	need, excess := tolerance.Partition(violators)
	any := false
	for _, over := range excess {
		for i := 0; i < len(need); i++ {
			under := need[i]
			if trySwapLaterDatePreferred(st, params, workers, over.WorkerID, under.WorkerID) {
				any = true
				need = append(need[:i], need[i+1:]...)
				break
			}
		}
	}
	return any
}

// trySwapLaterDatePreferred finds a cell overID occupies that underID
// could legally take instead, preferring later dates first ("less
// disruptive future", spec §4.4 step 2), and applies the swap.
func trySwapLaterDatePreferred(st *state.ScheduleState, params constraint.Params, workers []*model.Worker, overID, underID string) bool {
	under := workerByID(workers, underID)
	if under == nil {
		return false
	}
	dates := st.AssignmentDates(overID)
	sortDescending(dates)
	for _, d := range dates {
		if st.IsLockedMandatory(overID, d) {
			continue
		}
		post := postOf(st, overID, d)
		if post < 0 {
			continue
		}
		if !builder.CanSwapInto(st, params, under, d, post) {
			continue
		}
		if builder.ApplySwap(st, overID, underID, d, post) {
			return true
		}
	}
	return false
}

func sortDescending(dates []dateutil.Date) {
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j].After(dates[j-1]); j-- {
			dates[j], dates[j-1] = dates[j-1], dates[j]
		}
	}
}

func postOf(st *state.ScheduleState, workerID string, d dateutil.Date) int {
	for _, c := range st.CellsOn(d) {
		if c.WorkerID == workerID {
			return c.Post
		}
	}
	return -1
}

func workerByID(workers []*model.Worker, id string) *model.Worker {
	for _, w := range workers {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// applyRandomPerturbation mirrors
// original_source/iterative_optimizer.py's _apply_random_perturbations:
// it picks a handful of random, non-mandatory assignments (scaled by
// intensity) and tries to relocate each to a random empty cell, always
// re-checking the full constraint evaluator before accepting — the
// perturbation never bypasses feasibility.
func applyRandomPerturbation(st *state.ScheduleState, params constraint.Params, workers []*model.Worker, b *builder.Builder, r *rand.Rand, intensity float64) {
	total := st.TotalCellCount() - st.EmptyCellCount()
	numSwaps := int(float64(total) * intensity)
	dates := params.Horizon.Dates()
	if len(dates) == 0 {
		return
	}
	for i := 0; i < numSwaps; i++ {
		w := workers[r.Intn(len(workers))]
		assigned := st.AssignmentDates(w.ID)
		if len(assigned) == 0 {
			continue
		}
		from := assigned[r.Intn(len(assigned))]
		if st.IsLockedMandatory(w.ID, from) {
			continue
		}
		fromPost := postOf(st, w.ID, from)
		if fromPost < 0 {
			continue
		}
		target := dates[r.Intn(len(dates))]
		posts := params.Horizon.PostsOn(target)
		if posts == 0 {
			continue
		}
		toPost := r.Intn(posts)
		cell, ok := st.Cell(target, toPost)
		if !ok || !cell.Empty() {
			continue
		}
		dec := constraint.CanAssign(st, params, w, target, toPost, constraint.Level0, "")
		if !dec.Ok() {
			continue
		}
		if st.Unassign(from, fromPost) != nil {
			continue
		}
		if st.Assign(target, toPost, w.ID) != nil {
			_ = st.Assign(from, fromPost, w.ID)
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
