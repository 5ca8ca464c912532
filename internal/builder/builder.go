// Package builder implements spec §4.2's ScheduleBuilder: mandatory
// placement, fill/balance primitives, and candidate scoring.
package builder

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/saldo27/shiftsched/internal/balance"
	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
	"github.com/saldo27/shiftsched/internal/tolerance"
)

// Builder wraps a ScheduleState with the constraint parameters needed to
// evaluate candidate placements.
type Builder struct {
	State   *state.ScheduleState
	Params  constraint.Params
	Workers []*model.Worker
}

// New constructs a Builder over st.
func New(st *state.ScheduleState, params constraint.Params, workers []*model.Worker) *Builder {
	return &Builder{State: st, Params: params, Workers: workers}
}

func (b *Builder) workerByID(id string) *model.Worker {
	for _, w := range b.Workers {
		if w.ID == id {
			return w
		}
	}
	return nil
}

// AssignMandatoryGuards places every worker on every one of their
// mandatory dates, choosing the first post that satisfies the evaluator
// with the target ceiling excluded (spec §4.2). Every infeasible
// placement is collected (not just the first) before returning a fatal,
// aggregated error — spec §7's "infeasible mandatory layout" diagnostic
// names every offending pair.
func (b *Builder) AssignMandatoryGuards() error {
	var result *multierror.Error
	for _, w := range b.Workers {
		for _, d := range w.MandatoryDates.Slice() {
			if err := b.placeMandatory(w, d); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

func (b *Builder) placeMandatory(w *model.Worker, d dateutil.Date) error {
	posts := b.State.Horizon.PostsOn(d)
	var last constraint.Decision
	for post := 0; post < posts; post++ {
		dec := b.canAssignIgnoringTarget(w, d, post)
		if dec.Ok() {
			if err := b.State.Assign(d, post, w.ID); err != nil {
				return fmt.Errorf("mandatory placement %s on %s: %w", w.ID, d, err)
			}
			b.State.LockMandatory(w.ID, d)
			return nil
		}
		last = dec
	}
	return fmt.Errorf("mandatory placement infeasible: worker %s on %s (no post satisfies constraints, last refusal %q; already assigned that day: %v)",
		w.ID, d, last.Error(), b.State.WorkersOnDate(d))
}

// canAssignIgnoringTarget evaluates every constraint step except the
// target ceiling, per spec §4.2's "Mandatory placements never fail due to
// target ceilings."
func (b *Builder) canAssignIgnoringTarget(w *model.Worker, d dateutil.Date, post int) constraint.Decision {
	dec := constraint.CanAssign(b.State, b.Params, w, d, post, constraint.Level0, "")
	if dec.Reason == constraint.OverTarget {
		return constraint.Decision{Reason: constraint.OK}
	}
	return dec
}

// TryFillEmptyShifts iterates empty cells across the horizon and assigns
// the first candidate (in worker-order-policy order) that passes the
// evaluator at relaxation level 0. Returns whether any cell was filled.
func (b *Builder) TryFillEmptyShifts(policy OrderPolicy, seed int64) bool {
	filled := false
	for _, d := range b.State.Horizon.Dates() {
		posts := b.State.Horizon.PostsOn(d)
		for post := 0; post < posts; post++ {
			cell, ok := b.State.Cell(d, post)
			if !ok || !cell.Empty() {
				continue
			}
			ordered := OrderWorkers(policy, b.Workers, b.State, seed)
			for _, w := range ordered {
				if !constraint.CanAssign(b.State, b.Params, w, d, post, constraint.Level0, "").Ok() {
					continue
				}
				if err := b.State.Assign(d, post, w.ID); err == nil {
					filled = true
					break
				}
			}
		}
	}
	return filled
}

// bestCandidate returns the highest-scoring feasible candidate from
// ordered, or nil. Among equal scores the worker earlier in ordered wins.
// TryFillEmptyShifts does not use it: it takes the first feasible
// candidate in ordering-policy order (spec §4.2).
func (b *Builder) bestCandidate(ordered []*model.Worker, d dateutil.Date, post int) *model.Worker {
	var best *model.Worker
	var bestScore float64
	for _, w := range ordered {
		dec := constraint.CanAssign(b.State, b.Params, w, d, post, constraint.Level0, "")
		if !dec.Ok() {
			continue
		}
		s := WorkerScore(b.State, w, d, post)
		if best == nil || s > bestScore {
			best = w
			bestScore = s
		}
	}
	return best
}

// BalanceWorkloads identifies workers outside target +/- weekend_tolerance
// worth of deviation and attempts to move a shift from an over-target
// worker to an under-target one via direct reassignment or a 2-cycle swap
// (spec §4.2.3). Returns the number of successful transfers.
func (b *Builder) BalanceWorkloads() int {
	devs := tolerance.Evaluate(b.State, b.Workers)
	var violators []tolerance.Deviation
	for _, d := range tolerance.Violators(devs, tolerance.WithinObjective) {
		if d.Delta > b.Params.WeekendTolerance || d.Delta < -b.Params.WeekendTolerance {
			violators = append(violators, d)
		}
	}
	need, excess := tolerance.Partition(violators)

	transfers := 0
	for _, over := range excess {
		for i := 0; i < len(need); i++ {
			under := need[i]
			if b.transferOneShift(over.WorkerID, under.WorkerID) {
				transfers++
				need = append(need[:i], need[i+1:]...)
				break
			}
		}
	}
	return transfers
}

// transferOneShift finds a date where overID holds a (non-locked) shift
// that underID could legally take instead, and performs the swap.
func (b *Builder) transferOneShift(overID, underID string) bool {
	over := b.workerByID(overID)
	under := b.workerByID(underID)
	if over == nil || under == nil {
		return false
	}
	for _, d := range b.State.AssignmentDates(overID) {
		if b.State.IsLockedMandatory(overID, d) {
			continue
		}
		post := b.postOf(overID, d)
		if post < 0 {
			continue
		}
		if !CanSwapInto(b.State, b.Params, under, d, post) {
			continue
		}
		beforeOver := deviationOf(b.State, over)
		beforeUnder := deviationOf(b.State, under)
		if !ApplySwap(b.State, overID, under.ID, d, post) {
			continue
		}
		afterOver := deviationOf(b.State, over)
		afterUnder := deviationOf(b.State, under)
		if balance.TransferLegal(beforeOver, afterOver, beforeUnder, afterUnder) {
			return true
		}
		// Revert: the legality check failed even though the mechanical
		// swap succeeded.
		RevertSwap(b.State, under.ID, overID, d, post)
	}
	return false
}

func deviationOf(st *state.ScheduleState, w *model.Worker) tolerance.Deviation {
	devs := tolerance.Evaluate(st, []*model.Worker{w})
	return devs[0]
}

func (b *Builder) postOf(workerID string, d dateutil.Date) int {
	for _, c := range b.State.CellsOn(d) {
		if c.WorkerID == workerID {
			return c.Post
		}
	}
	return -1
}

// BalanceWeekdayDistribution uses the same skeleton as BalanceWorkloads,
// but the imbalance metric is max-min of worker_weekdays[w] across
// weekdays (spec §4.2). For each worker whose counts differ by at least 2,
// it moves one non-locked shift from their most over-represented weekday
// to an empty cell on their most under-represented one that the evaluator
// allows. Returns the number of workers moved.
func (b *Builder) BalanceWeekdayDistribution() int {
	transfers := 0
	for _, w := range b.Workers {
		hi, lo := mostAndLeastUsedWeekday(b.State, w)
		if hi == lo {
			continue
		}
		if b.moveOneFromWeekday(w, hi, lo) {
			transfers++
		}
	}
	return transfers
}

func mostAndLeastUsedWeekday(st *state.ScheduleState, w *model.Worker) (hi, lo int) {
	counts := make([]int, 7)
	for wd := 0; wd < 7; wd++ {
		counts[wd] = st.WeekdayCount(w.ID, wd)
	}
	hi, lo = 0, 0
	for wd := 1; wd < 7; wd++ {
		if counts[wd] > counts[hi] {
			hi = wd
		}
		if counts[wd] < counts[lo] {
			lo = wd
		}
	}
	if counts[hi]-counts[lo] < 2 {
		return hi, hi // no meaningful imbalance
	}
	return hi, lo
}

func (b *Builder) moveOneFromWeekday(w *model.Worker, fromWeekday, toWeekday int) bool {
	for _, d := range b.State.AssignmentDates(w.ID) {
		if d.Weekday() != fromWeekday || b.State.IsLockedMandatory(w.ID, d) {
			continue
		}
		post := b.postOf(w.ID, d)
		if post < 0 {
			continue
		}
		for _, target := range b.State.Horizon.Dates() {
			if target.Weekday() != toWeekday {
				continue
			}
			for p := 0; p < b.State.Horizon.PostsOn(target); p++ {
				cell, ok := b.State.Cell(target, p)
				if !ok || !cell.Empty() {
					continue
				}
				dec := constraint.CanAssign(b.State, b.Params, w, target, p, constraint.Level0, "")
				if !dec.Ok() {
					continue
				}
				if b.State.Unassign(d, post) != nil {
					continue
				}
				if b.State.Assign(target, p, w.ID) != nil {
					_ = b.State.Assign(d, post, w.ID)
					continue
				}
				return true
			}
		}
	}
	return false
}

// AdjustLastPostDistribution equalizes, across workers, how often each
// worker lands on the numerically last post each day, within
// balanceTolerance, over at most maxIterations passes (spec §4.2).
func (b *Builder) AdjustLastPostDistribution(balanceTolerance int, maxIterations int) int {
	totalMoves := 0
	for iter := 0; iter < maxIterations; iter++ {
		hi, lo, diff := mostAndLeastLastPostUsers(b.State, b.Workers)
		if hi == nil || lo == nil || diff <= balanceTolerance {
			break
		}
		if !b.moveOneLastPostAssignment(hi, lo) {
			break
		}
		totalMoves++
	}
	return totalMoves
}

func lastPostOf(st *state.ScheduleState, d dateutil.Date) int {
	return st.Horizon.PostsOn(d) - 1
}

func mostAndLeastLastPostUsers(st *state.ScheduleState, workers []*model.Worker) (hi, lo *model.Worker, diff int) {
	if len(workers) == 0 {
		return nil, nil, 0
	}
	counts := make(map[string]int, len(workers))
	for _, w := range workers {
		for _, d := range st.AssignmentDates(w.ID) {
			if b := st.CellsOn(d); len(b) > 0 {
				for _, c := range b {
					if c.WorkerID == w.ID && c.Post == lastPostOf(st, d) {
						counts[w.ID]++
					}
				}
			}
		}
	}
	hi, lo = workers[0], workers[0]
	for _, w := range workers[1:] {
		if counts[w.ID] > counts[hi.ID] {
			hi = w
		}
		if counts[w.ID] < counts[lo.ID] {
			lo = w
		}
	}
	return hi, lo, counts[hi.ID] - counts[lo.ID]
}

func (b *Builder) moveOneLastPostAssignment(hi, lo *model.Worker) bool {
	for _, d := range b.State.AssignmentDates(hi.ID) {
		post := lastPostOf(b.State, d)
		if b.postOf(hi.ID, d) != post || b.State.IsLockedMandatory(hi.ID, d) {
			continue
		}
		if !CanSwapInto(b.State, b.Params, lo, d, post) {
			continue
		}
		if ApplySwap(b.State, hi.ID, lo.ID, d, post) {
			return true
		}
	}
	return false
}
