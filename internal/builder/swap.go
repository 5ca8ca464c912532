package builder

import (
	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

// CanSwapInto reports whether candidate could legally occupy (date, post)
// if its current occupant were removed first, per the evaluator's
// swap-displacement parameter (spec §4.1's swapDisplacing hook, §4.2.3).
func CanSwapInto(st *state.ScheduleState, params constraint.Params, candidate *model.Worker, date dateutil.Date, post int) bool {
	cell, ok := st.Cell(date, post)
	if !ok {
		return false
	}
	dec := constraint.CanAssign(st, params, candidate, date, post, constraint.Level0, cell.WorkerID)
	return dec.Ok()
}

// ApplySwap performs the atomic two-step displacement at (date, post):
// unassign fromID, then assign toID. If the second step fails, the first
// is rolled back so the cell's occupancy never ends in a worse state than
// it started (spec §4.2.3's "atomic 2-cycle swap protocol").
func ApplySwap(st *state.ScheduleState, fromID, toID string, date dateutil.Date, post int) bool {
	if err := st.Unassign(date, post); err != nil {
		return false
	}
	if err := st.Assign(date, post, toID); err != nil {
		_ = st.Assign(date, post, fromID)
		return false
	}
	return true
}

// RevertSwap undoes a completed ApplySwap, restoring fromID to (date,
// post) in place of toID.
func RevertSwap(st *state.ScheduleState, toID, fromID string, date dateutil.Date, post int) bool {
	if err := st.Unassign(date, post); err != nil {
		return false
	}
	if err := st.Assign(date, post, fromID); err != nil {
		_ = st.Assign(date, post, toID)
		return false
	}
	return true
}
