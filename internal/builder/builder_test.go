package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

func testParams(h *dateutil.Horizon) constraint.Params {
	return constraint.Params{
		Horizon:                h,
		GapBetweenShifts:       2,
		MaxConsecutiveWeekends: 3,
		WeekendTolerance:       1,
		Enforce7And14Pattern:   true,
	}
}

func TestAssignMandatoryGuardsPlacesAndLocks(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-31"), 2, nil, nil)
	w := model.NewWorker("alice", 100, 8)
	w.MandatoryDates.Insert(dateutil.MustParse("2025-01-10"))
	st := state.New(h, []*model.Worker{w})

	b := New(st, testParams(h), []*model.Worker{w})
	require.NoError(t, b.AssignMandatoryGuards())

	assert.True(t, st.IsLockedMandatory("alice", dateutil.MustParse("2025-01-10")))
	assert.Equal(t, 1, st.ShiftCount("alice"))
	assert.Error(t, st.Unassign(dateutil.MustParse("2025-01-10"), 0))
}

func TestAssignMandatoryGuardsReportsInfeasibleMandatory(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-31"), 1, nil, nil)
	mandDate := dateutil.MustParse("2025-01-10")
	w := model.NewWorker("alice", 100, 8)
	w.MandatoryDates.Insert(mandDate)
	w.DaysOff.Insert(mandDate)
	st := state.New(h, []*model.Worker{w})

	b := New(st, testParams(h), []*model.Worker{w})
	err := b.AssignMandatoryGuards()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice")
}

func TestTryFillEmptyShiftsFillsAllCells(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-07"), 1, nil, nil)
	w1 := model.NewWorker("a", 100, 4)
	w2 := model.NewWorker("b", 100, 3)
	st := state.New(h, []*model.Worker{w1, w2})

	b := New(st, testParams(h), []*model.Worker{w1, w2})
	b.TryFillEmptyShifts(BalancedSequential, 1)

	assert.Equal(t, 0, st.EmptyCellCount())
	require.NoError(t, st.Validate())
}

func TestBalanceWorkloadsMovesShiftTowardUnderTarget(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-02-28"), 1, nil, nil)
	over := model.NewWorker("over", 100, 2)
	under := model.NewWorker("under", 100, 10)
	st := state.New(h, []*model.Worker{over, under})
	for i := 0; i < 6; i++ {
		require.NoError(t, st.Assign(dateutil.MustParse("2025-01-01").AddDays(i*5), 0, "over"))
	}

	b := New(st, testParams(h), []*model.Worker{over, under})
	transfers := b.BalanceWorkloads()

	assert.Equal(t, 1, transfers)
	assert.Equal(t, 1, st.ShiftCount("under"))
	require.NoError(t, st.Validate())
}

func TestAdjustLastPostDistributionRespectsTolerance(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-10"), 2, nil, nil)
	w1 := model.NewWorker("a", 100, 5)
	w2 := model.NewWorker("b", 100, 5)
	st := state.New(h, []*model.Worker{w1, w2})

	b := New(st, testParams(h), []*model.Worker{w1, w2})
	b.TryFillEmptyShifts(BalancedSequential, 1)

	moves := b.AdjustLastPostDistribution(1, 5)
	assert.GreaterOrEqual(t, moves, 0)
	require.NoError(t, st.Validate())
}

func TestCanSwapIntoAllowsDisplacingCurrentOccupant(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-10"), 1, nil, nil)
	w1 := model.NewWorker("a", 100, 5)
	w2 := model.NewWorker("b", 100, 5)
	st := state.New(h, []*model.Worker{w1, w2})
	require.NoError(t, st.Assign(dateutil.MustParse("2025-01-05"), 0, "a"))

	ok := CanSwapInto(st, testParams(h), w2, dateutil.MustParse("2025-01-05"), 0)
	assert.True(t, ok)
}

func TestApplySwapRollsBackOnFailure(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-10"), 1, nil, nil)
	w1 := model.NewWorker("a", 100, 5)
	w2 := model.NewWorker("b", 100, 5)
	st := state.New(h, []*model.Worker{w1, w2})
	d := dateutil.MustParse("2025-01-05")
	require.NoError(t, st.Assign(d, 0, "a"))
	// Make w2 already assigned same day elsewhere isn't needed; instead make
	// w2 assigned on the SAME date via a second post to force same-day
	// conflict on the swap target.
	h2 := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-10"), 2, nil, nil)
	st2 := state.New(h2, []*model.Worker{w1, w2})
	require.NoError(t, st2.Assign(d, 0, "a"))
	require.NoError(t, st2.Assign(d, 1, "b"))

	ok := ApplySwap(st2, "a", "b", d, 0)
	assert.False(t, ok)
	cell, _ := st2.Cell(d, 0)
	assert.Equal(t, "a", cell.WorkerID)
}
