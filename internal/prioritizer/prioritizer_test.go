package prioritizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/metrics"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

func newTestState(t *testing.T) *state.ScheduleState {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-07"), 1, nil, nil)
	w := model.NewWorker("a", 100, 5)
	return state.New(h, []*model.Worker{w})
}

func TestPlanPrioritizesFillWhenEmptyCells(t *testing.T) {
	st := newTestState(t)
	p := New()
	snap := metrics.Snapshot{EmptyCells: 3}

	plan := p.Plan(st, snap, 1, false)

	require := assert.New(t)
	require.NotEmpty(plan)
	require.Equal(OpFillEmptyShifts, plan[0].Name)
}

func TestPlanIncludesSyncPeriodically(t *testing.T) {
	st := newTestState(t)
	p := New()
	snap := metrics.Snapshot{}

	plan := p.Plan(st, snap, 5, false)

	found := false
	for _, op := range plan {
		if op.Name == OpSynchronizeTracking {
			found = true
		}
	}
	assert.True(t, found)
}

func TestShouldSkipOneTimeOnly(t *testing.T) {
	p := New()
	sig := Signature{EmptyCells: 2, Breaches: 0}

	assert.False(t, p.ShouldSkip(OpBalanceWorkloads, sig))
	p.RecordResult(OpBalanceWorkloads, sig, 0)
	assert.True(t, p.ShouldSkip(OpBalanceWorkloads, sig))
	assert.False(t, p.ShouldSkip(OpBalanceWorkloads, sig))

	p.RecordResult(OpBalanceWorkloads, sig, 0)
	otherSig := Signature{EmptyCells: 1, Breaches: 0}
	assert.False(t, p.ShouldSkip(OpBalanceWorkloads, otherSig))
}

func TestShouldSkipFalseWhenNonZeroResult(t *testing.T) {
	p := New()
	sig := Signature{EmptyCells: 2, Breaches: 0}
	p.RecordResult(OpBalanceWorkloads, sig, 12.5)
	assert.False(t, p.ShouldSkip(OpBalanceWorkloads, sig))
}
