package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

func setup(t *testing.T, numShifts int) (*state.ScheduleState, Params, *model.Worker) {
	t.Helper()
	horizon := dateutil.NewHorizon(
		dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-02-28"),
		numShifts, nil, nil,
	)
	require.NoError(t, horizon.Validate())
	w := model.NewWorker("alice", 100, 20)
	st := state.New(horizon, []*model.Worker{w})
	params := Params{
		Horizon:                horizon,
		GapBetweenShifts:       2,
		MaxConsecutiveWeekends: 2,
		WeekendTolerance:       1,
		Enforce7And14Pattern:   true,
	}
	return st, params, w
}

func TestCanAssignHappyPath(t *testing.T) {
	st, params, w := setup(t, 2)
	d := dateutil.MustParse("2025-01-01")
	dec := CanAssign(st, params, w, d, 0, Level0, "")
	assert.True(t, dec.Ok())
}

func TestCanAssignRejectsOccupiedCell(t *testing.T) {
	st, params, w := setup(t, 2)
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "bob"))
	dec := CanAssign(st, params, w, d, 0, Level0, "")
	assert.Equal(t, CellOccupied, dec.Reason)
}

func TestCanAssignRejectsSameDayConflict(t *testing.T) {
	st, params, w := setup(t, 2)
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "alice"))
	dec := CanAssign(st, params, w, d, 1, Level0, "")
	assert.Equal(t, SameDayConflict, dec.Reason)
}

func TestCanAssignRejectsDayOff(t *testing.T) {
	st, params, w := setup(t, 2)
	d := dateutil.MustParse("2025-01-01")
	w.DaysOff.Insert(d)
	dec := CanAssign(st, params, w, d, 0, Level0, "")
	assert.Equal(t, DayOff, dec.Reason)
}

func TestCanAssignGapViolation(t *testing.T) {
	st, params, w := setup(t, 2)
	d1 := dateutil.MustParse("2025-01-01")
	d2 := dateutil.MustParse("2025-01-02")
	require.NoError(t, st.Assign(d1, 0, "alice"))
	dec := CanAssign(st, params, w, d2, 0, Level0, "")
	assert.Equal(t, GapViolation, dec.Reason)
}

func TestCanAssignGapRelaxedAtLevel2NearTarget(t *testing.T) {
	st, params, w := setup(t, 2)
	w.TargetShifts = 3
	d1 := dateutil.MustParse("2025-01-01")
	d2 := dateutil.MustParse("2025-01-02")
	require.NoError(t, st.Assign(d1, 0, "alice")) // count=1, target-3 = 0, 1>=0
	dec := CanAssign(st, params, w, d2, 0, Level2, "")
	assert.True(t, dec.Ok())
}

func TestCanAssign7And14PatternNeverRelaxed(t *testing.T) {
	st, params, w := setup(t, 2)
	w.TargetShifts = 40
	d1 := dateutil.MustParse("2025-01-01") // Wednesday
	d2 := d1.AddDays(7)
	require.NoError(t, st.Assign(d1, 0, "alice"))
	for _, lvl := range []Level{Level0, Level1, Level2} {
		dec := CanAssign(st, params, w, d2, 0, lvl, "")
		assert.Equal(t, Pattern7And14, dec.Reason, "level %d", lvl)
	}
}

func TestCanAssignIncompatibility(t *testing.T) {
	st, params, w := setup(t, 2)
	w.IncompatibleWith.Insert("bob")
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "bob"))
	dec := CanAssign(st, params, w, d, 1, Level0, "")
	assert.Equal(t, Incompatibility, dec.Reason)
	assert.Equal(t, "bob", dec.OtherWorkerID)
}

func TestCanAssignOverTarget(t *testing.T) {
	st, params, w := setup(t, 1)
	w.TargetShifts = 1
	d1 := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d1, 0, "alice"))
	d2 := d1.AddDays(30)
	dec := CanAssign(st, params, w, d2, 0, Level0, "")
	assert.Equal(t, OverTarget, dec.Reason)
}

func TestPhaseCeilingsRounding(t *testing.T) {
	assert.Equal(t, 11, Phase1Ceiling(10))
	assert.Equal(t, 11, Phase2Ceiling(10))
	assert.Equal(t, 22, Phase1Ceiling(20))
	assert.Equal(t, 22, Phase2Ceiling(20))
}
