package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
)

func testHorizon() *dateutil.Horizon {
	h := dateutil.NewHorizon(
		dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-07"),
		2, nil, nil,
	)
	return h
}

func TestAssignUnassignRoundTrip(t *testing.T) {
	w := model.NewWorker("alice", 100, 3)
	st := New(testHorizon(), []*model.Worker{w})
	d := dateutil.MustParse("2025-01-01")

	require.NoError(t, st.Assign(d, 0, "alice"))
	assert.Equal(t, 1, st.ShiftCount("alice"))
	assert.True(t, st.WorkerAssignedOn("alice", d))
	cell, ok := st.Cell(d, 0)
	require.True(t, ok)
	assert.Equal(t, "alice", cell.WorkerID)

	require.NoError(t, st.Unassign(d, 0))
	assert.Equal(t, 0, st.ShiftCount("alice"))
	assert.False(t, st.WorkerAssignedOn("alice", d))
}

func TestAssignRefusesOccupiedCell(t *testing.T) {
	w := model.NewWorker("alice", 100, 3)
	st := New(testHorizon(), []*model.Worker{w})
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "alice"))
	err := st.Assign(d, 0, "bob")
	assert.Error(t, err)
}

func TestLockedMandatoryCannotBeUnassigned(t *testing.T) {
	w := model.NewWorker("alice", 100, 3)
	st := New(testHorizon(), []*model.Worker{w})
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "alice"))
	st.LockMandatory("alice", d)

	err := st.Unassign(d, 0)
	assert.Error(t, err)
	cell, _ := st.Cell(d, 0)
	assert.Equal(t, "alice", cell.WorkerID)
}

func TestValidateCatchesDoubleBooking(t *testing.T) {
	w := model.NewWorker("alice", 100, 3)
	st := New(testHorizon(), []*model.Worker{w})
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "alice"))
	// Force an inconsistent grid directly, bypassing Assign, to exercise
	// SynchronizeTracking + Validate.
	st.schedule[d][1].WorkerID = "alice"
	st.SynchronizeTracking()
	err := st.Validate()
	assert.Error(t, err)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	w := model.NewWorker("alice", 100, 3)
	st := New(testHorizon(), []*model.Worker{w})
	d := dateutil.MustParse("2025-01-01")
	require.NoError(t, st.Assign(d, 0, "alice"))
	st.LockMandatory("alice", d)

	snap := st.Snapshot()

	d2 := dateutil.MustParse("2025-01-02")
	require.NoError(t, st.Assign(d2, 0, "alice"))
	assert.Equal(t, 2, st.ShiftCount("alice"))

	st.Restore(snap)
	assert.Equal(t, 1, st.ShiftCount("alice"))
	assert.True(t, st.IsLockedMandatory("alice", d))
	assert.NoError(t, st.Validate())
}

// TestSnapshotCloneKeepsDistinctDateKeys guards against a reflection-based
// deep copier silently collapsing every Date key to the zero Date (Date
// wraps an unexported time.Time): cloning a multi-date snapshot must
// preserve each date's own cell contents independently.
func TestSnapshotCloneKeepsDistinctDateKeys(t *testing.T) {
	w := model.NewWorker("alice", 100, 3)
	st := New(testHorizon(), []*model.Worker{w})
	d1 := dateutil.MustParse("2025-01-01")
	d2 := dateutil.MustParse("2025-01-02")
	require.NoError(t, st.Assign(d1, 0, "alice"))

	snap := st.Snapshot()
	clone := snap.Clone()

	require.Len(t, clone.Cells, len(snap.Cells))
	require.Contains(t, clone.Cells, d1)
	require.Contains(t, clone.Cells, d2)
	assert.Equal(t, "alice", clone.Cells[d1][0].WorkerID)
	assert.Equal(t, "", clone.Cells[d2][0].WorkerID)

	// Mutating the clone's slice must not alias the original snapshot's.
	clone.Cells[d1][0].WorkerID = "bob"
	assert.Equal(t, "alice", snap.Cells[d1][0].WorkerID)
}
