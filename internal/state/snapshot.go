package state

import (
	hset "github.com/hashicorp/go-set/v3"
	"github.com/saldo27/shiftsched/internal/dateutil"
)

// Snapshot is a plain-data copy of a ScheduleState's grid and locked
// set, kept separate from ScheduleState itself (which holds go-set.Set
// values) so it can be deep-copied with the hand-written Clone below;
// internal/backtrack stores checkpoints that way.
type Snapshot struct {
	Cells           map[dateutil.Date][]CellSnapshot
	LockedMandatory []LockedSnapshot
}

// CellSnapshot is one (post, worker) pair on a date.
type CellSnapshot struct {
	Post     int
	WorkerID string
}

// LockedSnapshot is one locked (worker, date) pair.
type LockedSnapshot struct {
	WorkerID string
	Date     dateutil.Date
}

// Snapshot captures the grid and locked-mandatory set as plain data.
// Derived counters are intentionally excluded: Restore rebuilds them via
// SynchronizeTracking, so the grid is the only source of truth that needs
// copying (spec §3: derived structures must be consistent with the grid).
func (s *ScheduleState) Snapshot() *Snapshot {
	snap := &Snapshot{
		Cells: make(map[dateutil.Date][]CellSnapshot, len(s.schedule)),
	}
	for d, cells := range s.schedule {
		cs := make([]CellSnapshot, len(cells))
		for i, c := range cells {
			cs[i] = CellSnapshot{Post: c.Post, WorkerID: c.WorkerID}
		}
		snap.Cells[d] = cs
	}
	for _, k := range s.lockedMandatory.Slice() {
		snap.LockedMandatory = append(snap.LockedMandatory, LockedSnapshot{WorkerID: k.WorkerID, Date: k.Date})
	}
	return snap
}

// Clone deep-copies snap. dateutil.Date wraps an unexported time.Time, so a
// reflection-based copier such as mitchellh/copystructure silently drops it
// (unexported fields are skipped), collapsing every Date key/value to the
// zero Date. Snapshot's fields are otherwise plain strings/ints/maps/slices,
// so a hand-written copy is straightforward and avoids that trap.
func (snap *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		Cells:           make(map[dateutil.Date][]CellSnapshot, len(snap.Cells)),
		LockedMandatory: make([]LockedSnapshot, len(snap.LockedMandatory)),
	}
	for d, cells := range snap.Cells {
		cs := make([]CellSnapshot, len(cells))
		copy(cs, cells)
		clone.Cells[d] = cs
	}
	copy(clone.LockedMandatory, snap.LockedMandatory)
	return clone
}

// Restore replaces the grid and locked-mandatory set from snap and
// resynchronizes every derived counter.
func (s *ScheduleState) Restore(snap *Snapshot) {
	for d, cs := range snap.Cells {
		cur := s.schedule[d]
		for i := range cur {
			if i < len(cs) {
				cur[i].WorkerID = cs[i].WorkerID
			} else {
				cur[i].WorkerID = ""
			}
		}
		s.schedule[d] = cur
	}
	locked := hset.New[lockedKey](len(snap.LockedMandatory))
	for _, l := range snap.LockedMandatory {
		locked.Insert(lockedKey{WorkerID: l.WorkerID, Date: l.Date})
	}
	s.lockedMandatory = locked
	s.SynchronizeTracking()
}
