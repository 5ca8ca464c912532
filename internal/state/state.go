// Package state owns ScheduleState, the canonical mutable grid and its
// derived tracking structures (spec §3). Every mutation that doesn't go
// through Assign/Unassign must call SynchronizeTracking before returning,
// per spec §5's "synchronize_tracking_data" contract.
package state

import (
	"fmt"
	"sort"

	hset "github.com/hashicorp/go-set/v3"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
)

type lockedKey struct {
	WorkerID string
	Date     dateutil.Date
}

// ScheduleState is the single owner of the cell grid and every counter
// derived from it (spec §3). All mutation flows through its methods; there
// is no other writer.
type ScheduleState struct {
	Horizon *dateutil.Horizon
	Workers []*model.Worker

	schedule map[dateutil.Date][]model.Cell

	workerAssignments   map[string]*hset.Set[dateutil.Date]
	workerShiftCounts   map[string]int
	workerWeekendCounts map[string]int
	workerHolidayCounts map[string]int
	workerPosts         map[string]*hset.Set[int]
	workerPostCounts    map[string]map[int]int
	workerWeekdays      map[string]map[int]int
	workerWeekends      map[string][]dateutil.Date
	lastAssignmentDate  map[string]dateutil.Date
	consecutiveShifts   map[string]int
	lockedMandatory     *hset.Set[lockedKey]
}

// New builds an empty ScheduleState over horizon for the given workers,
// with every date's cell slice pre-sized to that date's post count.
func New(horizon *dateutil.Horizon, workers []*model.Worker) *ScheduleState {
	st := &ScheduleState{
		Horizon:             horizon,
		Workers:             workers,
		schedule:            make(map[dateutil.Date][]model.Cell),
		workerAssignments:   make(map[string]*hset.Set[dateutil.Date]),
		workerShiftCounts:   make(map[string]int),
		workerWeekendCounts: make(map[string]int),
		workerHolidayCounts: make(map[string]int),
		workerPosts:         make(map[string]*hset.Set[int]),
		workerPostCounts:    make(map[string]map[int]int),
		workerWeekdays:      make(map[string]map[int]int),
		workerWeekends:      make(map[string][]dateutil.Date),
		lastAssignmentDate:  make(map[string]dateutil.Date),
		consecutiveShifts:   make(map[string]int),
		lockedMandatory:     hset.New[lockedKey](0),
	}
	for _, d := range horizon.Dates() {
		posts := horizon.PostsOn(d)
		cells := make([]model.Cell, posts)
		for p := 0; p < posts; p++ {
			cells[p] = model.Cell{Date: d, Post: p}
		}
		st.schedule[d] = cells
	}
	for _, w := range workers {
		st.workerAssignments[w.ID] = hset.New[dateutil.Date](0)
		st.workerPosts[w.ID] = hset.New[int](0)
		st.workerPostCounts[w.ID] = make(map[int]int)
		st.workerWeekdays[w.ID] = make(map[int]int)
	}
	return st
}

// Cell returns the cell at (date, post) and whether that slot exists.
func (s *ScheduleState) Cell(date dateutil.Date, post int) (model.Cell, bool) {
	cells, ok := s.schedule[date]
	if !ok || post < 0 || post >= len(cells) {
		return model.Cell{}, false
	}
	return cells[post], true
}

// CellsOn returns the ordered cells for date, or nil if date is outside the
// horizon.
func (s *ScheduleState) CellsOn(date dateutil.Date) []model.Cell {
	return s.schedule[date]
}

// Assign places worker on (date, post), updating every derived counter.
// It refuses to silently overwrite an occupied cell; callers must Unassign
// first (this mirrors spec §4.2.3's explicit two-step swap protocol). It
// also refuses a worker who already holds another post on date.
func (s *ScheduleState) Assign(date dateutil.Date, post int, workerID string) error {
	cells, ok := s.schedule[date]
	if !ok || post < 0 || post >= len(cells) {
		return fmt.Errorf("no such cell %s/%d", date, post)
	}
	if !cells[post].Empty() {
		return fmt.Errorf("cell %s/%d already occupied by %s", date, post, cells[post].WorkerID)
	}
	if s.WorkerAssignedOn(workerID, date) {
		return fmt.Errorf("worker %s already assigned on %s", workerID, date)
	}
	cells[post].WorkerID = workerID
	s.schedule[date] = cells

	s.ensureWorkerTracked(workerID)
	s.workerAssignments[workerID].Insert(date)
	s.workerShiftCounts[workerID]++
	s.workerPosts[workerID].Insert(post)
	s.workerPostCounts[workerID][post]++
	s.workerWeekdays[workerID][date.Weekday()]++
	if s.Horizon.IsWeekendOrHoliday(date) {
		s.workerWeekendCounts[workerID]++
		s.workerWeekends[workerID] = append(s.workerWeekends[workerID], date)
		sort.Slice(s.workerWeekends[workerID], func(i, j int) bool {
			return s.workerWeekends[workerID][i].Before(s.workerWeekends[workerID][j])
		})
	}
	if s.Horizon.IsHoliday(date) {
		s.workerHolidayCounts[workerID]++
	}
	if last, ok := s.lastAssignmentDate[workerID]; !ok || date.After(last) {
		s.lastAssignmentDate[workerID] = date
	}
	return nil
}

// Unassign clears (date, post), if it was occupied, and rolls back every
// counter Assign touched. Refuses to clear a locked_mandatory cell (spec
// §3: "removing or overwriting such a cell is a contract violation").
func (s *ScheduleState) Unassign(date dateutil.Date, post int) error {
	cells, ok := s.schedule[date]
	if !ok || post < 0 || post >= len(cells) {
		return fmt.Errorf("no such cell %s/%d", date, post)
	}
	workerID := cells[post].WorkerID
	if workerID == "" {
		return nil
	}
	if s.IsLockedMandatory(workerID, date) {
		return fmt.Errorf("cannot unassign locked mandatory cell %s/%d (worker %s)", date, post, workerID)
	}
	cells[post].WorkerID = ""
	s.schedule[date] = cells

	s.workerAssignments[workerID].Remove(date)
	s.workerShiftCounts[workerID]--
	s.workerPostCounts[workerID][post]--
	if s.workerPostCounts[workerID][post] == 0 {
		s.workerPosts[workerID].Remove(post)
	}
	s.workerWeekdays[workerID][date.Weekday()]--
	if s.Horizon.IsWeekendOrHoliday(date) {
		s.workerWeekendCounts[workerID]--
		s.workerWeekends[workerID] = removeDate(s.workerWeekends[workerID], date)
	}
	if s.Horizon.IsHoliday(date) {
		s.workerHolidayCounts[workerID]--
	}
	if last, ok := s.lastAssignmentDate[workerID]; ok && last.Equal(date) {
		s.lastAssignmentDate[workerID] = latestOf(s.workerAssignments[workerID].Slice())
	}
	return nil
}

func removeDate(dates []dateutil.Date, target dateutil.Date) []dateutil.Date {
	out := dates[:0]
	for _, d := range dates {
		if !d.Equal(target) {
			out = append(out, d)
		}
	}
	return out
}

func latestOf(dates []dateutil.Date) dateutil.Date {
	var best dateutil.Date
	for i, d := range dates {
		if i == 0 || d.After(best) {
			best = d
		}
	}
	return best
}

func (s *ScheduleState) ensureWorkerTracked(workerID string) {
	if _, ok := s.workerAssignments[workerID]; ok {
		return
	}
	s.workerAssignments[workerID] = hset.New[dateutil.Date](0)
	s.workerPosts[workerID] = hset.New[int](0)
	s.workerPostCounts[workerID] = make(map[int]int)
	s.workerWeekdays[workerID] = make(map[int]int)
}

// LockMandatory marks (workerID, date) as a locked mandatory placement
// (spec §3/§4.2): it must already be assigned, and from this point on
// Unassign on that cell is refused.
func (s *ScheduleState) LockMandatory(workerID string, date dateutil.Date) {
	s.lockedMandatory.Insert(lockedKey{WorkerID: workerID, Date: date})
}

// IsLockedMandatory reports whether (workerID, date) was locked.
func (s *ScheduleState) IsLockedMandatory(workerID string, date dateutil.Date) bool {
	return s.lockedMandatory.Contains(lockedKey{WorkerID: workerID, Date: date})
}

// WorkerAssignedOn reports whether worker holds any post on date.
func (s *ScheduleState) WorkerAssignedOn(workerID string, date dateutil.Date) bool {
	set, ok := s.workerAssignments[workerID]
	return ok && set.Contains(date)
}

// AssignmentDates returns every date worker is assigned to, unordered.
func (s *ScheduleState) AssignmentDates(workerID string) []dateutil.Date {
	set, ok := s.workerAssignments[workerID]
	if !ok {
		return nil
	}
	return set.Slice()
}

// ShiftCount returns the worker's total assignment count.
func (s *ScheduleState) ShiftCount(workerID string) int {
	return s.workerShiftCounts[workerID]
}

// WeekendCount returns the worker's weekend/holiday assignment count.
func (s *ScheduleState) WeekendCount(workerID string) int {
	return s.workerWeekendCounts[workerID]
}

// HolidayCount returns the worker's holiday assignment count.
func (s *ScheduleState) HolidayCount(workerID string) int {
	return s.workerHolidayCounts[workerID]
}

// WeekendAssignments returns the worker's weekend/holiday assignment dates,
// ascending.
func (s *ScheduleState) WeekendAssignments(workerID string) []dateutil.Date {
	return s.workerWeekends[workerID]
}

// PostCount returns how many times worker has been assigned to post.
func (s *ScheduleState) PostCount(workerID string, post int) int {
	return s.workerPostCounts[workerID][post]
}

// WeekdayCount returns how many times worker has been assigned on weekday
// (Monday=0..Sunday=6).
func (s *ScheduleState) WeekdayCount(workerID string, weekday int) int {
	return s.workerWeekdays[workerID][weekday]
}

// LastAssignmentDate returns the worker's most recent assignment date and
// whether one exists.
func (s *ScheduleState) LastAssignmentDate(workerID string) (dateutil.Date, bool) {
	d, ok := s.lastAssignmentDate[workerID]
	return d, ok
}

// WorkersOnDate returns every worker id holding a post on date.
func (s *ScheduleState) WorkersOnDate(date dateutil.Date) []string {
	cells := s.schedule[date]
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.Empty() {
			out = append(out, c.WorkerID)
		}
	}
	return out
}

// EmptyCellCount returns the number of unfilled cells across the horizon.
func (s *ScheduleState) EmptyCellCount() int {
	n := 0
	for _, cells := range s.schedule {
		for _, c := range cells {
			if c.Empty() {
				n++
			}
		}
	}
	return n
}

// TotalCellCount returns the number of cells across the horizon.
func (s *ScheduleState) TotalCellCount() int {
	n := 0
	for _, cells := range s.schedule {
		n += len(cells)
	}
	return n
}

// SynchronizeTracking rebuilds every derived counter from the cell grid.
// Primitives that mutate cells directly (bypassing Assign/Unassign) must
// call this before returning, per spec §5.
func (s *ScheduleState) SynchronizeTracking() {
	for _, w := range s.Workers {
		s.ensureWorkerTracked(w.ID)
		s.workerAssignments[w.ID] = hset.New[dateutil.Date](0)
		s.workerPosts[w.ID] = hset.New[int](0)
		s.workerPostCounts[w.ID] = make(map[int]int)
		s.workerWeekdays[w.ID] = make(map[int]int)
		s.workerWeekends[w.ID] = nil
		s.workerShiftCounts[w.ID] = 0
		s.workerWeekendCounts[w.ID] = 0
		s.workerHolidayCounts[w.ID] = 0
		delete(s.lastAssignmentDate, w.ID)
	}
	for _, d := range s.Horizon.Dates() {
		for _, c := range s.schedule[d] {
			if c.Empty() {
				continue
			}
			s.ensureWorkerTracked(c.WorkerID)
			s.workerAssignments[c.WorkerID].Insert(d)
			s.workerShiftCounts[c.WorkerID]++
			s.workerPosts[c.WorkerID].Insert(c.Post)
			s.workerPostCounts[c.WorkerID][c.Post]++
			s.workerWeekdays[c.WorkerID][d.Weekday()]++
			if s.Horizon.IsWeekendOrHoliday(d) {
				s.workerWeekendCounts[c.WorkerID]++
				s.workerWeekends[c.WorkerID] = append(s.workerWeekends[c.WorkerID], d)
			}
			if s.Horizon.IsHoliday(d) {
				s.workerHolidayCounts[c.WorkerID]++
			}
			if last, ok := s.lastAssignmentDate[c.WorkerID]; !ok || d.After(last) {
				s.lastAssignmentDate[c.WorkerID] = d
			}
		}
	}
	for id, weekends := range s.workerWeekends {
		sort.Slice(weekends, func(i, j int) bool { return weekends[i].Before(weekends[j]) })
		s.workerWeekends[id] = weekends
	}
}

// Validate checks the invariants listed in spec §3/§8. It is used by tests
// and is safe to call at any quiescent point (between primitive calls).
func (s *ScheduleState) Validate() error {
	seen := make(map[lockedKey]struct{})
	for _, d := range s.Horizon.Dates() {
		workerToday := make(map[string]struct{})
		for _, c := range s.schedule[d] {
			if c.Empty() {
				continue
			}
			if _, dup := workerToday[c.WorkerID]; dup {
				return fmt.Errorf("worker %s double-booked on %s", c.WorkerID, d)
			}
			workerToday[c.WorkerID] = struct{}{}
			seen[lockedKey{WorkerID: c.WorkerID, Date: d}] = struct{}{}
		}
	}
	for _, k := range s.lockedMandatory.Slice() {
		cell, exists := s.cellForWorkerOn(k.WorkerID, k.Date)
		if !exists || cell.WorkerID != k.WorkerID {
			return fmt.Errorf("locked mandatory (%s, %s) missing from grid", k.WorkerID, k.Date)
		}
	}
	for _, w := range s.Workers {
		if s.workerShiftCounts[w.ID] != s.workerAssignments[w.ID].Size() {
			return fmt.Errorf("worker %s: shift count %d != assignment set size %d",
				w.ID, s.workerShiftCounts[w.ID], s.workerAssignments[w.ID].Size())
		}
	}
	return nil
}

func (s *ScheduleState) cellForWorkerOn(workerID string, date dateutil.Date) (model.Cell, bool) {
	for _, c := range s.schedule[date] {
		if c.WorkerID == workerID {
			return c, true
		}
	}
	return model.Cell{}, false
}
