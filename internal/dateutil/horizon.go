package dateutil

import "fmt"

// ShiftOverride narrows or widens the default post count for a contiguous
// date range. Declared overrides are matched first-match-in-declaration-order
// wins (spec §9 Open Question); a later override covering an already-claimed
// date is a configuration error caught by Horizon.Validate.
type ShiftOverride struct {
	From, To Date
	Posts    int
}

// Horizon resolves the per-date post count and holiday/weekend
// classification across a scheduling run's date range.
type Horizon struct {
	Start, End Date
	NumShifts  int
	Overrides  []ShiftOverride
	Holidays   map[Date]struct{}
}

// NewHorizon builds a Horizon; callers should call Validate before use.
func NewHorizon(start, end Date, numShifts int, overrides []ShiftOverride, holidays []Date) *Horizon {
	h := &Horizon{
		Start:     start,
		End:       end,
		NumShifts: numShifts,
		Overrides: overrides,
		Holidays:  make(map[Date]struct{}, len(holidays)),
	}
	for _, hd := range holidays {
		h.Holidays[hd] = struct{}{}
	}
	return h
}

// Validate checks the horizon is well formed and that no date is claimed by
// more than one override (spec §9's resolution of the overlap Open Question).
func (h *Horizon) Validate() error {
	if h.End.Before(h.Start) {
		return fmt.Errorf("end_date %s is before start_date %s", h.End, h.Start)
	}
	if h.NumShifts <= 0 {
		return fmt.Errorf("num_shifts must be positive, got %d", h.NumShifts)
	}
	claimed := make(map[Date]int, len(h.Overrides))
	for i, ov := range h.Overrides {
		if ov.To.Before(ov.From) {
			return fmt.Errorf("variable_shifts[%d]: end %s before start %s", i, ov.To, ov.From)
		}
		if ov.Posts <= 0 {
			return fmt.Errorf("variable_shifts[%d]: shifts must be positive, got %d", i, ov.Posts)
		}
		for _, d := range Range(ov.From, ov.To) {
			if prev, ok := claimed[d]; ok {
				return fmt.Errorf("variable_shifts[%d]: date %s already claimed by variable_shifts[%d]", i, d, prev)
			}
			claimed[d] = i
		}
	}
	return nil
}

// PostsOn returns the number of posts scheduled for date d: the first
// declared override whose range contains d, falling through to NumShifts.
func (h *Horizon) PostsOn(d Date) int {
	for _, ov := range h.Overrides {
		if !d.Before(ov.From) && !d.After(ov.To) {
			return ov.Posts
		}
	}
	return h.NumShifts
}

// IsHoliday reports whether d was declared a holiday. Declaring a date both
// a holiday and within a variable_shifts override still uses the override's
// post count (spec §3); weekend/holiday classification for the weekend cap
// (spec §4.1 step 8) is unaffected by post count.
func (h *Horizon) IsHoliday(d Date) bool {
	_, ok := h.Holidays[d]
	return ok
}

// IsWeekendOrHoliday reports whether d counts toward the weekend cap.
func (h *Horizon) IsWeekendOrHoliday(d Date) bool {
	return d.IsWeekend() || h.IsHoliday(d)
}

// Dates returns every date in the horizon in ascending order.
func (h *Horizon) Dates() []Date {
	return Range(h.Start, h.End)
}

// Days returns the horizon's length in days, inclusive.
func (h *Horizon) Days() int {
	return h.End.Sub(h.Start) + 1
}
