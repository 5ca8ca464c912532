package model

import "github.com/saldo27/shiftsched/internal/dateutil"

// Defaults mirror spec §3/§6's declared default values.
const (
	DefaultGapBetweenShifts       = 2
	DefaultMaxConsecutiveWeekends = 2
	DefaultWeekendTolerance       = 1
	DefaultEnforce7And14Pattern   = true
	DefaultMaxImprovementLoops    = 70
	DefaultLastPostAdjustMaxIters = 20
)

// ScheduleConfig is the validated, in-memory form of the §6 JSON config.
type ScheduleConfig struct {
	StartDate              dateutil.Date
	EndDate                dateutil.Date
	NumShifts              int
	VariableShifts         []dateutil.ShiftOverride
	Holidays               []dateutil.Date
	GapBetweenShifts       int
	MaxConsecutiveWeekends int
	WeekendTolerance       int
	Enforce7And14Pattern   bool
	MaxImprovementLoops    int
	LastPostAdjustMaxIters int
}

// Horizon builds the dateutil.Horizon this config implies.
func (c *ScheduleConfig) Horizon() *dateutil.Horizon {
	return dateutil.NewHorizon(c.StartDate, c.EndDate, c.NumShifts, c.VariableShifts, c.Holidays)
}
