// Package config implements spec §6's external JSON configuration
// interface: decode, default-fill, and validate, following the
// LoadConfig -> setDefaults -> validate pipeline shown in
// bravo1goingdark-mailgrid/config/config.go.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	hset "github.com/hashicorp/go-set/v3"

	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
)

// targetSlack bounds ValidateTargetConsistency's "looks unscaled" check.
const targetSlack = 0.05

// ShiftOverride is the JSON shape of one variable_shifts entry.
type ShiftOverride struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Shifts    int    `json:"shifts"`
}

// WorkPeriod is the JSON shape of one worker's availability window.
type WorkPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// WorkerData is the JSON shape of one workers_data entry (spec §3/§6).
type WorkerData struct {
	ID               string       `json:"id"`
	WorkPercentage   int          `json:"work_percentage"`
	TargetShifts     int          `json:"target_shifts"`
	MandatoryDates   []string     `json:"mandatory_dates,omitempty"`
	DaysOff          []string     `json:"days_off,omitempty"`
	WorkPeriods      []WorkPeriod `json:"work_periods,omitempty"`
	IncompatibleWith []string     `json:"incompatible_with,omitempty"`
}

// Document is the JSON shape of the whole configuration input (spec §6).
type Document struct {
	StartDate                       string          `json:"start_date"`
	EndDate                         string          `json:"end_date"`
	NumShifts                       int             `json:"num_shifts"`
	VariableShifts                  []ShiftOverride `json:"variable_shifts,omitempty"`
	Holidays                        []string        `json:"holidays,omitempty"`
	GapBetweenShifts                int             `json:"gap_between_shifts"`
	MaxConsecutiveWeekends          int             `json:"max_consecutive_weekends"`
	WeekendTolerance                int             `json:"weekend_tolerance"`
	Enforce7And14Pattern            *bool           `json:"enforce_7_14_pattern,omitempty"`
	MaxImprovementLoops             int             `json:"max_improvement_loops"`
	LastPostAdjustmentMaxIterations int             `json:"last_post_adjustment_max_iterations"`
	WorkersData                     []WorkerData    `json:"workers_data"`
}

// Loaded is the validated, in-memory form ready to hand to the scheduler.
type Loaded struct {
	Config  *model.ScheduleConfig
	Workers []*model.Worker
	Params  constraint.Params
}

// LoadConfig reads path, decodes it, fills defaults, and validates it. It
// never terminates the process; callers translate the returned error into
// spec §6's exit code 1.
func LoadConfig(path string) (*Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %q", path)
	}
	defer f.Close()

	var doc Document
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "decode config JSON %q", path)
	}

	doc.setDefaults()

	loaded, err := doc.build()
	if err != nil {
		return nil, err
	}
	if err := loaded.validate(); err != nil {
		return nil, err
	}
	return loaded, nil
}

// setDefaults fills the integer/bool fields spec §6 declares defaults for.
func (d *Document) setDefaults() {
	if d.GapBetweenShifts == 0 {
		d.GapBetweenShifts = model.DefaultGapBetweenShifts
	}
	if d.MaxConsecutiveWeekends == 0 {
		d.MaxConsecutiveWeekends = model.DefaultMaxConsecutiveWeekends
	}
	if d.WeekendTolerance == 0 {
		d.WeekendTolerance = model.DefaultWeekendTolerance
	}
	if d.Enforce7And14Pattern == nil {
		v := model.DefaultEnforce7And14Pattern
		d.Enforce7And14Pattern = &v
	}
	if d.MaxImprovementLoops == 0 {
		d.MaxImprovementLoops = model.DefaultMaxImprovementLoops
	}
	if d.LastPostAdjustmentMaxIterations == 0 {
		d.LastPostAdjustmentMaxIterations = model.DefaultLastPostAdjustMaxIters
	}
}

// build parses every date field and constructs the in-memory config,
// workers, and constraint parameters. Parse failures aggregate via
// go-multierror so a single pass reports every malformed field.
func (d *Document) build() (*Loaded, error) {
	var result *multierror.Error

	start, err := dateutil.Parse(d.StartDate)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "start_date"))
	}
	end, err := dateutil.Parse(d.EndDate)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "end_date"))
	}

	overrides := make([]dateutil.ShiftOverride, 0, len(d.VariableShifts))
	for i, vs := range d.VariableShifts {
		from, errFrom := dateutil.Parse(vs.StartDate)
		to, errTo := dateutil.Parse(vs.EndDate)
		if errFrom != nil {
			result = multierror.Append(result, errors.Wrapf(errFrom, "variable_shifts[%d].start_date", i))
		}
		if errTo != nil {
			result = multierror.Append(result, errors.Wrapf(errTo, "variable_shifts[%d].end_date", i))
		}
		if errFrom == nil && errTo == nil {
			overrides = append(overrides, dateutil.ShiftOverride{From: from, To: to, Posts: vs.Shifts})
		}
	}

	holidays := make([]dateutil.Date, 0, len(d.Holidays))
	for i, h := range d.Holidays {
		hd, err := dateutil.Parse(h)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "holidays[%d]", i))
			continue
		}
		holidays = append(holidays, hd)
	}

	workers := make([]*model.Worker, 0, len(d.WorkersData))
	knownIDs := hset.New[string](len(d.WorkersData))
	for _, wd := range d.WorkersData {
		knownIDs.Insert(wd.ID)
	}
	for _, wd := range d.WorkersData {
		w, err := wd.build(knownIDs)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		workers = append(workers, w)
	}
	model.SymmetrizeIncompatibilities(workers)

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	cfg := &model.ScheduleConfig{
		StartDate:              start,
		EndDate:                end,
		NumShifts:              d.NumShifts,
		VariableShifts:         overrides,
		Holidays:               holidays,
		GapBetweenShifts:       d.GapBetweenShifts,
		MaxConsecutiveWeekends: d.MaxConsecutiveWeekends,
		WeekendTolerance:       d.WeekendTolerance,
		Enforce7And14Pattern:   *d.Enforce7And14Pattern,
		MaxImprovementLoops:    d.MaxImprovementLoops,
		LastPostAdjustMaxIters: d.LastPostAdjustmentMaxIterations,
	}
	horizon := cfg.Horizon()
	params := constraint.Params{
		Horizon:                horizon,
		GapBetweenShifts:       cfg.GapBetweenShifts,
		MaxConsecutiveWeekends: cfg.MaxConsecutiveWeekends,
		WeekendTolerance:       cfg.WeekendTolerance,
		Enforce7And14Pattern:   cfg.Enforce7And14Pattern,
	}

	return &Loaded{Config: cfg, Workers: workers, Params: params}, nil
}

func (wd WorkerData) build(knownIDs *hset.Set[string]) (*model.Worker, error) {
	var result *multierror.Error
	w := model.NewWorker(wd.ID, wd.WorkPercentage, wd.TargetShifts)

	for _, md := range wd.MandatoryDates {
		d, err := dateutil.Parse(md)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "worker %s: mandatory_dates", wd.ID))
			continue
		}
		w.MandatoryDates.Insert(d)
	}
	for _, off := range wd.DaysOff {
		d, err := dateutil.Parse(off)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "worker %s: days_off", wd.ID))
			continue
		}
		w.DaysOff.Insert(d)
	}
	for _, wp := range wd.WorkPeriods {
		start, errStart := dateutil.Parse(wp.StartDate)
		end, errEnd := dateutil.Parse(wp.EndDate)
		if errStart != nil || errEnd != nil {
			result = multierror.Append(result, fmt.Errorf("worker %s: malformed work_period", wd.ID))
			continue
		}
		w.WorkPeriods = append(w.WorkPeriods, model.WorkPeriod{Start: start, End: end})
	}
	for _, other := range wd.IncompatibleWith {
		if !knownIDs.Contains(other) {
			result = multierror.Append(result, fmt.Errorf("worker %s: incompatible_with references unknown worker %q", wd.ID, other))
			continue
		}
		w.IncompatibleWith.Insert(other)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return w, nil
}

// validate runs spec §7's "configuration errors" pass: malformed dates
// are already caught during build(); this checks horizon sanity and
// target/percentage consistency, aggregating every offending worker.
func (l *Loaded) validate() error {
	var result *multierror.Error

	if err := l.Config.Horizon().Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	horizonDays := l.Config.EndDate.Sub(l.Config.StartDate) + 1
	for _, w := range l.Workers {
		if err := w.ValidateTargetConsistency(horizonDays, targetSlack); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
