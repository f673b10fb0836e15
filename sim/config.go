package sim

import (
	"fmt"
	"time"
)

// Shift mode values for DayShiftConfig.ShiftMode.
const (
	ShiftModeFull     = "full"
	ShiftModeSkeleton = "skeleton"
)

// Active shift selections for DayShiftConfig.ActiveShifts.
const (
	ShiftsDay   = "day"
	ShiftsNight = "night"
	ShiftsBoth  = "both"
)

// Break is a scheduled work stoppage within a shift, anchored to a
// wall-clock hour/minute on the shift's calendar day.
type Break struct {
	Hour            int `yaml:"hour"`
	Minute          int `yaml:"minute"`
	DurationMinutes int `yaml:"duration_minutes"`
}

// DayShiftConfig overrides shift behavior for a single weekday:
// skeleton crews run with a longer takt, and a day may run only one
// of its two shifts.
type DayShiftConfig struct {
	ShiftMode    string `yaml:"shift_mode"`    // "full" or "skeleton"
	ActiveShifts string `yaml:"active_shifts"` // "day", "night", or "both"
	TaktMinutes  int    `yaml:"takt_minutes"`
}

// CalendarConfig is the working-calendar model for the whole engine.
//
// It supports 10-hour shifts (day only, 05:00-15:00) and 12-hour shifts
// (day 05:00-17:00 plus night 17:00-05:00), a configurable set of working
// weekdays, per-weekday overrides, a handover window at each shift start,
// and shift-length-dependent break sets.
type CalendarConfig struct {
	WorkingDays     []time.Weekday
	ShiftHours      int // 10 or 12
	Shift1Start     int // hour of day, e.g. 5
	Shift1End       int
	Shift2Start     int
	Shift2End       int // hour of next day, e.g. 5
	HasNightShift   bool
	HandoverMinutes int
	TaktMinutes     int

	// Per-weekday overrides. A weekday absent from the map uses the
	// calendar-wide defaults.
	DayConfigs map[time.Weekday]DayShiftConfig

	DayBreaks   []Break
	NightBreaks []Break
}

// DefaultWorkingDays is the plant's standard Monday-Thursday week.
var DefaultWorkingDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday}

// NewCalendarConfig builds a calendar for the given shift length.
// workingDays nil defaults to Monday-Thursday; taktMinutes <= 0 defaults
// to 30. Break windows follow the plant's standard 10h and 12h patterns.
func NewCalendarConfig(workingDays []time.Weekday, shiftHours int, dayConfigs map[time.Weekday]DayShiftConfig, taktMinutes int) CalendarConfig {
	if workingDays == nil {
		workingDays = append([]time.Weekday(nil), DefaultWorkingDays...)
	}
	if taktMinutes <= 0 {
		taktMinutes = 30
	}
	if dayConfigs == nil {
		dayConfigs = map[time.Weekday]DayShiftConfig{}
	}

	if shiftHours == 10 {
		return CalendarConfig{
			WorkingDays:     workingDays,
			ShiftHours:      10,
			Shift1Start:     5,
			Shift1End:       15,
			Shift2Start:     15, // unused, no night shift
			Shift2End:       5,
			HasNightShift:   false,
			HandoverMinutes: 30,
			TaktMinutes:     taktMinutes,
			DayConfigs:      dayConfigs,
			DayBreaks: []Break{
				{Hour: 9, Minute: 0, DurationMinutes: 15},
				{Hour: 11, Minute: 0, DurationMinutes: 45},
			},
			NightBreaks: nil,
		}
	}

	return CalendarConfig{
		WorkingDays:     workingDays,
		ShiftHours:      12,
		Shift1Start:     5,
		Shift1End:       17,
		Shift2Start:     17,
		Shift2End:       5,
		HasNightShift:   true,
		HandoverMinutes: 30,
		TaktMinutes:     taktMinutes,
		DayConfigs:      dayConfigs,
		DayBreaks: []Break{
			{Hour: 9, Minute: 0, DurationMinutes: 15},
			{Hour: 11, Minute: 0, DurationMinutes: 45},
			{Hour: 15, Minute: 0, DurationMinutes: 15},
		},
		NightBreaks: []Break{
			{Hour: 21, Minute: 0, DurationMinutes: 15},
			{Hour: 23, Minute: 0, DurationMinutes: 45},
			{Hour: 3, Minute: 0, DurationMinutes: 15},
		},
	}
}

// DayConfig returns the per-weekday override, if one is set.
func (c *CalendarConfig) DayConfig(wd time.Weekday) (DayShiftConfig, bool) {
	dc, ok := c.DayConfigs[wd]
	return dc, ok
}

// TaktFor returns the admission takt in minutes for a weekday.
func (c *CalendarConfig) TaktFor(wd time.Weekday) int {
	if dc, ok := c.DayConfig(wd); ok && dc.TaktMinutes > 0 {
		return dc.TaktMinutes
	}
	return c.TaktMinutes
}

// HasNightShiftOn reports whether the night shift runs on a weekday.
func (c *CalendarConfig) HasNightShiftOn(wd time.Weekday) bool {
	if dc, ok := c.DayConfig(wd); ok {
		return dc.ActiveShifts == ShiftsNight || dc.ActiveShifts == ShiftsBoth
	}
	return c.HasNightShift
}

// HasDayShiftOn reports whether the day shift runs on a weekday.
// Without an override the day shift always runs on working days.
func (c *CalendarConfig) HasDayShiftOn(wd time.Weekday) bool {
	if dc, ok := c.DayConfig(wd); ok {
		return dc.ActiveShifts == ShiftsDay || dc.ActiveShifts == ShiftsBoth
	}
	return true
}

// isWorkingWeekday reports membership in the configured working set.
func (c *CalendarConfig) isWorkingWeekday(wd time.Weekday) bool {
	for _, d := range c.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the date falls on a configured working day.
func (c *CalendarConfig) IsWorkingDay(t time.Time) bool {
	return c.isWorkingWeekday(t.Weekday())
}

// Validate checks the calendar invariants: a non-empty Monday-Saturday
// working set, a supported shift length, a sane takt, and at least one
// active shift on every working day.
func (c *CalendarConfig) Validate() error {
	if len(c.WorkingDays) == 0 {
		return ErrNoWorkingDays
	}
	for _, wd := range c.WorkingDays {
		if wd == time.Sunday {
			return fmt.Errorf("working day %s: only Monday through Saturday are supported", wd)
		}
	}
	if c.ShiftHours != 10 && c.ShiftHours != 12 {
		return fmt.Errorf("shift hours %d: must be 10 or 12", c.ShiftHours)
	}
	if c.TaktMinutes < 1 || c.TaktMinutes > 120 {
		return fmt.Errorf("takt %d minutes: must be between 1 and 120", c.TaktMinutes)
	}
	for wd, dc := range c.DayConfigs {
		switch dc.ActiveShifts {
		case ShiftsDay, ShiftsNight, ShiftsBoth:
		default:
			return fmt.Errorf("day config for %s: invalid active shifts %q", wd, dc.ActiveShifts)
		}
		if dc.ShiftMode != "" && dc.ShiftMode != ShiftModeFull && dc.ShiftMode != ShiftModeSkeleton {
			return fmt.Errorf("day config for %s: invalid shift mode %q", wd, dc.ShiftMode)
		}
		if dc.TaktMinutes < 0 || dc.TaktMinutes > 120 {
			return fmt.Errorf("day config for %s: takt %d minutes out of range", wd, dc.TaktMinutes)
		}
		if dc.ActiveShifts == ShiftsNight && !c.HasNightShift && c.isWorkingWeekday(wd) {
			return fmt.Errorf("day config for %s: night-only day on a calendar with no night shift", wd)
		}
	}
	return nil
}
