// Working-calendar arithmetic. Every duration-consuming operation in
// the engine advances time through AdvanceTime; nothing else in the
// repo does raw clock addition across shifts.

package sim

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrCalendarSearchExhausted is returned when a bounded forward search
// through the calendar hits its iteration cap. It signals a calendar
// configuration defect (e.g. a week with no schedulable time), never a
// valid timestamp.
var ErrCalendarSearchExhausted = errors.New("calendar search exhausted")

// ErrNoWorkingDays is returned by Validate for an empty working set.
var ErrNoWorkingDays = errors.New("calendar has no working days")

const (
	// maxUnblockedSearch caps NextUnblocked's period-skipping loop.
	maxUnblockedSearch = 1000
	// maxWorkingDaySearch caps the scan for the next working day.
	maxWorkingDaySearch = 10
	// maxAdvanceSteps caps AdvanceTime's block-skipping loop.
	maxAdvanceSteps = 10000
	// advanceEpsilonMinutes is the residual below which an advance is done.
	advanceEpsilonMinutes = 0.01
)

// Period is a half-open [Start, End) blocked interval.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func dateAt(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}

func midnight(t time.Time) time.Time {
	return dateAt(t, 0, 0)
}

// BlockedPeriods returns every blocked interval touching the calendar
// day of t, sorted by start: the whole day for non-working days;
// otherwise handover windows, configured breaks, and the hours of any
// shift that is inactive under the day's override.
func (c *CalendarConfig) BlockedPeriods(t time.Time) []Period {
	if !c.IsWorkingDay(t) {
		start := midnight(t)
		return []Period{{Start: start, End: start.AddDate(0, 0, 1)}}
	}

	wd := t.Weekday()
	dayStart := midnight(t)
	shift1Start := dateAt(t, c.Shift1Start, 0)
	handover := time.Duration(c.HandoverMinutes) * time.Minute

	dayActive := c.HasDayShiftOn(wd)
	nightActive := c.HasNightShiftOn(wd) && c.HasNightShift

	var periods []Period

	if !nightActive {
		// Nothing runs between midnight and the day shift start.
		periods = append(periods, Period{Start: dayStart, End: shift1Start})
	}

	if dayActive {
		periods = append(periods, Period{Start: shift1Start, End: shift1Start.Add(handover)})
		for _, b := range c.DayBreaks {
			bs := dateAt(t, b.Hour, b.Minute)
			periods = append(periods, Period{Start: bs, End: bs.Add(time.Duration(b.DurationMinutes) * time.Minute)})
		}
	} else {
		// Day shift idle: block its whole window.
		periods = append(periods, Period{Start: shift1Start, End: dateAt(t, c.Shift1End, 0)})
	}

	if nightActive {
		shift2Start := dateAt(t, c.Shift2Start, 0)
		periods = append(periods, Period{Start: shift2Start, End: shift2Start.Add(handover)})
		for _, b := range c.NightBreaks {
			var bs time.Time
			if b.Hour >= c.Shift2Start {
				bs = dateAt(t, b.Hour, b.Minute)
			} else {
				// Past midnight, so it lands on the next calendar day.
				bs = dateAt(t.AddDate(0, 0, 1), b.Hour, b.Minute)
			}
			periods = append(periods, Period{Start: bs, End: bs.Add(time.Duration(b.DurationMinutes) * time.Minute)})
		}
	} else {
		end := shift1Start
		if dayActive {
			end = dateAt(t, c.Shift1End, 0)
		}
		periods = append(periods, Period{Start: end, End: dayStart.AddDate(0, 0, 1)})
	}

	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })
	return periods
}

// IsBlocked reports whether t falls in non-working time: a non-working
// day, an inactive shift, a handover window, or a break.
//
// With a night shift configured the hours before Shift2End belong to the
// previous calendar day's night shift, so working-day and shift-activity
// checks look at yesterday for those hours.
func (c *CalendarConfig) IsBlocked(t time.Time) bool {
	wd := t.Weekday()
	hour := t.Hour()

	if c.HasNightShift {
		if hour < c.Shift2End {
			yesterday := t.AddDate(0, 0, -1)
			if !c.IsWorkingDay(yesterday) {
				return true
			}
			if !c.HasNightShiftOn(yesterday.Weekday()) {
				return true
			}
		} else {
			if !c.isWorkingWeekday(wd) {
				return true
			}
			if hour >= c.Shift1Start && hour < c.Shift1End && !c.HasDayShiftOn(wd) {
				return true
			}
			if hour >= c.Shift2Start && !c.HasNightShiftOn(wd) {
				return true
			}
		}
	} else {
		if !c.isWorkingWeekday(wd) {
			return true
		}
		if hour < c.Shift1Start || hour >= c.Shift1End {
			return true
		}
	}

	for _, p := range c.BlockedPeriods(t) {
		if p.Contains(t) {
			return true
		}
	}
	return false
}

// NextUnblocked scans forward from t to the next open instant.
//
// When continueDuringBreaks is true (CURE/QUENCH), only non-working days
// block; breaks, handovers, and the overnight gap do not. The search is
// bounded; exhaustion returns ErrCalendarSearchExhausted.
func (c *CalendarConfig) NextUnblocked(t time.Time, continueDuringBreaks bool) (time.Time, error) {
	current := t
	for i := 0; i < maxUnblockedSearch; i++ {
		if continueDuringBreaks {
			hour := current.Hour()
			if c.HasNightShift {
				if hour < c.Shift2End {
					// Still on yesterday's night shift.
					if c.IsWorkingDay(current.AddDate(0, 0, -1)) {
						return current, nil
					}
				} else if c.IsWorkingDay(current) {
					return current, nil
				}
			} else {
				if c.IsWorkingDay(current) && hour >= c.Shift1Start && hour < c.Shift1End {
					return current, nil
				}
			}
			next, err := c.nextWorkingDayStart(current)
			if err != nil {
				return time.Time{}, err
			}
			current = next
			continue
		}

		if !c.IsBlocked(current) {
			return current, nil
		}
		next, err := c.skipBlockedPeriod(current)
		if err != nil {
			return time.Time{}, err
		}
		current = next
	}
	return time.Time{}, fmt.Errorf("next unblocked time from %s: %w", t, ErrCalendarSearchExhausted)
}

// skipBlockedPeriod jumps past the blocked interval containing t.
func (c *CalendarConfig) skipBlockedPeriod(t time.Time) (time.Time, error) {
	hour := t.Hour()

	if !c.IsWorkingDay(t) {
		return c.nextWorkingDayStart(t)
	}

	if c.HasNightShift {
		if hour < c.Shift2End {
			yesterday := t.AddDate(0, 0, -1)
			if !c.IsWorkingDay(yesterday) {
				// Early morning after a non-working day.
				if c.IsWorkingDay(t) {
					return dateAt(t, c.Shift1Start, c.HandoverMinutes), nil
				}
				return c.nextWorkingDayStart(t)
			}
		}
	} else {
		if hour < c.Shift1Start {
			return dateAt(t, c.Shift1Start, c.HandoverMinutes), nil
		}
		if hour >= c.Shift1End {
			return c.nextWorkingDayStart(t)
		}
	}

	for _, p := range c.BlockedPeriods(t) {
		if p.Contains(t) {
			return p.End, nil
		}
	}

	if hour < c.Shift1Start {
		return dateAt(t, c.Shift1Start, c.HandoverMinutes), nil
	}
	return t.Add(time.Minute), nil
}

// nextWorkingDayStart finds the first working day after t, positioned
// at the day shift start plus the handover window.
func (c *CalendarConfig) nextWorkingDayStart(t time.Time) (time.Time, error) {
	day := midnight(t).AddDate(0, 0, 1)
	for i := 0; i < maxWorkingDaySearch; i++ {
		if c.isWorkingWeekday(day.Weekday()) {
			return dateAt(day, c.Shift1Start, c.HandoverMinutes), nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("no working day within %d days of %s: %w",
		maxWorkingDaySearch, t, ErrCalendarSearchExhausted)
}

// AdvanceTime consumes durationHours of working time starting at start,
// stepping over every blocked interval it meets. With
// continueDuringBreaks set, only non-working days pause the clock.
// AdvanceTime(t, 0, _) == t for all t.
func (c *CalendarConfig) AdvanceTime(start time.Time, durationHours float64, continueDuringBreaks bool) (time.Time, error) {
	if durationHours <= 0 {
		return start, nil
	}

	current, err := c.NextUnblocked(start, continueDuringBreaks)
	if err != nil {
		return time.Time{}, err
	}
	remaining := durationHours * 60

	for step := 0; remaining > advanceEpsilonMinutes; step++ {
		if step >= maxAdvanceSteps {
			return time.Time{}, fmt.Errorf("advance %.2fh from %s: %w",
				durationHours, start, ErrCalendarSearchExhausted)
		}

		if continueDuringBreaks {
			hour := current.Hour()
			if hour < c.Shift2End {
				if !c.IsWorkingDay(current.AddDate(0, 0, -1)) {
					if current, err = c.nextWorkingDayStart(current); err != nil {
						return time.Time{}, err
					}
					continue
				}
			} else if !c.IsWorkingDay(current) {
				if current, err = c.nextWorkingDayStart(current); err != nil {
					return time.Time{}, err
				}
				continue
			}
		} else if c.IsBlocked(current) {
			if current, err = c.NextUnblocked(current, continueDuringBreaks); err != nil {
				return time.Time{}, err
			}
			continue
		}

		var untilBlock float64
		if continueDuringBreaks {
			// Run until the shift boundary that pauses 24h processes:
			// end of night shift (or its start, from the day shift) with
			// a night shift configured, otherwise end of the day shift.
			hour := current.Hour()
			var nextBlock time.Time
			if c.HasNightShift {
				switch {
				case hour >= c.Shift2Start:
					nextBlock = dateAt(current.AddDate(0, 0, 1), c.Shift2End, 0)
				case hour < c.Shift2End:
					nextBlock = dateAt(current, c.Shift2End, 0)
				default:
					nextBlock = dateAt(current, c.Shift2Start, 0)
				}
			} else {
				nextBlock = dateAt(current, c.Shift1End, 0)
			}
			untilBlock = nextBlock.Sub(current).Minutes()
		} else {
			untilBlock = c.minutesUntilNextBlock(current)
		}

		if untilBlock >= remaining {
			current = current.Add(time.Duration(remaining * float64(time.Minute)))
			remaining = 0
		} else {
			remaining -= untilBlock
			current = current.Add(time.Duration(untilBlock * float64(time.Minute)))
			if current, err = c.NextUnblocked(current, continueDuringBreaks); err != nil {
				return time.Time{}, err
			}
		}
	}

	return current, nil
}

// minutesUntilNextBlock measures open time from t to the next blocked
// period, looking into the next day when today has none left.
func (c *CalendarConfig) minutesUntilNextBlock(t time.Time) float64 {
	for _, p := range c.BlockedPeriods(t) {
		if p.Start.After(t) {
			return p.Start.Sub(t).Minutes()
		}
	}
	if next := c.BlockedPeriods(t.AddDate(0, 0, 1)); len(next) > 0 {
		return next[0].Start.Sub(t).Minutes()
	}
	return 24 * 60
}
