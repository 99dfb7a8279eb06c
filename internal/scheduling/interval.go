// Package scheduling holds the pure weekly time model used by room conflict checks.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleDay is an ISO-8601 day of week: Monday=1 … Sunday=7.
type ScheduleDay int

const (
	Monday ScheduleDay = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// Valid reports whether d is within Monday..Sunday.
func (d ScheduleDay) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Name returns the upper-case English day name, the key section reservations are stored under.
func (d ScheduleDay) Name() string {
	if !d.Valid() {
		return ""
	}
	return dayNames[d]
}

func (d ScheduleDay) String() string {
	if !d.Valid() {
		return fmt.Sprintf("ScheduleDay(%d)", int(d))
	}
	return dayNames[d]
}

// ParseScheduleDayName resolves a day name case-insensitively.
func ParseScheduleDayName(name string) (ScheduleDay, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i := Monday; i <= Sunday; i++ {
		if dayNames[i] == upper {
			return i, true
		}
	}
	return 0, false
}

// CalendarWeekdayToScheduleDay maps Go's Sunday-first weekday onto the Monday-first schedule
// enumeration. This is the only place the offset between the two lives.
func CalendarWeekdayToScheduleDay(w time.Weekday) ScheduleDay {
	if w == time.Sunday {
		return Sunday
	}
	return ScheduleDay(w)
}

// ClockTime is a wall-clock time expressed in minutes since midnight. 1440 denotes end of day.
type ClockTime int

const endOfDay ClockTime = 24 * 60

// ParseClock accepts "HH:MM" or "HH:MM:SS". "24:00" is accepted as end of day.
func ParseClock(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock hours %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock minutes %q", raw)
	}
	value := ClockTime(hours*60 + minutes)
	if hours < 0 || value > endOfDay {
		return 0, fmt.Errorf("clock time %q out of range", raw)
	}
	return value, nil
}

// MustParseClock is ParseClock for literals known to be valid.
func MustParseClock(raw string) ClockTime {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the wall-clock time of t in its own location, truncated to the minute.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

// String formats the time as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a weekly recurring slot.
type Interval struct {
	Day   ScheduleDay
	Start ClockTime
	End   ClockTime
}

// NewInterval parses the wall-clock bounds and enforces start < end.
func NewInterval(day ScheduleDay, start, end string) (Interval, error) {
	if !day.Valid() {
		return Interval{}, fmt.Errorf("invalid day of week %d", int(day))
	}
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("start %s must be before end %s", s, e)
	}
	return Interval{Day: day, Start: s, End: e}, nil
}

func (i Interval) String() string {
	return fmt.Sprintf("%s %s-%s", i.Day, i.Start, i.End)
}

// Overlaps reports whether a and b share any minute on the same day.
// Intervals are half-open, so back-to-back slots do not overlap.
func Overlaps(a, b Interval) bool {
	if a.Day != b.Day {
		return false
	}
	return a.Start < b.End && a.End > b.Start
}

// Intersection returns the shared window of two overlapping intervals.
func Intersection(a, b Interval) (Interval, bool) {
	if !Overlaps(a, b) {
		return Interval{}, false
	}
	out := Interval{Day: a.Day, Start: a.Start, End: a.End}
	if b.Start > out.Start {
		out.Start = b.Start
	}
	if b.End < out.End {
		out.End = b.End
	}
	return out, true
}

// IntervalFromRange projects an absolute time range onto its weekly slot in loc.
// A range that runs past midnight is clipped to the end of its first day.
func IntervalFromRange(start, end time.Time, loc *time.Location) Interval {
	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}
	out := Interval{
		Day:   CalendarWeekdayToScheduleDay(start.Weekday()),
		Start: ClockOf(start),
		End:   ClockOf(end),
	}
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		out.End = endOfDay
	}
	return out
}
