package attendance

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time expressed in minutes after midnight.
type ClockTime int

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant of c on the calendar day of date in loc.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(c)/60, int(c)%60, 0, 0, loc)
}

// Schedule is the fixed daily schedule every trainee follows.
type Schedule struct {
	Start       ClockTime
	End         ClockTime
	LunchStart  ClockTime
	LunchEnd    ClockTime
	TargetHours float64
	LateCutoff  ClockTime
	Location    *time.Location
}

func DefaultSchedule() Schedule {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		loc = time.FixedZone("PHT", 8*60*60)
	}
	return Schedule{
		Start:       9 * 60,
		End:         18 * 60,
		LunchStart:  12 * 60,
		LunchEnd:    13 * 60,
		TargetHours: 8,
		LateCutoff:  18 * 60,
		Location:    loc,
	}
}

func (s Schedule) Validate() error {
	switch {
	case s.Location == nil:
		return fmt.Errorf("%w: timezone is required", ErrInvalidSchedule)
	case s.End <= s.Start:
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidSchedule, s.End, s.Start)
	case s.LunchEnd < s.LunchStart:
		return fmt.Errorf("%w: lunch end %s must not be before lunch start %s", ErrInvalidSchedule, s.LunchEnd, s.LunchStart)
	case s.LunchStart < s.Start || s.LunchEnd > s.End:
		return fmt.Errorf("%w: lunch window must fall inside working hours", ErrInvalidSchedule)
	case s.TargetHours <= 0:
		return fmt.Errorf("%w: target hours must be positive", ErrInvalidSchedule)
	case s.LateCutoff < s.Start:
		return fmt.Errorf("%w: late cutoff %s must not be before start %s", ErrInvalidSchedule, s.LateCutoff, s.Start)
	}
	return nil
}

// LunchMinutes is the fixed lunch deduction applied to every working day.
func (s Schedule) LunchMinutes() int {
	return int(s.LunchEnd - s.LunchStart)
}

// DateOf returns the local calendar date of t as midnight UTC, matching the
// DATE columns in storage.
func (s Schedule) DateOf(t time.Time) time.Time {
	local := t.In(s.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// CutoffOn is the late-permission cutoff instant for date.
func (s Schedule) CutoffOn(date time.Time) time.Time {
	return s.LateCutoff.On(date, s.Location)
}

// PastCutoff reports whether t is after the late-permission cutoff of its day.
func (s Schedule) PastCutoff(t time.Time) bool {
	return t.After(s.CutoffOn(s.DateOf(t)))
}

// WeekOf returns the Monday and Sunday of the week containing date.
func WeekOf(date time.Time) (time.Time, time.Time) {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}
