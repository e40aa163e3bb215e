package planner

import (
	"fmt"
	"time"

	"meal-planner/internal/apperr"
	"meal-planner/internal/generator"
)

// DateLayout is the calendar-date format used for weekStart and meal dates.
const DateLayout = "2006-01-02"

// lockdownHourUTC is Sunday 18:00 Pacific Standard Time expressed on the Monday in UTC.
const lockdownHourUTC = 2

// NextMonday returns the date of the Monday after now: tomorrow on Sunday,
// a full week ahead on Monday.
func NextMonday(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	wd := int(today.Weekday())
	if wd == int(time.Sunday) {
		return today.AddDate(0, 0, 1)
	}
	days := (8 - wd) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

// ParseWeekStart parses a weekStart date and requires it to be a Monday.
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("weekStart %q is not a YYYY-MM-DD date", s)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, apperr.Validation("weekStart %s is a %s, not a Monday", s, t.Weekday())
	}
	return t, nil
}

// WeekDays lists Monday to Friday of the week starting at monday.
func WeekDays(monday time.Time) []generator.DaySlot {
	days := make([]generator.DaySlot, len(Weekdays))
	for i, name := range Weekdays {
		days[i] = generator.DaySlot{Day: name, Date: monday.AddDate(0, 0, i).Format(DateLayout)}
	}
	return days
}

// LockdownInstant is the approval deadline of a week: its Monday at 02:00 UTC.
func LockdownInstant(weekStart string) (time.Time, error) {
	t, err := time.Parse(DateLayout, weekStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid weekStart %q: %w", weekStart, err)
	}
	return t.Add(lockdownHourUTC * time.Hour), nil
}

// IsLocked reports whether approvals are closed for the plan at instant now.
// Approved and empty plans are never locked.
func IsLocked(p *WeeklyPlan, now time.Time) bool {
	if p == nil || p.Status == StatusApproved || len(p.Meals) == 0 {
		return false
	}
	deadline, err := LockdownInstant(p.WeekStart)
	if err != nil {
		return false
	}
	return now.After(deadline)
}
