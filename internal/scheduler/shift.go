package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned for a window whose end precedes its start.
var ErrInvalidWindow = errors.New("invalid window")

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start, end time.Time) (Window, error) {
	start, end = dayOf(start), dayOf(end)
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidWindow, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return Window{Start: start, End: end}, nil
}

// Days is the inclusive calendar length of the window. Weekends count.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Overlaps reports whether [start, end] intersects the window. A task
// missing either date never overlaps.
func (w Window) Overlaps(start, end *time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	return !dayOf(*start).After(w.End) && !dayOf(*end).Before(w.Start)
}

// ShiftDates moves a planned window by days calendar days. With
// skipNonWorking set, a start landing on a non-working day is bumped to
// the next workday and the end moves by the same amount, keeping the
// calendar length.
func ShiftDates(cal Calendar, start, end time.Time, days int, skipNonWorking bool) (time.Time, time.Time) {
	newStart := start.AddDate(0, 0, days)
	newEnd := end.AddDate(0, 0, days)
	if skipNonWorking {
		bumped := cal.NextWorkday(newStart)
		bump := int(bumped.Sub(dayOf(newStart)).Hours() / 24)
		newStart = bumped
		newEnd = newEnd.AddDate(0, 0, bump)
	}
	return newStart, newEnd
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
