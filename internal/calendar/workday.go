// Package calendar provides the workday arithmetic used wherever planned
// dates are derived. All functions operate on calendar days; times of day
// are discarded and results are UTC midnights.
package calendar

import "time"

// Holidays reports additional non-working days beyond weekends.
type Holidays interface {
	IsHoliday(d time.Time) bool
}

// Calendar decides which days are workdays. The zero value treats every
// weekday as a workday.
type Calendar struct {
	holidays Holidays
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithHolidays marks the provider's days as non-working.
func WithHolidays(h Holidays) Option {
	return func(c *Calendar) {
		c.holidays = h
	}
}

func New(opts ...Option) *Calendar {
	c := &Calendar{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var weekendsOnly = New()

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// IsWeekend is true for Saturday and Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NextWorkday returns d if it is a workday, else the nearest following one.
func NextWorkday(d time.Time) time.Time { return weekendsOnly.NextWorkday(d) }

// AddWorkdays returns the last day of an n-workday span starting at start.
func AddWorkdays(start time.Time, n int) time.Time { return weekendsOnly.AddWorkdays(start, n) }

// IsWorkday reports whether d is neither a weekend nor a configured holiday.
func (c *Calendar) IsWorkday(d time.Time) bool {
	if IsWeekend(d) {
		return false
	}
	return c.holidays == nil || !c.holidays.IsHoliday(Day(d))
}

func (c *Calendar) NextWorkday(d time.Time) time.Time {
	d = Day(d)
	for !c.IsWorkday(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AddWorkdays treats start as day 1 of a span of n workdays (n < 1 counts
// as 1) and returns the span's last day. Non-working days inside the span
// are skipped while counting.
func (c *Calendar) AddWorkdays(start time.Time, n int) time.Time {
	d := Day(start)
	for remaining := n - 1; remaining > 0; {
		d = d.AddDate(0, 0, 1)
		if c.IsWorkday(d) {
			remaining--
		}
	}
	return d
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
