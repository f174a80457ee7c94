package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// AustrianHolidays yields the nationwide public holidays of Austria.
type AustrianHolidays struct {
	mu    sync.Mutex
	years map[int]map[time.Time]string
}

func NewAustrianHolidays() *AustrianHolidays {
	return &AustrianHolidays{years: make(map[int]map[time.Time]string)}
}

func (h *AustrianHolidays) IsHoliday(d time.Time) bool {
	_, ok := h.Name(d)
	return ok
}

// Name returns the holiday name for d, if any.
func (h *AustrianHolidays) Name(d time.Time) (string, bool) {
	d = Day(d)
	h.mu.Lock()
	defer h.mu.Unlock()
	days, ok := h.years[d.Year()]
	if !ok {
		days = austrianHolidays(d.Year())
		h.years[d.Year()] = days
	}
	name, ok := days[d]
	return name, ok
}

func austrianHolidays(year int) map[time.Time]string {
	easter := EasterSunday(year)
	return map[time.Time]string{
		Date(year, time.January, 1):   "Neujahr",
		Date(year, time.January, 6):   "Heilige Drei Könige",
		easter.AddDate(0, 0, 1):       "Ostermontag",
		Date(year, time.May, 1):       "Staatsfeiertag",
		easter.AddDate(0, 0, 39):      "Christi Himmelfahrt",
		easter.AddDate(0, 0, 50):      "Pfingstmontag",
		easter.AddDate(0, 0, 60):      "Fronleichnam",
		Date(year, time.August, 15):   "Mariä Himmelfahrt",
		Date(year, time.October, 26):  "Nationalfeiertag",
		Date(year, time.November, 1):  "Allerheiligen",
		Date(year, time.December, 8):  "Mariä Empfängnis",
		Date(year, time.December, 25): "Christtag",
		Date(year, time.December, 26): "Stefanitag",
	}
}

// EasterSunday computes the Gregorian Easter date (anonymous algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return Date(year, time.Month(month), day)
}

// FromName builds a calendar for a configured holiday set ("none" or "at").
func FromName(name string) (*Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return New(), nil
	case "at", "austria":
		return New(WithHolidays(NewAustrianHolidays())), nil
	}
	return nil, fmt.Errorf("unknown holiday calendar %q (expected none or at)", name)
}
