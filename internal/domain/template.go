package domain

import "time"

// Template is a reusable, ordered list of construction steps ("process model").
type Template struct {
	ID        string
	Name      string
	Steps     []Step
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Step struct {
	ID           string
	TemplateID   string
	Position     int // insertion index within the template, breaks Order ties
	Order        int
	Activity     string
	Category     string // trade (Gewerk)
	DurationDays int
	Parallel     bool
	Retired      bool // removed from the template but still referenced by started tasks
}

// Duration returns the step length in workdays; unset or non-positive
// durations count as one day.
func (s Step) Duration() int {
	return IntFromPtrWithDefault(1, positive(s.DurationDays))
}

func positive(n int) *int {
	if n < 1 {
		return nil
	}
	return &n
}
