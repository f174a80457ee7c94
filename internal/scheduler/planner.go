package scheduler

import (
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
)

// Calendar is the workday arithmetic the planner needs.
type Calendar interface {
	NextWorkday(d time.Time) time.Time
	AddWorkdays(start time.Time, n int) time.Time
}

// PlannedStep is a step with its computed planned window.
type PlannedStep struct {
	Step  domain.Step
	Start time.Time
	End   time.Time
}

// PlanUnit lays out the template's steps from start. A cursor begins at the
// first workday on or after start. Each step starts on the first workday on
// or after the cursor and lasts Duration() workdays. After a sequential
// step the cursor moves to the workday after its end; a parallel step
// leaves the cursor where it was, so the next step starts with it.
func PlanUnit(cal Calendar, steps []domain.Step, start time.Time) []PlannedStep {
	ordered := OrderedSteps(steps)
	plan := make([]PlannedStep, 0, len(ordered))
	cursor := cal.NextWorkday(start)
	for _, s := range ordered {
		stepStart := cal.NextWorkday(cursor)
		stepEnd := cal.AddWorkdays(stepStart, s.Duration())
		plan = append(plan, PlannedStep{Step: s, Start: stepStart, End: stepEnd})
		if !s.Parallel {
			cursor = cal.NextWorkday(stepEnd.AddDate(0, 0, 1))
		}
	}
	return plan
}
