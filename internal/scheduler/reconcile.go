package scheduler

import (
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
)

// Reschedule moves an unstarted task to a new planned window.
type Reschedule struct {
	Task  *domain.Task
	Start time.Time
	End   time.Time
}

// UnitDiff is the reconciliation of one unit's tasks against its plan.
type UnitDiff struct {
	Create      []PlannedStep
	Reschedule  []Reschedule
	Delete      []*domain.Task
	Unchanged   int
	KeptStarted int
}

// DiffUnit compares the planned steps with the unit's existing tasks,
// keyed by step. Missing steps are created. Unstarted tasks whose dates
// differ are rescheduled and unstarted tasks of steps outside the plan are
// deleted. Started tasks are never touched. With createOnly set, only
// creations are reported.
func DiffUnit(plan []PlannedStep, existing []*domain.Task, createOnly bool) UnitDiff {
	byStep := make(map[string]*domain.Task, len(existing))
	for _, t := range existing {
		if _, dup := byStep[t.StepID]; !dup {
			byStep[t.StepID] = t
		}
	}

	var d UnitDiff
	planned := make(map[string]bool, len(plan))
	for _, p := range plan {
		planned[p.Step.ID] = true
		t, ok := byStep[p.Step.ID]
		switch {
		case !ok:
			d.Create = append(d.Create, p)
		case createOnly:
			d.Unchanged++
		case t.IsStarted():
			d.KeptStarted++
		case sameDay(t.PlannedStart, p.Start) && sameDay(t.PlannedEnd, p.End):
			d.Unchanged++
		default:
			d.Reschedule = append(d.Reschedule, Reschedule{Task: t, Start: p.Start, End: p.End})
		}
	}
	if createOnly {
		return d
	}

	for _, t := range existing {
		if planned[t.StepID] {
			continue
		}
		if t.IsStarted() {
			d.KeptStarted++
			continue
		}
		d.Delete = append(d.Delete, t)
	}
	return d
}

func sameDay(a *time.Time, b time.Time) bool {
	if a == nil {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
