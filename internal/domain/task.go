package domain

import (
	"fmt"
	"strings"
	"time"
)

// Task is a scheduled instance of a Step applied to a Unit. The pair
// (UnitID, StepID) is unique within a project.
type Task struct {
	ID           string
	ProjectID    string
	UnitID       string
	StepID       string
	PlannedStart *time.Time // soll
	PlannedEnd   *time.Time
	ActualStart  *time.Time // ist
	ActualEnd    *time.Time
	Status       TaskStatus
	Note         string
	AssigneeID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStarted reports whether work on the task has begun. Started tasks are
// never rescheduled or deleted by synchronization.
func (t *Task) IsStarted() bool {
	return t.ActualStart != nil
}

// DerivedStatus computes the status from the actual dates: a finish date
// means done, a start date alone means in progress, neither means open.
func (t *Task) DerivedStatus() TaskStatus {
	switch {
	case t.ActualEnd != nil:
		return StatusDone
	case t.ActualStart != nil:
		return StatusInProgress
	default:
		return StatusOpen
	}
}

// EffectiveStatus is the stored status, falling back to DerivedStatus for
// tasks that were never given one. Updates keep the stored value in step
// with the actual dates unless a status is set explicitly.
func (t *Task) EffectiveStatus() TaskStatus {
	if t.Status == "" {
		return t.DerivedStatus()
	}
	return t.Status
}

// IsDelayed reports whether the task finished late, or has not finished and
// its planned end lies before asOf.
func (t *Task) IsDelayed(asOf time.Time) bool {
	if t.PlannedEnd == nil {
		return false
	}
	if t.ActualEnd == nil {
		return t.PlannedEnd.Before(dayOf(asOf))
	}
	return t.ActualEnd.After(*t.PlannedEnd)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TaskView is a task joined with the names of its location, step and template.
type TaskView struct {
	Task
	Unit         UnitRef
	Activity     string
	Category     string
	StepOrder    int
	TemplateID   string
	TemplateName string
	AssigneeName string
}

// TaskFilter composes predicates over a project's tasks. Categories are
// AND-ed; values inside a category are OR-ed. The zero value matches all.
type TaskFilter struct {
	StructureFilter
	TaskIDs      []string
	Categories   []string // trades
	Statuses     []TaskStatus
	From         *time.Time // planned end on or after
	To           *time.Time // planned start on or before
	Delayed      bool
	ActivityText string // case-insensitive substring of the activity label
	Activities   []string
	Templates    []string // template names
}

// Validate rejects malformed filter values before any query runs.
func (f TaskFilter) Validate() error {
	for _, s := range f.Statuses {
		if _, err := ParseTaskStatus(string(s)); err != nil {
			return err
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("filter date range: end %s is before start %s",
			f.To.Format("2006-01-02"), f.From.Format("2006-01-02"))
	}
	return nil
}

// Normalized returns a copy with status aliases replaced by canonical values.
func (f TaskFilter) Normalized() (TaskFilter, error) {
	if err := f.Validate(); err != nil {
		return f, err
	}
	if len(f.Statuses) > 0 {
		statuses := make([]TaskStatus, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i], _ = ParseTaskStatus(string(s))
		}
		f.Statuses = statuses
	}
	return f, nil
}

// Matches evaluates the non-structural predicates in memory against a view.
// Repositories translate the same predicates to SQL.
func (f TaskFilter) Matches(v *TaskView, asOf time.Time) bool {
	if !f.StructureFilter.Matches(v.Unit) {
		return false
	}
	if !anyOf(f.TaskIDs, v.ID) || !anyOf(f.Categories, v.Category) ||
		!anyOf(f.Activities, v.Activity) || !anyOf(f.Templates, v.TemplateName) {
		return false
	}
	if len(f.Statuses) > 0 {
		status := v.EffectiveStatus()
		ok := false
		for _, s := range f.Statuses {
			if s == status {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && (v.PlannedEnd == nil || v.PlannedEnd.Before(*f.From)) {
		return false
	}
	if f.To != nil && (v.PlannedStart == nil || v.PlannedStart.After(*f.To)) {
		return false
	}
	if f.Delayed && !v.IsDelayed(asOf) {
		return false
	}
	if f.ActivityText != "" && !strings.Contains(strings.ToLower(v.Activity), strings.ToLower(f.ActivityText)) {
		return false
	}
	return true
}
