package scheduler

import (
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// Field names used in change records.
const (
	FieldPlannedStart = "start_soll"
	FieldPlannedEnd   = "end_soll"
	FieldActualStart  = "start_ist"
	FieldActualEnd    = "end_ist"
	FieldStatus       = "status"
	FieldNote         = "note"
	FieldAssignee     = "assignee_id"
)

// ApplyUpdate writes the fields present in u onto t and returns the fields
// whose value changed. Copy-planned sentinels resolve against t's own
// planned dates. When an actual date changes and no explicit status is
// given, the status is derived again from the actual dates.
func ApplyUpdate(t *domain.Task, u contract.TaskUpdate, now time.Time) map[string]contract.FieldChange {
	changes := map[string]contract.FieldChange{}
	datesChanged := false

	if u.ActualStart != nil {
		next := u.ActualStart.Resolve(t.PlannedStart)
		if !sameDate(t.ActualStart, next) {
			changes[FieldActualStart] = contract.FieldChange{Old: contract.FormatDate(t.ActualStart), New: contract.FormatDate(next)}
			t.ActualStart = next
			datesChanged = true
		}
	}
	if u.ActualEnd != nil {
		next := u.ActualEnd.Resolve(t.PlannedEnd)
		if !sameDate(t.ActualEnd, next) {
			changes[FieldActualEnd] = contract.FieldChange{Old: contract.FormatDate(t.ActualEnd), New: contract.FormatDate(next)}
			t.ActualEnd = next
			datesChanged = true
		}
	}

	status := t.Status
	switch {
	case u.Status != nil:
		status = *u.Status
	case datesChanged:
		status = t.DerivedStatus()
	}
	if status != t.Status {
		changes[FieldStatus] = contract.FieldChange{Old: string(t.Status), New: string(status)}
		t.Status = status
	}

	if u.Note != nil && *u.Note != t.Note {
		changes[FieldNote] = contract.FieldChange{Old: t.Note, New: *u.Note}
		t.Note = *u.Note
	}

	if u.AssigneeID != nil {
		var next *string
		if *u.AssigneeID != "" {
			id := *u.AssigneeID
			next = &id
		}
		if contract.FormatOptional(t.AssigneeID) != contract.FormatOptional(next) {
			changes[FieldAssignee] = contract.FieldChange{Old: contract.FormatOptional(t.AssigneeID), New: contract.FormatOptional(next)}
			t.AssigneeID = next
		}
	}

	if len(changes) > 0 {
		t.UpdatedAt = now
	}
	return changes
}

// PlannedChange describes moving t to [start, end].
func PlannedChange(t *domain.Task, start, end time.Time) map[string]contract.FieldChange {
	changes := map[string]contract.FieldChange{}
	if !sameDay(t.PlannedStart, start) {
		changes[FieldPlannedStart] = contract.FieldChange{Old: contract.FormatDate(t.PlannedStart), New: start.Format("2006-01-02")}
	}
	if !sameDay(t.PlannedEnd, end) {
		changes[FieldPlannedEnd] = contract.FieldChange{Old: contract.FormatDate(t.PlannedEnd), New: end.Format("2006-01-02")}
	}
	return changes
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameDay(a, *b)
}
