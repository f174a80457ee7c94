package contract

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
)

type DateUpdateMode int

const (
	// DateSet writes a literal date.
	DateSet DateUpdateMode = iota + 1
	// DateCopyPlanned copies the task's own corresponding planned date.
	DateCopyPlanned
	// DateClear removes the date.
	DateClear
)

// DateUpdate is the payload for an actual-date field.
type DateUpdate struct {
	Mode DateUpdateMode
	Date time.Time
}

func SetDate(d time.Time) *DateUpdate { return &DateUpdate{Mode: DateSet, Date: d} }
func CopyPlanned() *DateUpdate        { return &DateUpdate{Mode: DateCopyPlanned} }
func ClearDate() *DateUpdate          { return &DateUpdate{Mode: DateClear} }

// ParseDateUpdate accepts YYYY-MM-DD, "planned" (alias "soll") for the
// copy sentinel, and "none" (alias "clear") to unset.
func ParseDateUpdate(s string) (*DateUpdate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planned", "soll":
		return CopyPlanned(), nil
	case "none", "clear", "":
		return ClearDate(), nil
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD, planned or none)", s)
	}
	return SetDate(d), nil
}

// Resolve returns the new value given the task's planned date for the
// same side.
func (u *DateUpdate) Resolve(planned *time.Time) *time.Time {
	switch u.Mode {
	case DateSet:
		d := u.Date
		return &d
	case DateCopyPlanned:
		if planned == nil {
			return nil
		}
		d := *planned
		return &d
	default:
		return nil
	}
}

// TaskUpdate carries the fields to change; nil fields are left alone.
// AssigneeID pointing at "" unassigns.
type TaskUpdate struct {
	AssigneeID  *string
	ActualStart *DateUpdate
	ActualEnd   *DateUpdate
	Status      *domain.TaskStatus
	Note        *string
}

func (u TaskUpdate) IsEmpty() bool {
	return u.AssigneeID == nil && u.ActualStart == nil && u.ActualEnd == nil &&
		u.Status == nil && u.Note == nil
}

// AssigneeOnly reports whether assignment is the only change requested.
func (u TaskUpdate) AssigneeOnly() bool {
	return u.AssigneeID != nil && u.ActualStart == nil && u.ActualEnd == nil &&
		u.Status == nil && u.Note == nil
}

// BulkRequest selects tasks either by explicit IDs or by filter.
type BulkRequest struct {
	ProjectID string
	TaskIDs   []string
	Filter    *domain.TaskFilter
	Update    TaskUpdate
	// AsOf is the reference date for the delayed predicate. Zero means today.
	AsOf time.Time
}

type BulkResponse struct {
	Matched  int
	Affected int // rows actually changed
	Changes  ChangeSet
}

type TaskUpdateResponse struct {
	Task    *domain.Task
	Changes ChangeSet
}
