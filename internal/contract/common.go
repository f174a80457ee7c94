package contract

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// TaskRef identifies a task created or deleted by an operation.
type TaskRef struct {
	TaskID string `json:"task_id"`
	UnitID string `json:"unit_id"`
	StepID string `json:"step_id"`
}

// FieldChange holds a before/after pair rendered as strings. Empty means
// the field was unset.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type TaskChange struct {
	TaskID string                 `json:"task_id"`
	Fields map[string]FieldChange `json:"fields"`
}

// ChangeSet describes what one operation did to the task store.
type ChangeSet struct {
	Created []TaskRef    `json:"created,omitempty"`
	Updated []TaskChange `json:"updated,omitempty"`
	Deleted []TaskRef    `json:"deleted,omitempty"`
}

func (c *ChangeSet) IsEmpty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Merge appends other's entries to c.
func (c *ChangeSet) Merge(other ChangeSet) {
	c.Created = append(c.Created, other.Created...)
	c.Updated = append(c.Updated, other.Updated...)
	c.Deleted = append(c.Deleted, other.Deleted...)
}

// AuditDetails summarizes the change set for the audit trail. Per-task
// field changes are included; creations and deletions are listed by ID.
func (c *ChangeSet) AuditDetails() map[string]any {
	details := map[string]any{
		"created": len(c.Created),
		"updated": len(c.Updated),
		"deleted": len(c.Deleted),
	}
	if len(c.Created) > 0 {
		details["created_ids"] = refIDs(c.Created)
	}
	if len(c.Deleted) > 0 {
		details["deleted_ids"] = refIDs(c.Deleted)
	}
	if len(c.Updated) > 0 {
		changes := make(map[string]map[string]FieldChange, len(c.Updated))
		for _, u := range c.Updated {
			changes[u.TaskID] = u.Fields
		}
		details["changes"] = changes
	}
	return details
}

// ChangedFields lists the field names touched by any update, sorted.
func (c *ChangeSet) ChangedFields() []string {
	seen := map[string]bool{}
	for _, u := range c.Updated {
		for f := range u.Fields {
			seen[f] = true
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func refIDs(refs []TaskRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.TaskID
	}
	return ids
}

// FormatDate renders an optional date for change records.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// FormatOptional renders an optional string for change records.
func FormatOptional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
