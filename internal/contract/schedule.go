package contract

import (
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
)

// StartMap maps unit IDs to the date their first step may begin. Units
// missing from the map are not scheduled.
type StartMap map[string]time.Time

type GenerateRequest struct {
	ProjectID string
	Starts    StartMap
}

type GenerateResponse struct {
	Created    []*domain.Task
	NoTemplate []string // unit IDs skipped because no template resolves
	Changes    ChangeSet
}

type SyncRequest struct {
	ProjectID string
	Starts    StartMap
	// Scope limits which units may be purged. The zero value is the whole
	// project.
	Scope domain.StructureFilter
	// PurgeUnitIDs lists units whose start date was removed; all of their
	// tasks are deleted, started or not.
	PurgeUnitIDs []string
}

// PurgeSkip records a purge request that was refused and why.
type PurgeSkip struct {
	UnitID string `json:"unit_id"`
	Reason string `json:"reason"`
}

const (
	PurgeSkipOutOfScope = "out of scope"
	PurgeSkipHasStart   = "has start date"
	PurgeSkipUnknown    = "unknown unit"
)

type SyncResponse struct {
	Changes      ChangeSet
	Unchanged    int // existing tasks whose dates already matched
	KeptStarted  int // started tasks left untouched
	NoTemplate   []string
	Purged       []string
	PurgeSkipped []PurgeSkip
}

type ShiftRequest struct {
	ProjectID    string
	Start        time.Time
	End          time.Time
	SkipWeekends bool
	Filter       domain.TaskFilter
}

type ShiftResponse struct {
	Moved     int
	ShiftDays int
	Changes   ChangeSet
}
