package domain

import "time"

// AuditEntry records one mutating operation and whether it succeeded.
type AuditEntry struct {
	ID        string
	At        time.Time
	Action    string
	OK        bool
	ProjectID string
	Details   map[string]any
}
