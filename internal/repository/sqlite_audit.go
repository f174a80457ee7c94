package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// SQLiteAuditRepo stores audit entries with their details as JSON.
type SQLiteAuditRepo struct {
	db db.DBTX
}

// NewSQLiteAuditRepo creates a new SQLiteAuditRepo.
func NewSQLiteAuditRepo(db db.DBTX) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: db}
}

func (r *SQLiteAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encoding audit details: %w", err)
	}
	var projectID interface{}
	if e.ProjectID != "" {
		projectID = e.ProjectID
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, at, action, ok, project_id, details) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UTC().Format(sortableTime), e.Action, boolToInt(e.OK), projectID, string(payload))
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (r *SQLiteAuditRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, at, action, ok, project_id, details FROM audit_entries ORDER BY at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var atStr, details string
		var ok int
		var projectID sql.NullString
		if err := rows.Scan(&e.ID, &atStr, &e.Action, &ok, &projectID, &details); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		at := parseNullableTime(sql.NullString{String: atStr, Valid: true}, sortableTime)
		if at == nil {
			return nil, fmt.Errorf("parsing audit timestamp %q", atStr)
		}
		e.At = *at
		e.OK = intToBool(ok)
		e.ProjectID = projectID.String
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("decoding audit details: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}
