package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateDedupeTasks(db); err != nil {
		return fmt.Errorf("deduplicating tasks: %w", err)
	}
	for i, stmt := range postMigrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("post-migration %d: %w", i, err)
		}
	}
	return nil
}

// migrateDedupeTasks removes duplicate (unit_id, step_id) rows left by
// databases created before the uniqueness index existed. Per pair the
// started row wins, then the oldest.
func migrateDedupeTasks(db *sql.DB) error {
	ctx := context.Background()

	var exists int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'uq_tasks_unit_step'`,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking task uniqueness index: %w", err)
	}
	if exists > 0 {
		return nil
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY unit_id, step_id
				ORDER BY (start_ist IS NULL), created_at, id
			) AS rn
			FROM tasks
		) WHERE rn > 1`)
	if err != nil {
		return fmt.Errorf("listing duplicate tasks: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning duplicate task id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating duplicate tasks: %w", err)
	}

	for _, id := range ids {
		if _, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting duplicate task %s: %w", id, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		start_date  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS templates (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS steps (
		id            TEXT PRIMARY KEY,
		template_id   TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL DEFAULT 0,
		step_order    INTEGER NOT NULL DEFAULT 0,
		activity      TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		duration_days INTEGER NOT NULL DEFAULT 1,
		parallel      INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_steps_template ON steps(template_id)`,

	`CREATE TABLE IF NOT EXISTS sections (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		template_id TEXT REFERENCES templates(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stairwells (
		id          TEXT PRIMARY KEY,
		section_id  TEXT NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		template_id TEXT REFERENCES templates(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS levels (
		id           TEXT PRIMARY KEY,
		stairwell_id TEXT NOT NULL REFERENCES stairwells(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		template_id  TEXT REFERENCES templates(id) ON DELETE SET NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS units (
		id          TEXT PRIMARY KEY,
		level_id    TEXT NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		template_id TEXT REFERENCES templates(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sections_project ON sections(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stairwells_section ON stairwells(section_id)`,
	`CREATE INDEX IF NOT EXISTS idx_levels_stairwell ON levels(stairwell_id)`,
	`CREATE INDEX IF NOT EXISTS idx_units_level ON units(level_id)`,

	`CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		role        TEXT NOT NULL DEFAULT 'sub'
		            CHECK(role IN ('admin','manager','sub')),
		created_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		unit_id     TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		step_id     TEXT NOT NULL REFERENCES steps(id) ON DELETE CASCADE,
		start_soll  TEXT,
		end_soll    TEXT,
		start_ist   TEXT,
		end_ist     TEXT,
		status      TEXT NOT NULL DEFAULT 'open'
		            CHECK(status IN ('open','in_progress','done')),
		note        TEXT NOT NULL DEFAULT '',
		assignee_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_unit ON tasks(unit_id)`,

	`CREATE TABLE IF NOT EXISTS audit_entries (
		id          TEXT PRIMARY KEY,
		at          TEXT NOT NULL,
		action      TEXT NOT NULL,
		ok          INTEGER NOT NULL DEFAULT 1,
		project_id  TEXT,
		details     TEXT NOT NULL DEFAULT '{}'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_audit_entries_at ON audit_entries(at)`,

	// Short project codes (e.g. WHA01) for CLI addressing.
	`ALTER TABLE projects ADD COLUMN short_id TEXT`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_short_id ON projects(short_id) WHERE short_id IS NOT NULL`,

	// Steps removed from a template while started tasks still reference them.
	`ALTER TABLE steps ADD COLUMN retired INTEGER NOT NULL DEFAULT 0`,
}

// postMigrations run after data fixups that they depend on.
var postMigrations = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_tasks_unit_step ON tasks(unit_id, step_id)`,
}
