package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
)

const stepColumns = `id, template_id, position, step_order, activity, category, duration_days, parallel, retired`

// SQLiteTemplateRepo implements TemplateRepo using a SQLite database.
// Templates own their steps; Create writes both.
type SQLiteTemplateRepo struct {
	db db.DBTX
}

// NewSQLiteTemplateRepo creates a new SQLiteTemplateRepo.
func NewSQLiteTemplateRepo(db db.DBTX) *SQLiteTemplateRepo {
	return &SQLiteTemplateRepo{db: db}
}

func (r *SQLiteTemplateRepo) Create(ctx context.Context, t *domain.Template) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	for i := range t.Steps {
		t.Steps[i].TemplateID = t.ID
		if err := r.CreateStep(ctx, &t.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTemplateRepo) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM templates WHERE id = ?`, id)
	return r.scanTemplateWithSteps(ctx, row)
}

func (r *SQLiteTemplateRepo) GetByName(ctx context.Context, name string) (*domain.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM templates WHERE name = ?`, name)
	return r.scanTemplateWithSteps(ctx, row)
}

func (r *SQLiteTemplateRepo) List(ctx context.Context) ([]*domain.Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	var templates []*domain.Template
	for rows.Next() {
		var t domain.Template
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(&t.ID, &t.Name, &createdAtStr, &updatedAtStr); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		if err := populateTemplate(&t, createdAtStr, updatedAtStr); err != nil {
			rows.Close()
			return nil, err
		}
		templates = append(templates, &t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating templates: %w", err)
	}

	// Steps are loaded after the cursor is closed; a transaction holds a
	// single connection.
	for _, t := range templates {
		steps, err := r.ListSteps(ctx, t.ID, false)
		if err != nil {
			return nil, err
		}
		t.Steps = steps
	}
	return templates, nil
}

func (r *SQLiteTemplateRepo) Update(ctx context.Context, t *domain.Template) error {
	res, err := r.db.ExecContext(ctx, `UPDATE templates SET name = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.UpdatedAt.Format(time.RFC3339), t.ID)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	return requireAffected(res, "template", t.ID)
}

func (r *SQLiteTemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return requireAffected(res, "template", id)
}

// ListSteps returns the template's steps in execution order: explicit
// order, then insertion position, then ID.
func (r *SQLiteTemplateRepo) ListSteps(ctx context.Context, templateID string, includeRetired bool) ([]domain.Step, error) {
	query := `SELECT ` + stepColumns + ` FROM steps WHERE template_id = ?`
	if !includeRetired {
		query += ` AND retired = 0`
	}
	query += ` ORDER BY step_order, position, id`
	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("listing steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.Step
	for rows.Next() {
		var s domain.Step
		var parallel, retired int
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.Position, &s.Order, &s.Activity, &s.Category,
			&s.DurationDays, &parallel, &retired); err != nil {
			return nil, fmt.Errorf("scanning step row: %w", err)
		}
		s.Parallel = intToBool(parallel)
		s.Retired = intToBool(retired)
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating steps: %w", err)
	}
	return steps, nil
}

func (r *SQLiteTemplateRepo) CreateStep(ctx context.Context, s *domain.Step) error {
	query := `INSERT INTO steps (` + stepColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TemplateID, s.Position, s.Order, s.Activity, s.Category,
		s.DurationDays, boolToInt(s.Parallel), boolToInt(s.Retired))
	if err != nil {
		return fmt.Errorf("inserting step: %w", err)
	}
	return nil
}

func (r *SQLiteTemplateRepo) UpdateStep(ctx context.Context, s *domain.Step) error {
	query := `UPDATE steps SET position = ?, step_order = ?, activity = ?, category = ?,
		duration_days = ?, parallel = ?, retired = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Position, s.Order, s.Activity, s.Category,
		s.DurationDays, boolToInt(s.Parallel), boolToInt(s.Retired), s.ID)
	if err != nil {
		return fmt.Errorf("updating step: %w", err)
	}
	return requireAffected(res, "step", s.ID)
}

func (r *SQLiteTemplateRepo) DeleteStep(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting step: %w", err)
	}
	return requireAffected(res, "step", id)
}

func (r *SQLiteTemplateRepo) scanTemplateWithSteps(ctx context.Context, row *sql.Row) (*domain.Template, error) {
	var t domain.Template
	var createdAtStr, updatedAtStr string
	if err := row.Scan(&t.ID, &t.Name, &createdAtStr, &updatedAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("template: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}
	if err := populateTemplate(&t, createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	steps, err := r.ListSteps(ctx, t.ID, false)
	if err != nil {
		return nil, err
	}
	t.Steps = steps
	return &t, nil
}

func populateTemplate(t *domain.Template, createdAtStr, updatedAtStr string) error {
	var parseErr error
	t.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return fmt.Errorf("parsing created_at: %w", parseErr)
	}
	t.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return nil
}
