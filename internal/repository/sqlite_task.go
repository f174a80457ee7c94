package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, project_id, unit_id, step_id, start_soll, end_soll, start_ist, end_ist,
		status, note, assignee_id, created_at, updated_at`

// taskColumnsAliased is the same column list prefixed with "t." for join queries.
const taskColumnsAliased = `t.id, t.project_id, t.unit_id, t.step_id, t.start_soll, t.end_soll,
		t.start_ist, t.end_ist, t.status, t.note, t.assignee_id, t.created_at, t.updated_at`

// delayedSQL mirrors domain.Task.IsDelayed; the single argument is asOf.
const delayedSQL = `((t.end_ist IS NULL AND t.end_soll < ?) OR
		(t.end_ist IS NOT NULL AND t.end_ist > t.end_soll))`

const taskViewSelect = `SELECT ` + taskColumnsAliased + `,
		s.project_id, u.id, u.name, l.id, l.name, sw.id, sw.name, s.id, s.name,
		st.activity, st.category, st.step_order, tp.id, tp.name, COALESCE(us.name, '')
		FROM tasks t
		JOIN units u ON u.id = t.unit_id
		JOIN levels l ON l.id = u.level_id
		JOIN stairwells sw ON sw.id = l.stairwell_id
		JOIN sections s ON s.id = sw.section_id
		JOIN steps st ON st.id = t.step_id
		JOIN templates tp ON tp.id = st.template_id
		LEFT JOIN users us ON us.id = t.assignee_id`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		t.UnitID,
		t.StepID,
		nullableTimeToString(t.PlannedStart, dateLayout),
		nullableTimeToString(t.PlannedEnd, dateLayout),
		nullableTimeToString(t.ActualStart, dateLayout),
		nullableTimeToString(t.ActualEnd, dateLayout),
		string(taskStatusOrDefault(t.Status)),
		t.Note,
		nullableString(t.AssigneeID),
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var t domain.Task
	var raw taskRaw
	if err := row.Scan(raw.dest(&t)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	if err := raw.populate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteTaskRepo) ListByUnit(ctx context.Context, unitID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE unit_id = ? ORDER BY start_soll, id`
	rows, err := r.db.QueryContext(ctx, query, unitID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by unit: %w", err)
	}
	return r.scanTasks(rows)
}

// ListByIDs returns the tasks with the given IDs; missing IDs are omitted.
// Callers that need every ID to exist compare the lengths.
func (r *SQLiteTaskRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cond, args := inClause("id", ids, nil)
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+cond+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by id: %w", err)
	}
	return r.scanTasks(rows)
}

// ListViews returns the project's tasks matching f, joined with their
// location, step and template. Delay is evaluated against asOf.
func (r *SQLiteTaskRepo) ListViews(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) ([]*domain.TaskView, error) {
	clauses := []string{"t.project_id = ?"}
	args := []any{projectID}
	add := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		var c string
		c, args = inClause(col, values, args)
		clauses = append(clauses, c)
	}
	add("t.id", f.TaskIDs)
	add("st.category", f.Categories)
	add("st.activity", f.Activities)
	add("tp.name", f.Templates)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("t.status", statuses)
	}
	if f.From != nil {
		clauses = append(clauses, "t.end_soll >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if f.To != nil {
		clauses = append(clauses, "t.start_soll <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Delayed {
		clauses = append(clauses, delayedSQL)
		args = append(args, asOf.Format(dateLayout))
	}
	if f.ActivityText != "" {
		clauses = append(clauses, "instr(LOWER(st.activity), LOWER(?)) > 0")
		args = append(args, f.ActivityText)
	}
	where, args := structureWhere(f.StructureFilter, clauses, args)

	query := taskViewSelect + ` WHERE ` + where + structureOrder + `, st.step_order, st.position, t.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing task views: %w", err)
	}
	defer rows.Close()

	var views []*domain.TaskView
	for rows.Next() {
		var v domain.TaskView
		var raw taskRaw
		dest := append(raw.dest(&v.Task),
			&v.Unit.ProjectID, &v.Unit.UnitID, &v.Unit.UnitName, &v.Unit.LevelID, &v.Unit.LevelName,
			&v.Unit.StairwellID, &v.Unit.StairwellName, &v.Unit.SectionID, &v.Unit.SectionName,
			&v.Activity, &v.Category, &v.StepOrder, &v.TemplateID, &v.TemplateName, &v.AssigneeName,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning task view row: %w", err)
		}
		if err := raw.populate(&v.Task); err != nil {
			return nil, err
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task views: %w", err)
	}
	return views, nil
}

// Update writes every mutable field of the task.
func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET start_soll = ?, end_soll = ?, start_ist = ?, end_ist = ?,
		status = ?, note = ?, assignee_id = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(t.PlannedStart, dateLayout),
		nullableTimeToString(t.PlannedEnd, dateLayout),
		nullableTimeToString(t.ActualStart, dateLayout),
		nullableTimeToString(t.ActualEnd, dateLayout),
		string(taskStatusOrDefault(t.Status)),
		t.Note,
		nullableString(t.AssigneeID),
		t.UpdatedAt.Format(time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireAffected(res, "task", t.ID)
}

func (r *SQLiteTaskRepo) UpdatePlannedDates(ctx context.Context, id string, start, end *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET start_soll = ?, end_soll = ?, updated_at = ? WHERE id = ?`,
		nullableTimeToString(start, dateLayout), nullableTimeToString(end, dateLayout), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("updating planned dates: %w", err)
	}
	return requireAffected(res, "task", id)
}

// SetAssignee assigns all listed tasks in one statement. Rows that already
// carry the assignee are not touched and not counted.
func (r *SQLiteTaskRepo) SetAssignee(ctx context.Context, ids []string, assigneeID *string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{nullableString(assigneeID), nowUTC()}
	cond, args := inClause("id", ids, args)
	args = append(args, nullableString(assigneeID))
	query := `UPDATE tasks SET assignee_id = ?, updated_at = ? WHERE ` + cond + ` AND assignee_id IS NOT ?`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk assigning tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireAffected(res, "task", id)
}

// DeleteByUnits removes every task of the listed units, started or not.
func (r *SQLiteTaskRepo) DeleteByUnits(ctx context.Context, unitIDs []string) (int, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	cond, args := inClause("unit_id", unitIDs, nil)
	return r.execCount(ctx, "deleting tasks by unit", `DELETE FROM tasks WHERE `+cond, args...)
}

func (r *SQLiteTaskRepo) DeleteUnstartedByStep(ctx context.Context, stepID string) (int, error) {
	return r.execCount(ctx, "deleting unstarted tasks of step",
		`DELETE FROM tasks WHERE step_id = ? AND start_ist IS NULL`, stepID)
}

func (r *SQLiteTaskRepo) CountStartedByStep(ctx context.Context, stepID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE step_id = ? AND start_ist IS NOT NULL`, stepID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting started tasks of step: %w", err)
	}
	return n, nil
}

func (r *SQLiteTaskRepo) CountStartedByTemplate(ctx context.Context, templateID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t JOIN steps st ON st.id = t.step_id
		WHERE st.template_id = ? AND t.start_ist IS NOT NULL`, templateID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting started tasks of template: %w", err)
	}
	return n, nil
}

func (r *SQLiteTaskRepo) execCount(ctx context.Context, what, query string, args ...any) (int, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteTaskRepo) scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	defer rows.Close()
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		var raw taskRaw
		if err := rows.Scan(raw.dest(&t)...); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		if err := raw.populate(&t); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// taskRaw holds the columns of a task row that need parsing.
type taskRaw struct {
	startSoll, endSoll, startIst, endIst sql.NullString
	assigneeID                           sql.NullString
	status, createdAt, updatedAt         string
}

func (raw *taskRaw) dest(t *domain.Task) []any {
	return []any{
		&t.ID, &t.ProjectID, &t.UnitID, &t.StepID,
		&raw.startSoll, &raw.endSoll, &raw.startIst, &raw.endIst,
		&raw.status, &t.Note, &raw.assigneeID, &raw.createdAt, &raw.updatedAt,
	}
}

func (raw *taskRaw) populate(t *domain.Task) error {
	t.PlannedStart = parseNullableTime(raw.startSoll, dateLayout)
	t.PlannedEnd = parseNullableTime(raw.endSoll, dateLayout)
	t.ActualStart = parseNullableTime(raw.startIst, dateLayout)
	t.ActualEnd = parseNullableTime(raw.endIst, dateLayout)
	t.Status = domain.TaskStatus(raw.status)
	t.AssigneeID = stringPtr(raw.assigneeID)

	var parseErr error
	t.CreatedAt, parseErr = time.Parse(time.RFC3339, raw.createdAt)
	if parseErr != nil {
		return fmt.Errorf("parsing created_at: %w", parseErr)
	}
	t.UpdatedAt, parseErr = time.Parse(time.RFC3339, raw.updatedAt)
	if parseErr != nil {
		return fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return nil
}

func taskStatusOrDefault(s domain.TaskStatus) domain.TaskStatus {
	if s == "" {
		return domain.StatusOpen
	}
	return s
}
