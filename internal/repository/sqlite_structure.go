package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
)

// locationTable maps a hierarchy level to its table and parent column.
type locationTable struct {
	table     string
	parentCol string
}

var locationTables = map[domain.LocationKind]locationTable{
	domain.KindSection:   {"sections", "project_id"},
	domain.KindStairwell: {"stairwells", "section_id"},
	domain.KindLevel:     {"levels", "stairwell_id"},
	domain.KindUnit:      {"units", "level_id"},
}

func tableFor(kind domain.LocationKind) (locationTable, error) {
	lt, ok := locationTables[kind]
	if !ok {
		return locationTable{}, fmt.Errorf("unknown location kind %q", kind)
	}
	return lt, nil
}

// unitRefSelect joins a unit with all of its ancestors.
const unitRefSelect = `SELECT s.project_id, u.id, u.name, l.id, l.name, sw.id, sw.name, s.id, s.name
		FROM units u
		JOIN levels l ON l.id = u.level_id
		JOIN stairwells sw ON sw.id = l.stairwell_id
		JOIN sections s ON s.id = sw.section_id`

// structureOrder lists units in creation order, outermost level first.
const structureOrder = ` ORDER BY s.created_at, s.id, sw.created_at, sw.id, l.created_at, l.id, u.created_at, u.id`

// SQLiteStructureRepo implements StructureRepo using a SQLite database.
type SQLiteStructureRepo struct {
	db db.DBTX
}

// NewSQLiteStructureRepo creates a new SQLiteStructureRepo.
func NewSQLiteStructureRepo(db db.DBTX) *SQLiteStructureRepo {
	return &SQLiteStructureRepo{db: db}
}

func (r *SQLiteStructureRepo) Create(ctx context.Context, loc *domain.Location) error {
	lt, err := tableFor(loc.Kind)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + lt.table + ` (id, ` + lt.parentCol + `, name, template_id, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		loc.ID,
		loc.ParentID,
		loc.Name,
		nullableString(loc.TemplateID),
		loc.CreatedAt.UTC().Format(sortableTime),
	)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", loc.Kind, err)
	}
	return nil
}

func (r *SQLiteStructureRepo) Get(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error) {
	lt, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, ` + lt.parentCol + `, name, template_id, created_at FROM ` + lt.table + ` WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	loc := domain.Location{Kind: kind}
	var templateID sql.NullString
	var createdAtStr string
	if err := row.Scan(&loc.ID, &loc.ParentID, &loc.Name, &templateID, &createdAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning %s: %w", kind, err)
	}
	if err := populateLocation(&loc, templateID, createdAtStr); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *SQLiteStructureRepo) GetSection(ctx context.Context, id string) (*domain.Location, error) {
	return r.Get(ctx, domain.KindSection, id)
}

func (r *SQLiteStructureRepo) GetStairwell(ctx context.Context, id string) (*domain.Location, error) {
	return r.Get(ctx, domain.KindStairwell, id)
}

func (r *SQLiteStructureRepo) GetLevel(ctx context.Context, id string) (*domain.Location, error) {
	return r.Get(ctx, domain.KindLevel, id)
}

func (r *SQLiteStructureRepo) GetUnit(ctx context.Context, id string) (*domain.Location, error) {
	return r.Get(ctx, domain.KindUnit, id)
}

// ListByProject returns every node of the project tree, outermost kinds
// first and creation order within a kind.
func (r *SQLiteStructureRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Location, error) {
	queries := []struct {
		kind  domain.LocationKind
		query string
	}{
		{domain.KindSection, `SELECT s.id, s.project_id, s.name, s.template_id, s.created_at
			FROM sections s WHERE s.project_id = ? ORDER BY s.created_at, s.id`},
		{domain.KindStairwell, `SELECT sw.id, sw.section_id, sw.name, sw.template_id, sw.created_at
			FROM stairwells sw JOIN sections s ON s.id = sw.section_id
			WHERE s.project_id = ? ORDER BY sw.created_at, sw.id`},
		{domain.KindLevel, `SELECT l.id, l.stairwell_id, l.name, l.template_id, l.created_at
			FROM levels l JOIN stairwells sw ON sw.id = l.stairwell_id JOIN sections s ON s.id = sw.section_id
			WHERE s.project_id = ? ORDER BY l.created_at, l.id`},
		{domain.KindUnit, `SELECT u.id, u.level_id, u.name, u.template_id, u.created_at
			FROM units u JOIN levels l ON l.id = u.level_id JOIN stairwells sw ON sw.id = l.stairwell_id
			JOIN sections s ON s.id = sw.section_id
			WHERE s.project_id = ? ORDER BY u.created_at, u.id`},
	}

	var out []*domain.Location
	for _, q := range queries {
		rows, err := r.db.QueryContext(ctx, q.query, projectID)
		if err != nil {
			return nil, fmt.Errorf("listing %ss: %w", q.kind, err)
		}
		locs, err := scanLocations(rows, q.kind)
		if err != nil {
			return nil, err
		}
		out = append(out, locs...)
	}
	return out, nil
}

// ListUnitRefs returns the project's units matching f.
func (r *SQLiteStructureRepo) ListUnitRefs(ctx context.Context, projectID string, f domain.StructureFilter) ([]domain.UnitRef, error) {
	where, args := structureWhere(f, []string{"s.project_id = ?"}, []any{projectID})
	query := unitRefSelect + ` WHERE ` + where + structureOrder
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var refs []domain.UnitRef
	for rows.Next() {
		var u domain.UnitRef
		if err := rows.Scan(&u.ProjectID, &u.UnitID, &u.UnitName, &u.LevelID, &u.LevelName,
			&u.StairwellID, &u.StairwellName, &u.SectionID, &u.SectionName); err != nil {
			return nil, fmt.Errorf("scanning unit row: %w", err)
		}
		refs = append(refs, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating units: %w", err)
	}
	return refs, nil
}

func (r *SQLiteStructureRepo) GetUnitRef(ctx context.Context, unitID string) (*domain.UnitRef, error) {
	row := r.db.QueryRowContext(ctx, unitRefSelect+` WHERE u.id = ?`, unitID)
	var u domain.UnitRef
	if err := row.Scan(&u.ProjectID, &u.UnitID, &u.UnitName, &u.LevelID, &u.LevelName,
		&u.StairwellID, &u.StairwellName, &u.SectionID, &u.SectionName); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("unit %s: %w", unitID, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning unit: %w", err)
	}
	return &u, nil
}

// ProjectOf returns the project owning the given node.
func (r *SQLiteStructureRepo) ProjectOf(ctx context.Context, kind domain.LocationKind, id string) (string, error) {
	var query string
	switch kind {
	case domain.KindSection:
		query = `SELECT s.project_id FROM sections s WHERE s.id = ?`
	case domain.KindStairwell:
		query = `SELECT s.project_id FROM stairwells sw JOIN sections s ON s.id = sw.section_id WHERE sw.id = ?`
	case domain.KindLevel:
		query = `SELECT s.project_id FROM levels l JOIN stairwells sw ON sw.id = l.stairwell_id
			JOIN sections s ON s.id = sw.section_id WHERE l.id = ?`
	case domain.KindUnit:
		query = `SELECT s.project_id FROM units u JOIN levels l ON l.id = u.level_id
			JOIN stairwells sw ON sw.id = l.stairwell_id JOIN sections s ON s.id = sw.section_id WHERE u.id = ?`
	default:
		return "", fmt.Errorf("unknown location kind %q", kind)
	}
	var projectID string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&projectID); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
		}
		return "", fmt.Errorf("resolving project of %s: %w", kind, err)
	}
	return projectID, nil
}

// descendantIDs builds a subquery selecting the IDs of all nodes of kind
// target below the node (kind, id). The id argument is bound once.
func descendantIDs(kind, target domain.LocationKind) (string, error) {
	sub := "?"
	for k := kind.Child(); ; k = k.Child() {
		if k == "" {
			return "", fmt.Errorf("%s is not below %s", target, kind)
		}
		lt := locationTables[k]
		if sub == "?" {
			sub = `SELECT id FROM ` + lt.table + ` WHERE ` + lt.parentCol + ` = ?`
		} else {
			sub = `SELECT id FROM ` + lt.table + ` WHERE ` + lt.parentCol + ` IN (` + sub + `)`
		}
		if k == target {
			return sub, nil
		}
	}
}

// DescendantUnitIDs lists the units at or below the node.
func (r *SQLiteStructureRepo) DescendantUnitIDs(ctx context.Context, kind domain.LocationKind, id string) ([]string, error) {
	if kind == domain.KindUnit {
		return []string{id}, nil
	}
	sub, err := descendantIDs(kind, domain.KindUnit)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sub+` ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing units below %s: %w", kind, err)
	}
	ids, err := collectStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning unit ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteStructureRepo) SetTemplate(ctx context.Context, kind domain.LocationKind, id string, templateID *string) error {
	lt, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE `+lt.table+` SET template_id = ? WHERE id = ?`, nullableString(templateID), id)
	if err != nil {
		return fmt.Errorf("binding template to %s: %w", kind, err)
	}
	return requireAffected(res, string(kind), id)
}

// SetTemplateBelow writes the binding onto every descendant of the node and
// returns the number of nodes updated.
func (r *SQLiteStructureRepo) SetTemplateBelow(ctx context.Context, kind domain.LocationKind, id string, templateID *string) (int, error) {
	total := 0
	for k := kind.Child(); k != ""; k = k.Child() {
		sub, err := descendantIDs(kind, k)
		if err != nil {
			return 0, err
		}
		lt := locationTables[k]
		res, err := r.db.ExecContext(ctx, `UPDATE `+lt.table+` SET template_id = ? WHERE id IN (`+sub+`)`,
			nullableString(templateID), id)
		if err != nil {
			return 0, fmt.Errorf("propagating template to %ss: %w", k, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading affected rows: %w", err)
		}
		total += int(n)
	}
	return total, nil
}

func (r *SQLiteStructureRepo) Delete(ctx context.Context, kind domain.LocationKind, id string) error {
	lt, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+lt.table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	return requireAffected(res, string(kind), id)
}

func scanLocations(rows *sql.Rows, kind domain.LocationKind) ([]*domain.Location, error) {
	defer rows.Close()
	var locs []*domain.Location
	for rows.Next() {
		loc := domain.Location{Kind: kind}
		var templateID sql.NullString
		var createdAtStr string
		if err := rows.Scan(&loc.ID, &loc.ParentID, &loc.Name, &templateID, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", kind, err)
		}
		if err := populateLocation(&loc, templateID, createdAtStr); err != nil {
			return nil, err
		}
		locs = append(locs, &loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %ss: %w", kind, err)
	}
	return locs, nil
}

func populateLocation(loc *domain.Location, templateID sql.NullString, createdAtStr string) error {
	loc.TemplateID = stringPtr(templateID)
	created, err := time.Parse(sortableTime, createdAtStr)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	loc.CreatedAt = created
	return nil
}

// structureWhere appends the structural predicates of f, using the aliases
// of unitRefSelect, and joins all clauses with AND.
func structureWhere(f domain.StructureFilter, clauses []string, args []any) (string, []any) {
	add := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		var c string
		c, args = inClause(col, values, args)
		clauses = append(clauses, c)
	}
	add("s.name", f.Sections)
	add("sw.name", f.Stairwells)
	add("l.name", f.Levels)
	add("u.name", f.Units)
	add("u.id", f.UnitIDs)
	return joinAnd(clauses), args
}

func joinAnd(clauses []string) string {
	if len(clauses) == 0 {
		return "1 = 1"
	}
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}
