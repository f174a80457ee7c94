package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/taktplan/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// StructureRepo reads and writes the Section > Stairwell > Level > Unit tree.
type StructureRepo interface {
	Create(ctx context.Context, loc *domain.Location) error
	Get(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error)
	GetSection(ctx context.Context, id string) (*domain.Location, error)
	GetStairwell(ctx context.Context, id string) (*domain.Location, error)
	GetLevel(ctx context.Context, id string) (*domain.Location, error)
	GetUnit(ctx context.Context, id string) (*domain.Location, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Location, error)
	ListUnitRefs(ctx context.Context, projectID string, f domain.StructureFilter) ([]domain.UnitRef, error)
	GetUnitRef(ctx context.Context, unitID string) (*domain.UnitRef, error)
	ProjectOf(ctx context.Context, kind domain.LocationKind, id string) (string, error)
	DescendantUnitIDs(ctx context.Context, kind domain.LocationKind, id string) ([]string, error)
	SetTemplate(ctx context.Context, kind domain.LocationKind, id string, templateID *string) error
	SetTemplateBelow(ctx context.Context, kind domain.LocationKind, id string, templateID *string) (int, error)
	Delete(ctx context.Context, kind domain.LocationKind, id string) error
}

type TemplateRepo interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByID(ctx context.Context, id string) (*domain.Template, error)
	GetByName(ctx context.Context, name string) (*domain.Template, error)
	List(ctx context.Context) ([]*domain.Template, error)
	Update(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, id string) error
	ListSteps(ctx context.Context, templateID string, includeRetired bool) ([]domain.Step, error)
	CreateStep(ctx context.Context, s *domain.Step) error
	UpdateStep(ctx context.Context, s *domain.Step) error
	DeleteStep(ctx context.Context, id string) error
}

// TaskRepo is the task store. Filtered queries return joined views.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByUnit(ctx context.Context, unitID string) ([]*domain.Task, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Task, error)
	ListViews(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) ([]*domain.TaskView, error)
	Update(ctx context.Context, t *domain.Task) error
	UpdatePlannedDates(ctx context.Context, id string, start, end *time.Time) error
	SetAssignee(ctx context.Context, ids []string, assigneeID *string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByUnits(ctx context.Context, unitIDs []string) (int, error)
	DeleteUnstartedByStep(ctx context.Context, stepID string) (int, error)
	CountStartedByStep(ctx context.Context, stepID string) (int, error)
	CountStartedByTemplate(ctx context.Context, templateID string) (int, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

type AuditRepo interface {
	Insert(ctx context.Context, e *domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}
