package service

import (
	"context"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	// Get accepts a project ID or short ID.
	Get(ctx context.Context, ref string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type StructureService interface {
	AddNode(ctx context.Context, req contract.AddNodeRequest) (*domain.Location, error)
	Get(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error)
	Tree(ctx context.Context, projectID string) (*contract.StructureTree, error)
	Units(ctx context.Context, projectID string, f domain.StructureFilter) ([]domain.UnitRef, error)
	Bind(ctx context.Context, req contract.BindRequest) (*contract.BindResponse, error)
	Delete(ctx context.Context, kind domain.LocationKind, id string) (*contract.DeleteNodeResponse, error)
}

type TemplateService interface {
	Create(ctx context.Context, t *domain.Template) error
	// Get accepts a template ID or name.
	Get(ctx context.Context, ref string) (*domain.Template, error)
	List(ctx context.Context) ([]*domain.Template, error)
	Replace(ctx context.Context, id string, name string, steps []domain.Step) (*contract.TemplateSaveResponse, error)
	Delete(ctx context.Context, id string, force bool) error
}

type UserService interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// ScheduleService generates, reconciles and shifts a project's tasks.
type ScheduleService interface {
	Generate(ctx context.Context, req contract.GenerateRequest) (*contract.GenerateResponse, error)
	Sync(ctx context.Context, req contract.SyncRequest) (*contract.SyncResponse, error)
	Shift(ctx context.Context, req contract.ShiftRequest) (*contract.ShiftResponse, error)
}

type TaskService interface {
	Get(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) ([]*domain.TaskView, error)
	Update(ctx context.Context, id string, u contract.TaskUpdate) (*contract.TaskUpdateResponse, error)
	Delete(ctx context.Context, id string) error
	Bulk(ctx context.Context, req contract.BulkRequest) (*contract.BulkResponse, error)
}

type ReportService interface {
	Stats(ctx context.Context, projectID string, f domain.TaskFilter, asOf time.Time) (*contract.StatsResponse, error)
	Curve(ctx context.Context, projectID string, f domain.TaskFilter) (*contract.CurveResponse, error)
	Timeline(ctx context.Context, projectID string, level domain.LocationKind, f domain.TaskFilter, asOf time.Time) (*contract.TimelineResponse, error)
}

type ImportService interface {
	// Import loads a file. projectID receives the structure when the file
	// does not define its own project.
	Import(ctx context.Context, path string, projectID string) (*contract.ImportResult, error)
}

type AuditService interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}
