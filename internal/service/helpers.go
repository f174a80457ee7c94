package service

import (
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/alexanderramin/taktplan/internal/scheduler"
	"github.com/google/uuid"
)

// txRepos bundles the repositories bound to one transaction.
type txRepos struct {
	projects  *repository.SQLiteProjectRepo
	structure *repository.SQLiteStructureRepo
	templates *repository.SQLiteTemplateRepo
	tasks     *repository.SQLiteTaskRepo
	users     *repository.SQLiteUserRepo
}

func reposFor(tx db.DBTX) txRepos {
	return txRepos{
		projects:  repository.NewSQLiteProjectRepo(tx),
		structure: repository.NewSQLiteStructureRepo(tx),
		templates: repository.NewSQLiteTemplateRepo(tx),
		tasks:     repository.NewSQLiteTaskRepo(tx),
		users:     repository.NewSQLiteUserRepo(tx),
	}
}

// invalid wraps a validation failure so callers can match ErrValidation.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func newTask(projectID, unitID string, p scheduler.PlannedStep, now time.Time) *domain.Task {
	start, end := p.Start, p.End
	return &domain.Task{
		ID:           uuid.New().String(),
		ProjectID:    projectID,
		UnitID:       unitID,
		StepID:       p.Step.ID,
		PlannedStart: &start,
		PlannedEnd:   &end,
		Status:       domain.StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func refOf(t *domain.Task) contract.TaskRef {
	return contract.TaskRef{TaskID: t.ID, UnitID: t.UnitID, StepID: t.StepID}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// errorDetails is the audit payload of a failed operation.
func errorDetails(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
