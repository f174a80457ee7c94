package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/alexanderramin/taktplan/internal/testutil"
	"github.com/stretchr/testify/require"
)

// fixedNow is mid-January 2025; tasks planned before it count as delayed.
var fixedNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testEnv struct {
	db        *sql.DB
	uow       db.UnitOfWork
	projects  *repository.SQLiteProjectRepo
	structure *repository.SQLiteStructureRepo
	templates *repository.SQLiteTemplateRepo
	tasks     *repository.SQLiteTaskRepo
	users     *repository.SQLiteUserRepo
	entries   *repository.SQLiteAuditRepo
	audit     *recordingAudit
	project   *domain.Project
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	env := &testEnv{
		db:        database,
		uow:       testutil.NewTestUoW(database),
		projects:  repository.NewSQLiteProjectRepo(database),
		structure: repository.NewSQLiteStructureRepo(database),
		templates: repository.NewSQLiteTemplateRepo(database),
		tasks:     repository.NewSQLiteTaskRepo(database),
		users:     repository.NewSQLiteUserRepo(database),
		entries:   repository.NewSQLiteAuditRepo(database),
		audit:     &recordingAudit{},
	}
	env.project = testutil.NewTestProject("Wohnanlage Nord")
	require.NoError(t, env.projects.Create(context.Background(), env.project))
	return env
}

// opts are the service options every test uses: fixed clock and the
// recording audit trail.
func (e *testEnv) opts(extra ...Option) []Option {
	return append([]Option{WithClock(fixedClock), WithAudit(e.audit)}, extra...)
}

func (e *testEnv) building(t *testing.T, sections, stairwells, levels, units int) *testutil.Building {
	t.Helper()
	b := testutil.NewBuilding(e.project.ID, sections, stairwells, levels, units)
	for _, n := range b.Nodes {
		require.NoError(t, e.structure.Create(context.Background(), n))
	}
	return b
}

func (e *testEnv) template(t *testing.T, name string, steps ...domain.Step) *domain.Template {
	t.Helper()
	tpl := testutil.NewTestTemplate(name, steps...)
	require.NoError(t, e.templates.Create(context.Background(), tpl))
	return tpl
}

func (e *testEnv) bind(t *testing.T, loc *domain.Location, templateID string) {
	t.Helper()
	require.NoError(t, e.structure.SetTemplate(context.Background(), loc.Kind, loc.ID, &templateID))
}

func (e *testEnv) unitTasks(t *testing.T, unitID string) []*domain.Task {
	t.Helper()
	tasks, err := e.tasks.ListByUnit(context.Background(), unitID)
	require.NoError(t, err)
	return tasks
}

// taskForStep finds the unit's task of the given step, or nil.
func (e *testEnv) taskForStep(t *testing.T, unitID, stepID string) *domain.Task {
	t.Helper()
	for _, task := range e.unitTasks(t, unitID) {
		if task.StepID == stepID {
			return task
		}
	}
	return nil
}

func (e *testEnv) user(t *testing.T, name string, role domain.UserRole) *domain.User {
	t.Helper()
	u := testutil.NewTestUser(name, role)
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

// twoStepTemplate is "Estrich" for three days followed by "Fliesen" for two.
func (e *testEnv) twoStepTemplate(t *testing.T) *domain.Template {
	t.Helper()
	return e.template(t, "Standard",
		testutil.NewTestStep("Estrich", 1, 3, testutil.WithCategory("Estrich")),
		testutil.NewTestStep("Fliesen", 2, 2, testutil.WithCategory("Fliesenleger")),
	)
}

type recordedAudit struct {
	Action    string
	OK        bool
	ProjectID string
	Details   map[string]any
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (r *recordingAudit) Record(_ context.Context, action string, ok bool, projectID string, details map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedAudit{Action: action, OK: ok, ProjectID: projectID, Details: details})
}

func (r *recordingAudit) last() recordedAudit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return recordedAudit{}
	}
	return r.entries[len(r.entries)-1]
}

func (r *recordingAudit) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
