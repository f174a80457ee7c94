package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scheduledEnv holds a building of two levels with two units each, all
// scheduled from 2025-01-06 with the two-step template.
type scheduledEnv struct {
	*testEnv
	building *testutil.Building
	tpl      *domain.Template
}

func newScheduledEnv(t *testing.T) *scheduledEnv {
	t.Helper()
	env := newTestEnv(t)
	b := env.building(t, 1, 1, 2, 2)
	tpl := env.twoStepTemplate(t)
	env.bind(t, b.Sections[0], tpl.ID)

	starts := contract.StartMap{}
	for _, u := range b.Units {
		starts[u.ID] = testutil.Date(2025, 1, 6)
	}
	_, err := NewScheduleService(env.uow).Generate(context.Background(), contract.GenerateRequest{
		ProjectID: env.project.ID,
		Starts:    starts,
	})
	require.NoError(t, err)
	return &scheduledEnv{testEnv: env, building: b, tpl: tpl}
}

func (e *scheduledEnv) taskService() TaskService {
	return NewTaskService(e.tasks, e.uow, e.opts()...)
}

func (e *scheduledEnv) allTasks(t *testing.T) []*domain.TaskView {
	t.Helper()
	views, err := e.tasks.ListViews(context.Background(), e.project.ID, domain.TaskFilter{}, fixedNow)
	require.NoError(t, err)
	return views
}

func TestTaskService_Update_CopyPlannedStart(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	task := env.taskForStep(t, env.building.Units[0].ID, env.tpl.Steps[0].ID)

	resp, err := env.taskService().Update(ctx, task.ID, contract.TaskUpdate{ActualStart: contract.CopyPlanned()})
	require.NoError(t, err)
	require.NotNil(t, resp.Task.ActualStart)
	assert.Equal(t, testutil.Date(2025, 1, 6), *resp.Task.ActualStart)
	assert.Equal(t, domain.StatusInProgress, resp.Task.Status)
	require.Len(t, resp.Changes.Updated, 1)
	assert.Equal(t, contract.FieldChange{Old: "", New: "2025-01-06"}, resp.Changes.Updated[0].Fields["start_ist"])

	stored, err := env.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
	assert.True(t, fixedNow.Equal(stored.UpdatedAt))

	entry := env.audit.last()
	assert.Equal(t, audit.ActionTaskUpdate, entry.Action)
	assert.Equal(t, env.project.ID, entry.ProjectID)
}

func TestTaskService_Update_NoChangeIsNotAudited(t *testing.T) {
	env := newScheduledEnv(t)
	task := env.taskForStep(t, env.building.Units[0].ID, env.tpl.Steps[0].ID)
	before := env.audit.count()

	note := ""
	resp, err := env.taskService().Update(context.Background(), task.ID, contract.TaskUpdate{Note: &note})
	require.NoError(t, err)
	assert.True(t, resp.Changes.IsEmpty())
	assert.Equal(t, before, env.audit.count())
}

func TestTaskService_Update_Validation(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	task := env.taskForStep(t, env.building.Units[0].ID, env.tpl.Steps[0].ID)
	svc := env.taskService()

	_, err := svc.Update(ctx, task.ID, contract.TaskUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	bad := domain.TaskStatus("paused")
	_, err = svc.Update(ctx, task.ID, contract.TaskUpdate{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	alias := domain.TaskStatus("Erledigt")
	resp, err := svc.Update(ctx, task.ID, contract.TaskUpdate{Status: &alias})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, resp.Task.Status)

	note := "x"
	_, err = svc.Update(ctx, "missing", contract.TaskUpdate{Note: &note})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_Update_AssigneeEligibility(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	task := env.taskForStep(t, env.building.Units[0].ID, env.tpl.Steps[0].ID)
	manager := env.user(t, "Bauleitung", domain.RoleManager)
	sub := env.user(t, "Fliesen Huber", domain.RoleSubcontract)
	svc := env.taskService()

	_, err := svc.Update(ctx, task.ID, contract.TaskUpdate{AssigneeID: &manager.ID})
	assert.ErrorIs(t, err, ErrNotEligible)

	unknown := "nobody"
	_, err = svc.Update(ctx, task.ID, contract.TaskUpdate{AssigneeID: &unknown})
	assert.ErrorIs(t, err, ErrNotFound)

	resp, err := svc.Update(ctx, task.ID, contract.TaskUpdate{AssigneeID: &sub.ID})
	require.NoError(t, err)
	require.NotNil(t, resp.Task.AssigneeID)
	assert.Equal(t, sub.ID, *resp.Task.AssigneeID)

	none := ""
	resp, err = svc.Update(ctx, task.ID, contract.TaskUpdate{AssigneeID: &none})
	require.NoError(t, err)
	assert.Nil(t, resp.Task.AssigneeID)
}

func TestTaskService_Delete(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	task := env.taskForStep(t, env.building.Units[0].ID, env.tpl.Steps[0].ID)
	svc := env.taskService()

	require.NoError(t, svc.Delete(ctx, task.ID))
	_, err := svc.Get(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, audit.ActionTaskDelete, env.audit.last().Action)

	assert.ErrorIs(t, svc.Delete(ctx, task.ID), ErrNotFound)
}

func TestTaskService_List_FiltersByStatusFollowingActualDates(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	svc := env.taskService()
	task := env.taskForStep(t, env.building.Units[1].ID, env.tpl.Steps[0].ID)

	_, err := svc.Update(ctx, task.ID, contract.TaskUpdate{ActualStart: contract.SetDate(testutil.Date(2025, 1, 6))})
	require.NoError(t, err)

	views, err := svc.List(ctx, env.project.ID,
		domain.TaskFilter{Statuses: []domain.TaskStatus{"in progress"}}, fixedNow)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, task.ID, views[0].ID)

	_, err = svc.List(ctx, env.project.ID,
		domain.TaskFilter{Statuses: []domain.TaskStatus{"paused"}}, fixedNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskService_ExplicitStatusIsFilteredAndCounted(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	svc := env.taskService()
	task := env.taskForStep(t, env.building.Units[0].ID, env.tpl.Steps[1].ID)

	done := domain.TaskStatus("Erledigt")
	resp, err := svc.Update(ctx, task.ID, contract.TaskUpdate{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, resp.Task.Status)
	assert.Nil(t, resp.Task.ActualEnd)

	views, err := svc.List(ctx, env.project.ID,
		domain.TaskFilter{Statuses: []domain.TaskStatus{"Erledigt"}}, fixedNow)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, task.ID, views[0].ID)

	open, err := svc.List(ctx, env.project.ID,
		domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusOpen}}, fixedNow)
	require.NoError(t, err)
	assert.Len(t, open, len(env.building.Units)*len(env.tpl.Steps)-1)

	// A later bulk on the same status picks the task up.
	note := "abgenommen"
	bulk, err := svc.Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    &domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusDone}},
		Update:    contract.TaskUpdate{Note: &note},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bulk.Matched)
	assert.Equal(t, 1, bulk.Affected)

	stats, err := env.reportService().Stats(ctx, env.project.ID, domain.TaskFilter{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Done)

	// Changing an actual date without a status derives it again.
	_, err = svc.Update(ctx, task.ID, contract.TaskUpdate{ActualStart: contract.SetDate(testutil.Date(2025, 1, 9))})
	require.NoError(t, err)
	got, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
}

func TestTaskService_Bulk_FilterCategoriesAreAnded(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()

	resp, err := env.taskService().Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter: &domain.TaskFilter{
			StructureFilter: domain.StructureFilter{Levels: []string{"E1"}},
			Categories:      []string{"Fliesenleger"},
		},
		Update: contract.TaskUpdate{ActualEnd: contract.SetDate(testutil.Date(2025, 1, 10))},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Matched)
	assert.Equal(t, 2, resp.Affected)

	for _, v := range env.allTasks(t) {
		hit := v.Unit.LevelName == "E1" && v.Category == "Fliesenleger"
		if hit {
			require.NotNil(t, v.ActualEnd)
			assert.Equal(t, domain.StatusDone, v.Status)
		} else {
			assert.Nil(t, v.ActualEnd, "task %s outside the filter is untouched", v.ID)
		}
	}

	entry := env.audit.last()
	assert.Equal(t, audit.ActionBulk, entry.Action)
	assert.Equal(t, []string{"end_ist", "status"}, entry.Details["fields"])
}

func TestTaskService_Bulk_CopyPlannedResolvesPerTask(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()

	resp, err := env.taskService().Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    &domain.TaskFilter{Activities: []string{"Fliesen", "Estrich"}},
		Update:    contract.TaskUpdate{ActualStart: contract.CopyPlanned()},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Affected)

	for _, v := range env.allTasks(t) {
		require.NotNil(t, v.ActualStart)
		assert.Equal(t, *v.PlannedStart, *v.ActualStart)
	}
}

func TestTaskService_Bulk_IDsIntersectFilter(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	views := env.allTasks(t)
	ids := []string{views[0].ID, views[1].ID, views[2].ID}

	note := "Abnahme offen"
	resp, err := env.taskService().Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		TaskIDs:   ids,
		Filter:    &domain.TaskFilter{Categories: []string{"Estrich"}},
		Update:    contract.TaskUpdate{Note: &note},
	})
	require.NoError(t, err)

	want := 0
	for _, v := range views[:3] {
		if v.Category == "Estrich" {
			want++
		}
	}
	assert.Equal(t, want, resp.Matched)
	assert.Equal(t, want, resp.Affected)
}

func TestTaskService_Bulk_UnknownTaskIDAborts(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	svc := env.taskService()
	views := env.allTasks(t)
	note := "x"

	_, err := svc.Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		TaskIDs:   []string{"does-not-exist"},
		Update:    contract.TaskUpdate{Note: &note},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// One missing ID aborts the whole request; the valid one stays untouched.
	_, err = svc.Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		TaskIDs:   []string{views[0].ID, "does-not-exist"},
		Update:    contract.TaskUpdate{Note: &note},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := svc.Get(ctx, views[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Note)
	assert.False(t, env.audit.last().OK)
}

func TestTaskService_Bulk_TaskOfOtherProjectIsNotFound(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	other := testutil.NewTestProject("Seestadt Süd")
	require.NoError(t, env.projects.Create(ctx, other))
	views := env.allTasks(t)
	note := "x"

	_, err := env.taskService().Bulk(ctx, contract.BulkRequest{
		ProjectID: other.ID,
		TaskIDs:   []string{views[0].ID},
		Update:    contract.TaskUpdate{Note: &note},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := env.taskService().Get(ctx, views[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Note)
}

func TestTaskService_Bulk_AssignFastPathCountsRealChanges(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	sub := env.user(t, "Estrich GmbH", domain.RoleSubcontract)
	svc := env.taskService()
	all := &domain.TaskFilter{}

	resp, err := svc.Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    all,
		Update:    contract.TaskUpdate{AssigneeID: &sub.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Matched)
	assert.Equal(t, 8, resp.Affected)
	assert.Len(t, resp.Changes.Updated, 8)

	resp, err = svc.Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    all,
		Update:    contract.TaskUpdate{AssigneeID: &sub.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Matched)
	assert.Equal(t, 0, resp.Affected, "already assigned tasks do not count")
	assert.Empty(t, resp.Changes.Updated)

	views, err := svc.List(ctx, env.project.ID, domain.TaskFilter{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Estrich GmbH", views[0].AssigneeName)

	none := ""
	resp, err = svc.Bulk(ctx, contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    all,
		Update:    contract.TaskUpdate{AssigneeID: &none},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Affected)
}

func TestTaskService_Bulk_RejectsIneligibleAssignee(t *testing.T) {
	env := newScheduledEnv(t)
	admin := env.user(t, "Admin", domain.RoleAdmin)

	_, err := env.taskService().Bulk(context.Background(), contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    &domain.TaskFilter{},
		Update:    contract.TaskUpdate{AssigneeID: &admin.ID},
	})
	require.ErrorIs(t, err, ErrNotEligible)

	for _, v := range env.allTasks(t) {
		assert.Nil(t, v.AssigneeID)
	}
	entry := env.audit.last()
	assert.Equal(t, audit.ActionBulk, entry.Action)
	assert.False(t, entry.OK)
}

func TestTaskService_Bulk_DelayedUsesAsOf(t *testing.T) {
	env := newScheduledEnv(t)
	note := "verzögert"

	// On 9 January only Estrich (planned end 8 January) is late.
	resp, err := env.taskService().Bulk(context.Background(), contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    &domain.TaskFilter{Delayed: true},
		Update:    contract.TaskUpdate{Note: &note},
		AsOf:      testutil.Date(2025, 1, 9),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Matched)

	// The fixed clock's today is 15 January: everything unfinished is late.
	resp, err = env.taskService().Bulk(context.Background(), contract.BulkRequest{
		ProjectID: env.project.ID,
		Filter:    &domain.TaskFilter{Delayed: true},
		Update:    contract.TaskUpdate{Note: &note},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Matched)
	assert.Equal(t, 4, resp.Affected)
}

func TestTaskService_Bulk_Validation(t *testing.T) {
	env := newScheduledEnv(t)
	ctx := context.Background()
	svc := env.taskService()
	note := "x"

	tests := []struct {
		name string
		req  contract.BulkRequest
		want error
	}{
		{"no selection", contract.BulkRequest{ProjectID: env.project.ID, Update: contract.TaskUpdate{Note: &note}}, ErrValidation},
		{"empty update", contract.BulkRequest{ProjectID: env.project.ID, Filter: &domain.TaskFilter{}}, ErrValidation},
		{"inverted range", contract.BulkRequest{
			ProjectID: env.project.ID,
			Filter:    &domain.TaskFilter{From: testutil.DatePtr(2025, 2, 1), To: testutil.DatePtr(2025, 1, 1)},
			Update:    contract.TaskUpdate{Note: &note},
		}, ErrValidation},
		{"unknown project", contract.BulkRequest{ProjectID: "missing", Filter: &domain.TaskFilter{}, Update: contract.TaskUpdate{Note: &note}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Bulk(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
