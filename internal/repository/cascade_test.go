package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/alexanderramin/taktplan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCascadeDelete_ProjectToStructureAndTasks verifies that deleting a
// project removes its whole location tree and all tasks.
func TestCascadeDelete_ProjectToStructureAndTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	s := seedProject(t, db, 1, 1, 1, 1)

	tasks := NewSQLiteTaskRepo(db)
	task := testutil.NewTestTask(s.project.ID, s.building.Units[0].ID, s.template.Steps[0].ID)
	require.NoError(t, tasks.Create(ctx, task))

	require.NoError(t, NewSQLiteProjectRepo(db).Delete(ctx, s.project.ID))

	_, err := NewSQLiteStructureRepo(db).GetUnit(ctx, s.building.Units[0].ID)
	assert.ErrorIs(t, err, ErrNotFound, "unit should be cascade-deleted when project is deleted")
	_, err = tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound, "task should be cascade-deleted when project is deleted")

	_, err = NewSQLiteTemplateRepo(db).GetByID(ctx, s.template.ID)
	assert.NoError(t, err, "templates are authored independently of projects")
}

// TestCascadeDelete_LevelToUnitsAndTasks verifies levels -> units -> tasks.
func TestCascadeDelete_LevelToUnitsAndTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	s := seedProject(t, db, 1, 1, 2, 1)

	tasks := NewSQLiteTaskRepo(db)
	doomed := testutil.NewTestTask(s.project.ID, s.building.Units[0].ID, s.template.Steps[0].ID)
	kept := testutil.NewTestTask(s.project.ID, s.building.Units[1].ID, s.template.Steps[0].ID)
	require.NoError(t, tasks.Create(ctx, doomed))
	require.NoError(t, tasks.Create(ctx, kept))

	require.NoError(t, NewSQLiteStructureRepo(db).Delete(ctx, domain.KindLevel, s.building.Levels[0].ID))

	_, err := tasks.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tasks.GetByID(ctx, kept.ID)
	assert.NoError(t, err)
}

// TestCascadeDelete_StepToTasks verifies steps -> tasks.
func TestCascadeDelete_StepToTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	s := seedProject(t, db, 1, 1, 1, 1)

	tasks := NewSQLiteTaskRepo(db)
	task := testutil.NewTestTask(s.project.ID, s.building.Units[0].ID, s.template.Steps[1].ID)
	require.NoError(t, tasks.Create(ctx, task))

	require.NoError(t, NewSQLiteTemplateRepo(db).DeleteStep(ctx, s.template.Steps[1].ID))

	_, err := tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestCascadeDelete_UserClearsAssignment verifies users -> tasks SET NULL.
func TestCascadeDelete_UserClearsAssignment(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	s := seedProject(t, db, 1, 1, 1, 1)

	sub := testutil.NewTestUser("Fliesen Maier", domain.RoleSubcontract)
	require.NoError(t, NewSQLiteUserRepo(db).Create(ctx, sub))
	tasks := NewSQLiteTaskRepo(db)
	task := testutil.NewTestTask(s.project.ID, s.building.Units[0].ID, s.template.Steps[0].ID, testutil.WithAssignee(sub.ID))
	require.NoError(t, tasks.Create(ctx, task))

	_, err := db.Exec(`DELETE FROM users WHERE id = ?`, sub.ID)
	require.NoError(t, err)

	got, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
}
