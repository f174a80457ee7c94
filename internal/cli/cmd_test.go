package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/alexanderramin/taktplan/internal/service"
	"github.com/alexanderramin/taktplan/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	db := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(db)

	projects := repository.NewSQLiteProjectRepo(db)
	structure := repository.NewSQLiteStructureRepo(db)
	templates := repository.NewSQLiteTemplateRepo(db)
	tasks := repository.NewSQLiteTaskRepo(db)
	users := repository.NewSQLiteUserRepo(db)
	entries := repository.NewSQLiteAuditRepo(db)

	clock := func() time.Time { return cliNow }
	recorder := audit.NewRecorder(audit.NewStoreSink(entries), zerolog.Nop(), audit.WithClock(clock))
	opts := []service.Option{service.WithClock(clock), service.WithAudit(recorder), service.WithLocks(service.NewProjectLocks())}

	return &App{
		Projects:     service.NewProjectService(projects),
		Structure:    service.NewStructureService(structure, uow, opts...),
		Templates:    service.NewTemplateService(templates, uow, opts...),
		Users:        service.NewUserService(users),
		Schedule:     service.NewScheduleService(uow, opts...),
		Tasks:        service.NewTaskService(tasks, uow, opts...),
		Reports:      service.NewReportService(projects, tasks, opts...),
		Import:       service.NewImportService(uow, opts...),
		Audit:        service.NewAuditService(entries),
		SkipWeekends: true,
		Now:          clock,
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	app.Output = OutputTable
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// runJSON executes with JSON output and decodes the result into out.
func runJSON(t *testing.T, app *App, out any, args ...string) {
	t.Helper()
	got, err := executeCmd(t, app, append(args, "-o", "json")...)
	require.NoError(t, err, got)
	require.NoError(t, json.Unmarshal([]byte(got), out), got)
}

type idResult struct {
	ID string `json:"ID"`
}

// seedSite creates project NORD01, template Standard bound to section BT1
// and two units on level E0. It returns the unit IDs.
func seedSite(t *testing.T, app *App) []string {
	t.Helper()
	_, err := executeCmd(t, app, "project", "add", "--id", "nord01", "--name", "Wohnanlage Nord", "--start", "2025-01-06")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "template", "add", "--name", "Standard",
		"--step", "Estrich:Estrich:3", "--step", "Fliesen:Fliesenleger:2")
	require.NoError(t, err)

	var section, stairwell, level idResult
	runJSON(t, app, &section, "structure", "add", "bauteil", "-p", "NORD01", "--name", "BT1", "--template", "Standard")
	runJSON(t, app, &stairwell, "structure", "add", "stiege", "--parent", section.ID, "--name", "Stiege 1")
	runJSON(t, app, &level, "structure", "add", "ebene", "--parent", stairwell.ID, "--name", "E0")

	var ids []string
	for _, name := range []string{"Top 1", "Top 2"} {
		var unit idResult
		runJSON(t, app, &unit, "structure", "add", "top", "--parent", level.ID, "--name", name)
		ids = append(ids, unit.ID)
	}
	return ids
}

type taskRow struct {
	ID           string     `json:"ID"`
	Activity     string     `json:"Activity"`
	PlannedStart *time.Time `json:"PlannedStart"`
	PlannedEnd   *time.Time `json:"PlannedEnd"`
	ActualStart  *time.Time `json:"ActualStart"`
	ActualEnd    *time.Time `json:"ActualEnd"`
}

func listTasks(t *testing.T, app *App, args ...string) []taskRow {
	t.Helper()
	var rows []taskRow
	runJSON(t, app, &rows, append([]string{"tasks", "list", "-p", "NORD01"}, args...)...)
	return rows
}

func TestRootCmd_NoArgs_ShowsHelp(t *testing.T) {
	app := testApp(t)

	output, err := executeCmd(t, app)
	require.NoError(t, err)
	assert.Contains(t, output, "taktplan")
	assert.Contains(t, output, "tasks")
}

func TestRootCmd_InvalidOutput(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "project", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --output")
}

func TestProjectCmd_AddListShow(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	out, err := executeCmd(t, app, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NORD01")
	assert.Contains(t, out, "Wohnanlage Nord")

	out, err = executeCmd(t, app, "project", "show", "nord01")
	require.NoError(t, err)
	assert.Contains(t, out, "BT1")
	assert.Contains(t, out, "Top 2")
	assert.Contains(t, out, "[ Standard ]")

	_, err = executeCmd(t, app, "project", "show", "GIBT99")
	assert.ErrorContains(t, err, "project not found")
}

func TestProjectCmd_AddRequiresFlags(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "project", "add", "--name", "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")

	_, err = executeCmd(t, app, "project", "add", "--name", "X", "--start", "06.01.2025")
	assert.ErrorContains(t, err, "invalid date")
}

func TestTasksCmd_GenerateListBulkReport(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	var gen struct {
		Created []idResult `json:"Created"`
	}
	runJSON(t, app, &gen, "tasks", "generate", "-p", "NORD01", "--start-all", "2025-01-06")
	assert.Len(t, gen.Created, 4)

	rows := listTasks(t, app)
	require.Len(t, rows, 4)
	assert.Equal(t, "Estrich", rows[0].Activity)
	assert.Equal(t, testutil.Date(2025, 1, 6), *rows[0].PlannedStart)
	assert.Equal(t, testutil.Date(2025, 1, 8), *rows[0].PlannedEnd)
	assert.Equal(t, testutil.Date(2025, 1, 9), *rows[1].PlannedStart)

	var bulk struct {
		Matched  int `json:"Matched"`
		Affected int `json:"Affected"`
	}
	runJSON(t, app, &bulk, "tasks", "bulk", "-p", "NORD01", "--trade", "Estrich", "--actual-start", "planned")
	assert.Equal(t, 2, bulk.Matched)
	assert.Equal(t, 2, bulk.Affected)

	started := listTasks(t, app, "--status", "in_progress")
	require.Len(t, started, 2)
	for _, r := range started {
		assert.Equal(t, *r.PlannedStart, *r.ActualStart)
	}

	var stats struct {
		Total      int `json:"total"`
		Open       int `json:"open"`
		InProgress int `json:"in_progress"`
		Done       int `json:"done"`
	}
	runJSON(t, app, &stats, "report", "stats", "-p", "NORD01", "--as-of", "2025-01-15")
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Open)
	assert.Equal(t, 2, stats.InProgress)
	assert.Equal(t, 0, stats.Done)

	out, err := executeCmd(t, app, "report", "timeline", "-p", "NORD01", "--by", "stiege")
	require.NoError(t, err)
	assert.Contains(t, out, "STIEGE 1")
	assert.Contains(t, out, "0/2")

	var entries []struct {
		Action string `json:"Action"`
		OK     bool   `json:"OK"`
	}
	runJSON(t, app, &entries, "audit", "list", "-n", "50")
	actions := map[string]bool{}
	for _, e := range entries {
		assert.True(t, e.OK, e.Action)
		actions[e.Action] = true
	}
	assert.True(t, actions[audit.ActionGenerate])
	assert.True(t, actions[audit.ActionBulk])
	assert.True(t, actions[audit.ActionTemplateSave])
}

func TestTasksCmd_GenerateExplicitStarts(t *testing.T) {
	app := testApp(t)
	units := seedSite(t, app)

	var gen struct {
		Created []idResult `json:"Created"`
	}
	runJSON(t, app, &gen, "tasks", "generate", "-p", "NORD01", "--start", units[1]+"=2025-01-13")
	assert.Len(t, gen.Created, 2, "only the unit with a start date is scheduled")

	_, err := executeCmd(t, app, "tasks", "generate", "-p", "NORD01", "--start", "2025-01-13")
	assert.ErrorContains(t, err, "expected UNIT_ID=YYYY-MM-DD")

	_, err = executeCmd(t, app, "tasks", "generate", "--start-all", "2025-01-13")
	assert.ErrorContains(t, err, "project")
}

func TestTasksCmd_ShiftUsesConfiguredWeekendDefault(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)
	_, err := executeCmd(t, app, "tasks", "generate", "-p", "NORD01", "--start-all", "2025-01-06")
	require.NoError(t, err)

	var shift struct {
		Moved     int `json:"Moved"`
		ShiftDays int `json:"ShiftDays"`
	}
	runJSON(t, app, &shift, "tasks", "shift", "-p", "NORD01", "--window-start", "2025-01-09", "--window-end", "2025-01-10")
	assert.Equal(t, 2, shift.Moved)
	assert.Equal(t, 2, shift.ShiftDays)

	for _, r := range listTasks(t, app, "--activity", "Fliesen") {
		// 2025-01-11 is a Saturday; the start moves on to Monday.
		assert.Equal(t, testutil.Date(2025, 1, 13), *r.PlannedStart)
		assert.Equal(t, testutil.Date(2025, 1, 14), *r.PlannedEnd)
	}

	_, err = executeCmd(t, app, "tasks", "shift", "-p", "NORD01", "--window-start", "2025-01-09")
	assert.ErrorContains(t, err, "--window-end")
}

func TestTasksCmd_UpdateAndDelete(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)
	_, err := executeCmd(t, app, "tasks", "generate", "-p", "NORD01", "--start-all", "2025-01-06")
	require.NoError(t, err)
	rows := listTasks(t, app)
	require.Len(t, rows, 4)

	var upd struct {
		Task taskRow `json:"Task"`
	}
	runJSON(t, app, &upd, "tasks", "update", rows[0].ID, "--actual-start", "2025-01-07", "--actual-end", "planned")
	require.NotNil(t, upd.Task.ActualEnd)
	assert.Equal(t, testutil.Date(2025, 1, 7), *upd.Task.ActualStart)
	assert.Equal(t, testutil.Date(2025, 1, 8), *upd.Task.ActualEnd)

	_, err = executeCmd(t, app, "tasks", "update", rows[0].ID)
	assert.ErrorContains(t, err, "nothing to update")

	_, err = executeCmd(t, app, "tasks", "update", rows[0].ID, "--actual-end", "gestern")
	assert.ErrorContains(t, err, "invalid date")

	_, err = executeCmd(t, app, "tasks", "delete", rows[1].ID)
	require.NoError(t, err)
	assert.Len(t, listTasks(t, app), 3)
}

func TestTasksCmd_BulkNeedsSelection(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)

	_, err := executeCmd(t, app, "tasks", "bulk", "-p", "NORD01", "--note", "x")
	assert.ErrorContains(t, err, "select tasks")
}

func TestTemplateCmd_UpdateKeepsMatchingSteps(t *testing.T) {
	app := testApp(t)
	seedSite(t, app)
	_, err := executeCmd(t, app, "tasks", "generate", "-p", "NORD01", "--start-all", "2025-01-06")
	require.NoError(t, err)

	var saved struct {
		Created      int `json:"created"`
		Updated      int `json:"updated"`
		Deleted      int `json:"deleted"`
		TasksDeleted int `json:"tasks_deleted"`
	}
	runJSON(t, app, &saved, "template", "update", "Standard",
		"--step", "Estrich:Estrich:4", "--step", "Maler:Maler:2")
	assert.Equal(t, 1, saved.Created)
	assert.Equal(t, 1, saved.Updated)
	assert.Equal(t, 1, saved.Deleted)
	assert.Equal(t, 2, saved.TasksDeleted)

	out, err := executeCmd(t, app, "template", "show", "Standard")
	require.NoError(t, err)
	assert.Contains(t, out, "Maler")
	assert.NotContains(t, out, "Fliesen")

	out, err = executeCmd(t, app, "template", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Standard")
}

func TestStructureCmd_BindTreeDelete(t *testing.T) {
	app := testApp(t)
	units := seedSite(t, app)

	out, err := executeCmd(t, app, "structure", "tree", "NORD01")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 5)

	var bind struct {
		Updated int `json:"updated"`
	}
	runJSON(t, app, &bind, "structure", "bind", "unit", units[0], "--template", "none")
	assert.Equal(t, 1, bind.Updated)

	var del struct {
		Nodes int `json:"nodes"`
	}
	runJSON(t, app, &del, "structure", "delete", "top", units[1])
	assert.Equal(t, 1, del.Nodes)

	_, err = executeCmd(t, app, "structure", "add", "top", "--name", "Top 3")
	assert.ErrorContains(t, err, "--parent")

	_, err = executeCmd(t, app, "structure", "add", "keller", "--name", "K1")
	assert.ErrorContains(t, err, "unknown location kind")
}

func TestUserCmd_AddList(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "user", "add", "--name", "Estrich GmbH")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "user", "add", "--name", "Bauleitung", "--role", "manager")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "user", "add", "--name", "X", "--role", "owner")
	assert.ErrorIs(t, err, service.ErrValidation)

	out, err := executeCmd(t, app, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Estrich GmbH")
	assert.Contains(t, out, "manager")
}
