package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// changeLimit caps the per-task lines printed after a mutation.
const changeLimit = 40

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Generate, synchronize, shift and edit scheduled tasks",
	}

	cmd.AddCommand(
		newTasksGenerateCmd(app),
		newTasksSyncCmd(app),
		newTasksShiftCmd(app),
		newTasksBulkCmd(app),
		newTasksListCmd(app),
		newTasksUpdateCmd(app),
		newTasksDeleteCmd(app),
	)

	return cmd
}

func addProjectFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "project", "p", "", "Project short ID or UUID")
	_ = cmd.MarkFlagRequired("project")
}

func newTasksGenerateCmd(app *App) *cobra.Command {
	var project string
	var starts startFlags
	var scope filterFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create missing tasks for units with a start date",
		Long: `Create tasks for every step of each unit's effective template. Units that
already have a task for a step keep it unchanged.

Start dates come from repeated --start UNIT_ID=DATE flags or from --start-all,
which applies one date to every unit selected by the location flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			startMap, err := starts.resolve(ctx, app.Structure, p.ID, scope.structure())
			if err != nil {
				return err
			}
			resp, err := app.Schedule.Generate(ctx, contract.GenerateRequest{ProjectID: p.ID, Starts: startMap})
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Generated %d task(s) for %d unit(s)\n", len(resp.Created), len(startMap))
				if len(resp.NoTemplate) > 0 {
					b.WriteString(formatter.Dim(fmt.Sprintf("%d unit(s) without template skipped\n", len(resp.NoTemplate))))
				}
				return b.String()
			})
		},
	}

	addProjectFlag(cmd, &project)
	starts.bind(cmd.Flags())
	scope.bindStructure(cmd.Flags())
	return cmd
}

func newTasksSyncCmd(app *App) *cobra.Command {
	var project string
	var starts startFlags
	var scope filterFlags
	var purge []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile tasks with templates and start dates",
		Long: `Bring the tasks of every unit with a start date in line with its template:
missing tasks are created, unstarted tasks are rescheduled, tasks of steps that
left the template are deleted. Started tasks are never touched.

--purge UNIT_ID deletes all tasks of a unit whose start date was removed; only
units inside the location scope and without a start date are purged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			startMap, err := starts.resolve(ctx, app.Structure, p.ID, scope.structure())
			if err != nil {
				return err
			}
			resp, err := app.Schedule.Sync(ctx, contract.SyncRequest{
				ProjectID:    p.ID,
				Starts:       startMap,
				Scope:        scope.structure(),
				PurgeUnitIDs: purge,
			})
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Synchronized: %s, %d unchanged, %d started kept\n",
					formatter.ChangeSummary(resp.Changes), resp.Unchanged, resp.KeptStarted)
				if len(resp.Purged) > 0 {
					fmt.Fprintf(&b, "Purged %d unit(s)\n", len(resp.Purged))
				}
				for _, s := range resp.PurgeSkipped {
					b.WriteString(formatter.StyleYellow.Render(fmt.Sprintf("Not purged %s: %s", s.UnitID, s.Reason)) + "\n")
				}
				if len(resp.NoTemplate) > 0 {
					b.WriteString(formatter.Dim(fmt.Sprintf("%d unit(s) without template skipped\n", len(resp.NoTemplate))))
				}
				b.WriteString(formatter.FormatChangeSet(resp.Changes, changeLimit))
				return b.String()
			})
		},
	}

	addProjectFlag(cmd, &project)
	starts.bind(cmd.Flags())
	scope.bindStructure(cmd.Flags())
	cmd.Flags().StringSliceVar(&purge, "purge", nil, "Unit IDs whose tasks are removed (repeatable)")
	return cmd
}

func newTasksShiftCmd(app *App) *cobra.Command {
	var project string
	var filter filterFlags
	var windowStart, windowEnd *time.Time
	var skipWeekends bool

	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Push tasks overlapping a blocked window behind it",
		Long: `Move every matching task whose planned range overlaps the window
[--window-start, --window-end] by the window's length in calendar days.
With --skip-weekends a start landing on a non-working day moves to the next
workday.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if windowStart == nil || windowEnd == nil {
				return fmt.Errorf("--window-start and --window-end are required")
			}
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			skip := app.SkipWeekends
			if cmd.Flags().Changed("skip-weekends") {
				skip = skipWeekends
			}
			resp, err := app.Schedule.Shift(ctx, contract.ShiftRequest{
				ProjectID:    p.ID,
				Start:        *windowStart,
				End:          *windowEnd,
				SkipWeekends: skip,
				Filter:       filter.task(),
			})
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				return fmt.Sprintf("Moved %d task(s) by %d day(s)\n", resp.Moved, resp.ShiftDays) +
					formatter.FormatChangeSet(resp.Changes, changeLimit)
			})
		},
	}

	addProjectFlag(cmd, &project)
	filter.bind(cmd.Flags())
	cmd.Flags().Var(newDateValue(&windowStart), "window-start", "First blocked day (YYYY-MM-DD)")
	cmd.Flags().Var(newDateValue(&windowEnd), "window-end", "Last blocked day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&skipWeekends, "skip-weekends", false, "Move starts off non-working days (default from config)")
	return cmd
}

// updateFlags binds the task fields a single or bulk update may change.
type updateFlags struct {
	assignee    string
	actualStart string
	actualEnd   string
	status      string
	note        string
}

func (u *updateFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&u.assignee, "assignee", "", "Assignee user ID, or none to unassign")
	fs.StringVar(&u.actualStart, "actual-start", "", "Actual start: YYYY-MM-DD, planned or none")
	fs.StringVar(&u.actualEnd, "actual-end", "", "Actual end: YYYY-MM-DD, planned or none")
	fs.StringVar(&u.status, "status-set", "", "Status to set (open|in_progress|done)")
	fs.StringVar(&u.note, "note", "", "Note text")
}

// build translates the changed flags into a TaskUpdate.
func (u *updateFlags) build(fs *pflag.FlagSet) (contract.TaskUpdate, error) {
	var tu contract.TaskUpdate
	if fs.Changed("assignee") {
		id := u.assignee
		if strings.EqualFold(id, "none") {
			id = ""
		}
		tu.AssigneeID = &id
	}
	if fs.Changed("actual-start") {
		d, err := contract.ParseDateUpdate(u.actualStart)
		if err != nil {
			return tu, err
		}
		tu.ActualStart = d
	}
	if fs.Changed("actual-end") {
		d, err := contract.ParseDateUpdate(u.actualEnd)
		if err != nil {
			return tu, err
		}
		tu.ActualEnd = d
	}
	if fs.Changed("status-set") {
		s, err := domain.ParseTaskStatus(u.status)
		if err != nil {
			return tu, err
		}
		tu.Status = &s
	}
	if fs.Changed("note") {
		note := u.note
		tu.Note = &note
	}
	if tu.IsEmpty() {
		return tu, fmt.Errorf("nothing to update (use --assignee, --actual-start, --actual-end, --status-set or --note)")
	}
	return tu, nil
}

func newTasksBulkCmd(app *App) *cobra.Command {
	var project string
	var filter filterFlags
	var update updateFlags
	var ids []string
	var asOf *time.Time

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one update to every task matching IDs and filters",
		Long: `Apply one update to a set of tasks. The set is given by --id, by filter
flags, or both (the intersection). "planned" as an actual date copies each
task's own planned date.`,
		Example: `  taktplan tasks bulk -p WHA01 --level E0 --trade Estrich --actual-start planned
  taktplan tasks bulk -p WHA01 --trade Fliesenleger --assignee 5f0c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			tu, err := update.build(cmd.Flags())
			if err != nil {
				return err
			}
			req := contract.BulkRequest{ProjectID: p.ID, TaskIDs: ids, Update: tu}
			if !filter.empty() {
				f := filter.task()
				req.Filter = &f
			}
			if len(ids) == 0 && req.Filter == nil {
				return fmt.Errorf("select tasks with --id or filter flags")
			}
			if asOf != nil {
				req.AsOf = *asOf
			}
			resp, err := app.Tasks.Bulk(ctx, req)
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				return fmt.Sprintf("Matched %d task(s), changed %d\n", resp.Matched, resp.Affected) +
					formatter.FormatChangeSet(resp.Changes, changeLimit)
			})
		},
	}

	addProjectFlag(cmd, &project)
	filter.bind(cmd.Flags())
	update.bind(cmd.Flags())
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Task IDs (repeatable)")
	cmd.Flags().Var(newDateValue(&asOf), "as-of", "Reference date for --delayed (default today)")
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var project string
	var filter filterFlags
	var asOf *time.Time

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in structure and step order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, project)
			if err != nil {
				return err
			}
			ref := app.now()
			if asOf != nil {
				ref = *asOf
			}
			views, err := app.Tasks.List(ctx, p.ID, filter.task(), ref)
			if err != nil {
				return err
			}
			return render(cmd, app, views, func() string {
				if len(views) == 0 {
					return "No tasks found.\n"
				}
				return formatter.FormatTaskList(views, ref)
			})
		},
	}

	addProjectFlag(cmd, &project)
	filter.bind(cmd.Flags())
	cmd.Flags().Var(newDateValue(&asOf), "as-of", "Reference date for delays (default today)")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var update updateFlags

	cmd := &cobra.Command{
		Use:   "update TASK_ID",
		Short: "Update one task's actual dates, status, note or assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tu, err := update.build(cmd.Flags())
			if err != nil {
				return err
			}
			resp, err := app.Tasks.Update(cmd.Context(), args[0], tu)
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				return formatter.FormatTask(resp.Task) + formatter.FormatChangeSet(resp.Changes, 0)
			})
		},
	}

	update.bind(cmd.Flags())
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return render(cmd, app, map[string]string{"deleted": args[0]}, func() string {
				return fmt.Sprintf("Deleted task %s\n", args[0])
			})
		},
	}
}
