package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/taktplan/internal/service"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects  service.ProjectService
	Structure service.StructureService
	Templates service.TemplateService
	Users     service.UserService
	Schedule  service.ScheduleService
	Tasks     service.TaskService
	Reports   service.ReportService
	Import    service.ImportService
	Audit     service.AuditService

	// Output is the default format; the --output flag overrides it.
	Output string
	// SkipWeekends is the shift default when --skip-weekends is not given.
	SkipWeekends bool
	// Now is the clock for relative timestamps. Nil means time.Now.
	Now func() time.Time
	// ConfigFile is read before the command tree is built; the flag only
	// documents it.
	ConfigFile string
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "taktplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Output == "" {
		app.Output = OutputTable
	}
	root := &cobra.Command{
		Use:           "taktplan",
		Short:         "Construction schedule planner for residential buildings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Output != OutputTable && app.Output != OutputJSON {
				return fmt.Errorf("invalid --output %q (use table or json)", app.Output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&app.Output, "output", "o", app.Output, "Output format (table|json)")
	root.PersistentFlags().StringVar(&app.ConfigFile, "config", app.ConfigFile, "Config file (default $XDG_CONFIG_HOME/taktplan/config.yaml)")

	root.AddCommand(
		newProjectCmd(app),
		newStructureCmd(app),
		newTemplateCmd(app),
		newUserCmd(app),
		newImportCmd(app),
		newTasksCmd(app),
		newReportCmd(app),
		newAuditCmd(app),
	)

	return root
}
