package cli

import (
	"fmt"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/cobra"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage process templates",
	}

	cmd.AddCommand(
		newTemplateAddCmd(app),
		newTemplateListCmd(app),
		newTemplateShowCmd(app),
		newTemplateUpdateCmd(app),
		newTemplateDeleteCmd(app),
		newTemplateImportCmd(app),
	)

	return cmd
}

func parseStepSpecs(specs []string) ([]domain.Step, error) {
	steps := make([]domain.Step, 0, len(specs))
	for _, spec := range specs {
		st, err := parseStepSpec(spec)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func newTemplateAddCmd(app *App) *cobra.Command {
	var name string
	var specs []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a template from ordered steps",
		Example: `  taktplan template add --name Wohnung \
    --step Estrich:Estrich:3 --step Fliesen:Fliesenleger:2 --step Maler:Maler:2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseStepSpecs(specs)
			if err != nil {
				return err
			}
			t := &domain.Template{Name: name, Steps: steps}
			if err := app.Templates.Create(cmd.Context(), t); err != nil {
				return err
			}
			return render(cmd, app, t, func() string {
				return fmt.Sprintf("Created template %s with %d step(s)\n", t.Name, len(t.Steps))
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringArrayVar(&specs, "step", nil, "Step as ACTIVITY:TRADE:DAYS[:parallel] (repeatable, in order)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTemplateListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := app.Templates.List(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, app, templates, func() string {
				if len(templates) == 0 {
					return "No templates found.\n"
				}
				return formatter.FormatTemplateList(templates) + "\n"
			})
		},
	}
}

func newTemplateShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show TEMPLATE",
		Short: "Show a template's steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Templates.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, app, t, func() string {
				return formatter.FormatTemplateShow(t) + "\n"
			})
		},
	}
}

func newTemplateUpdateCmd(app *App) *cobra.Command {
	var name string
	var specs []string

	cmd := &cobra.Command{
		Use:   "update TEMPLATE",
		Short: "Replace a template's steps",
		Long: `Replace a template's steps with the given list.

Steps whose activity matches an existing step keep that step, so their tasks
survive. Removed steps are deleted with their unstarted tasks; steps with
started tasks are retired instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			current, err := app.Templates.Get(ctx, args[0])
			if err != nil {
				return err
			}
			steps := current.Steps
			if cmd.Flags().Changed("step") {
				if steps, err = parseStepSpecs(specs); err != nil {
					return err
				}
				matchExistingSteps(steps, current.Steps)
			}
			resp, err := app.Templates.Replace(ctx, current.ID, name, steps)
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				return formatter.FormatTemplateSave(resp) + "\n"
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New template name")
	cmd.Flags().StringArrayVar(&specs, "step", nil, "Step as ACTIVITY:TRADE:DAYS[:parallel] (repeatable, in order)")

	return cmd
}

// matchExistingSteps carries step IDs over by activity name, each existing
// step used at most once.
func matchExistingSteps(steps, existing []domain.Step) {
	used := make(map[string]bool, len(existing))
	for i := range steps {
		for _, ex := range existing {
			if !used[ex.ID] && ex.Activity == steps[i].Activity {
				steps[i].ID = ex.ID
				used[ex.ID] = true
				break
			}
		}
	}
}

func newTemplateDeleteCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete TEMPLATE",
		Short: "Delete a template with its steps and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Templates.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Templates.Delete(ctx, t.ID, force); err != nil {
				return err
			}
			return render(cmd, app, map[string]string{"deleted": t.ID}, func() string {
				return fmt.Sprintf("Deleted template %s\n", t.Name)
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete even when tasks of this template have started")

	return cmd
}

func newTemplateImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import templates (and users) from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.Import(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			return render(cmd, app, res, func() string {
				return fmt.Sprintf("Imported %d template(s) and %d user(s)\n", res.Templates, res.Users)
			})
		},
	}
}
