package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
		newProjectRemoveCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var name, start, shortID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDate(start)
			if err != nil {
				return err
			}
			p := &domain.Project{
				ShortID:   strings.ToUpper(shortID),
				Name:      name,
				StartDate: startDate,
			}
			if err := app.Projects.Create(cmd.Context(), p); err != nil {
				return err
			}
			return render(cmd, app, p, func() string {
				return fmt.Sprintf("Created project %s [%s]\n", p.Name, p.DisplayID())
			})
		},
	}

	cmd.Flags().StringVar(&shortID, "id", "", "Short ID (3-6 uppercase letters + 2-4 digits, e.g. WHA01)")
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, app, projects, func() string {
				if len(projects) == 0 {
					return "No projects found.\n"
				}
				return formatter.FormatProjectList(projects) + "\n"
			})
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT",
		Short: "Show project details, progress and structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			tree, err := app.Structure.Tree(ctx, p.ID)
			if err != nil {
				return err
			}
			stats, err := app.Reports.Stats(ctx, p.ID, domain.TaskFilter{}, time.Time{})
			if err != nil {
				return err
			}
			names, err := templateNames(ctx, app)
			if err != nil {
				return err
			}
			data := formatter.ProjectShowData{Project: p, Tree: tree, TemplateNames: names, Stats: stats}
			return render(cmd, app, data, func() string {
				return formatter.FormatProjectShow(data) + "\n"
			})
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var name, start, shortID string

	cmd := &cobra.Command{
		Use:   "update PROJECT",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("id") {
				p.ShortID = strings.ToUpper(shortID)
			}
			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if cmd.Flags().Changed("start") {
				if p.StartDate, err = parseDate(start); err != nil {
					return err
				}
			}
			if err := app.Projects.Update(ctx, p); err != nil {
				return err
			}
			return render(cmd, app, p, func() string {
				return fmt.Sprintf("Updated project %s [%s]\n", p.Name, p.DisplayID())
			})
		},
	}

	cmd.Flags().StringVar(&shortID, "id", "", "Short ID (3-6 uppercase letters + 2-4 digits)")
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")

	return cmd
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PROJECT",
		Short: "Remove a project with its structure and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.Delete(ctx, p.ID); err != nil {
				return err
			}
			return render(cmd, app, map[string]string{"removed": p.ID}, func() string {
				return fmt.Sprintf("Removed project %s\n", p.DisplayID())
			})
		},
	}
}
