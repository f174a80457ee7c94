package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import data from YAML or JSON files",
	}

	var project string
	structure := &cobra.Command{
		Use:   "structure FILE",
		Short: "Import a building structure, with its project, templates and users if the file defines them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID := ""
			if project != "" {
				p, err := resolveProject(ctx, app, project)
				if err != nil {
					return err
				}
				projectID = p.ID
			}
			res, err := app.Import.Import(ctx, args[0], projectID)
			if err != nil {
				return err
			}
			return render(cmd, app, res, func() string {
				target := "project"
				if res.Project != nil {
					target = res.Project.Name + " [" + res.Project.DisplayID() + "]"
				}
				return fmt.Sprintf("Imported into %s: %d node(s), %d binding(s), %d template(s), %d user(s)\n",
					target, res.Nodes, res.Bindings, res.Templates, res.Users)
			})
		},
	}
	structure.Flags().StringVarP(&project, "project", "p", "", "Target project when the file does not define one")

	cmd.AddCommand(structure)
	return cmd
}
