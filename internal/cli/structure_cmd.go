package cli

import (
	"fmt"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/alexanderramin/taktplan/internal/contract"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/cobra"
)

func newStructureCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "structure",
		Aliases: []string{"st"},
		Short:   "Manage sections, stairwells, levels and units",
	}

	cmd.AddCommand(
		newStructureAddCmd(app),
		newStructureBindCmd(app),
		newStructureDeleteCmd(app),
		newStructureTreeCmd(app),
		newStructureUnitsCmd(app),
	)

	return cmd
}

func newStructureAddCmd(app *App) *cobra.Command {
	var project, parent, name, template string

	cmd := &cobra.Command{
		Use:   "add KIND",
		Short: "Add a section (Bauteil), stairwell (Stiege), level (Ebene) or unit (Top)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := domain.ParseLocationKind(args[0])
			if err != nil {
				return err
			}
			if kind == domain.KindSection {
				if project == "" {
					return fmt.Errorf("sections need --project")
				}
				p, err := resolveProject(ctx, app, project)
				if err != nil {
					return err
				}
				parent = p.ID
			} else if parent == "" {
				return fmt.Errorf("%s needs --parent (ID of the enclosing %s)", kind, kind.Parent())
			}
			templateID, err := resolveTemplateID(ctx, app, template)
			if err != nil {
				return err
			}

			loc, err := app.Structure.AddNode(ctx, contract.AddNodeRequest{
				Kind:       kind,
				ParentID:   parent,
				Name:       name,
				TemplateID: templateID,
			})
			if err != nil {
				return err
			}
			return render(cmd, app, loc, func() string {
				return fmt.Sprintf("Added %s %s (%s)\n", loc.Kind, loc.Name, loc.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project (sections only)")
	cmd.Flags().StringVar(&parent, "parent", "", "ID of the enclosing node")
	cmd.Flags().StringVar(&name, "name", "", "Node name")
	cmd.Flags().StringVar(&template, "template", "", "Template name or ID to bind")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newStructureBindCmd(app *App) *cobra.Command {
	var template string
	var propagate bool

	cmd := &cobra.Command{
		Use:   "bind KIND ID",
		Short: "Bind a template to a node, or clear it with --template none",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := domain.ParseLocationKind(args[0])
			if err != nil {
				return err
			}
			templateID, err := resolveTemplateID(ctx, app, template)
			if err != nil {
				return err
			}
			resp, err := app.Structure.Bind(ctx, contract.BindRequest{
				Kind:       kind,
				NodeID:     args[1],
				TemplateID: templateID,
				Propagate:  propagate,
			})
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				verb := "Bound"
				if templateID == nil {
					verb = "Cleared"
				}
				return fmt.Sprintf("%s template on %d node(s)\n", verb, resp.Updated)
			})
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Template name or ID, or none")
	cmd.Flags().BoolVar(&propagate, "propagate", false, "Write the same binding onto every descendant")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func newStructureDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KIND ID",
		Short: "Delete a node with all descendants and their tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseLocationKind(args[0])
			if err != nil {
				return err
			}
			resp, err := app.Structure.Delete(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			return render(cmd, app, resp, func() string {
				return fmt.Sprintf("Deleted %d node(s) and %d task(s)\n", resp.Nodes, resp.TasksDeleted)
			})
		},
	}
}

func newStructureTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree PROJECT",
		Short: "Show the project's location tree with template bindings",
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
			names, err := templateNames(ctx, app)
			if err != nil {
				return err
			}
			return render(cmd, app, tree, func() string {
				if len(tree.Sections) == 0 {
					return "No structure yet.\n"
				}
				return formatter.RenderTree(formatter.StructureTreeItems(tree, names))
			})
		},
	}
}

func newStructureUnitsCmd(app *App) *cobra.Command {
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "units PROJECT",
		Short: "List units with their IDs, optionally filtered by location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			units, err := app.Structure.Units(ctx, p.ID, filter.structure())
			if err != nil {
				return err
			}
			return render(cmd, app, units, func() string {
				rows := make([][]string, 0, len(units))
				for _, u := range units {
					rows = append(rows, []string{u.UnitID, formatter.UnitPath(u)})
				}
				return formatter.RenderTable([]string{"UNIT ID", "LOCATION"}, rows)
			})
		},
	}

	filter.bindStructure(cmd.Flags())
	return cmd
}
