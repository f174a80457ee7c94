package cli

import (
	"fmt"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/alexanderramin/taktplan/internal/domain"
	"github.com/spf13/cobra"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and subcontractors",
	}

	cmd.AddCommand(
		newUserAddCmd(app),
		newUserListCmd(app),
	)

	return cmd
}

func newUserAddCmd(app *App) *cobra.Command {
	var name, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user (only role sub can be assigned tasks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := &domain.User{Name: name, Role: domain.UserRole(role)}
			if err := app.Users.Create(cmd.Context(), u); err != nil {
				return err
			}
			return render(cmd, app, u, func() string {
				return fmt.Sprintf("Created user %s (%s) %s\n", u.Name, u.Role, u.ID)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "User or company name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleSubcontract), "Role (admin|manager|sub)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, app, users, func() string {
				if len(users) == 0 {
					return "No users found.\n"
				}
				return formatter.FormatUserList(users)
			})
		},
	}
}
