package cli

import (
	"fmt"

	"github.com/alexanderramin/taktplan/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newAuditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("invalid --limit %d", limit)
			}
			entries, err := app.Audit.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render(cmd, app, entries, func() string {
				if len(entries) == 0 {
					return "No audit entries.\n"
				}
				return formatter.FormatAuditList(entries, app.now())
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")

	cmd.AddCommand(list)
	return cmd
}
