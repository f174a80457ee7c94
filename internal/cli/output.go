package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// render writes v as indented JSON when JSON output is selected and the
// table rendering otherwise.
func render(cmd *cobra.Command, app *App, v any, table func() string) error {
	out := cmd.OutOrStdout()
	if app.Output == OutputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(out, table())
	return err
}
