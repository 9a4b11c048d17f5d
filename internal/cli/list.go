package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every view",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := a.pond.Views()
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No views found.")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.SemanticName, v.Preferred, v.Backing(), v.Updated})
			}
			printTable(out, []string{"SEMANTIC NAME", "PREFERRED", "FILE", "UPDATED"}, rows)
			fmt.Fprintf(out, "Total: %d view(s)\n", len(views))
			return nil
		},
	}
}
