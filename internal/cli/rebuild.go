package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRebuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every view from the metadata records",
		Long: `Rebuild discards the current views and recomputes one per semantic name
from the metadata records: the newest raw file still in the pond wins, and
the view prefers parquet when the conventionally named derived file exists.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.pond.Rebuild()
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]int{"views": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d view(s)\n", n)
			return nil
		},
	}
}
