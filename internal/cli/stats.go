package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the pond",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.pond.Catalog()
			if err != nil {
				return err
			}
			defer c.Detach()

			s, err := c.Stats()
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "raw files:     %d\n", s.RawFiles)
			fmt.Fprintf(out, "raw bytes:     %d\n", s.TotalBytes)
			fmt.Fprintf(out, "views:         %d\n", s.Views)
			fmt.Fprintf(out, "parquet views: %d\n", s.Derived)
			return nil
		},
	}
}
