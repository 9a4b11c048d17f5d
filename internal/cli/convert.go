package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "convert <semantic-name>",
		Short: "Write a Parquet copy of a view's raw file and prefer it",
		Long: `Convert writes data_store/data_parquet/<raw name>.parquet from the raw
delimited file the view points at, then updates the view to prefer it.
Without --force, raw files at or below parquet.min_bytes and files that
already have a derived copy are left alone.

Example:
  pond convert agenaics.csv
  pond convert agenaics.csv --force`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.pond.Convert(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, out)
			}
			if !out.Converted {
				fmt.Fprintf(cmd.OutOrStdout(), "Not converted %s: %s\n", out.SemanticName, out.Reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s\n", out.Raw, out.Parquet)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "convert regardless of size or an existing derived file")
	return cmd
}
