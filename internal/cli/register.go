package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterDerivedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register-derived <semantic-name> <derived-file>",
		Short: "Point a view at a derived file produced elsewhere",
		Long: `Register-derived records a Parquet file that is already in
data_store/data_parquet/ on the view and makes it the preferred
representation. The view's raw file, metadata reference and hash are kept.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.pond.RegisterDerived(args[0], args[1])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now prefers %s\n", v.SemanticName, v.Parquet)
			return nil
		},
	}
}
