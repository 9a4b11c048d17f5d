package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <semantic-name>",
		Short: "Print the file currently backing a semantic name",
		Long: `Resolve prints the path of the derived file when the view prefers it and
one is recorded, otherwise the raw file in the pond. The path is not checked
for existence.

Example:
  pond resolve census_industry.xlsx`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.pond.Resolve(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]string{"semantic_name": args[0], "path": path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
