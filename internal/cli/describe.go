package cli

import (
	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <path>",
		Short: "Print the metadata record a file would get, without ingesting it",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := a.pond.Describe(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, meta)
			}
			return printYAML(cmd, meta)
		},
	}
}
