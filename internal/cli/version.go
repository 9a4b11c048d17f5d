package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datapond/pkg/pond"
)

const modulePath = "github.com/mesh-intelligence/datapond"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pond version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pond v%s\nmodule: %s\n", pond.Version, modulePath)
			return nil
		},
	}
}
