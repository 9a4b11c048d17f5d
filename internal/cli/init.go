package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datapond/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and pond directories",
		Long: `Init writes a default config.yaml into the configuration directory when
none exists, then creates data_store/ and data_index/ under the project root.
Running it again changes nothing.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := writeConfigIfMissing(a.configDir)
			if err != nil {
				return err
			}
			if err := a.pond.Init(); err != nil {
				return fmt.Errorf("initialize pond: %w", err)
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "Wrote %s\n", filepath.Join(a.configDir, paths.ConfigFileName))
			}
			fmt.Fprintf(out, "Pond initialized at %s\n", a.pond.Layout().Root)
			return nil
		},
	}
}
