package cli

import (
	"errors"
	"fmt"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datapond/pkg/pond"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show every semantic name with its raw versions and derived file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.pond.Catalog()
			if err != nil {
				return err
			}
			defer c.Detach()

			views, err := c.Views()
			if err != nil {
				return err
			}
			tree := gotree.New(a.pond.Layout().Root)
			for _, v := range views {
				versions, err := c.Versions(v.SemanticName)
				if err != nil && !errors.Is(err, types.ErrNotFound) {
					return err
				}
				addView(tree, v, versions)
			}
			fmt.Fprint(cmd.OutOrStdout(), tree.Print())
			return nil
		},
	}
}

// addView adds a semantic name node holding its raw versions, newest first,
// and its derived file. The backing file is marked with '*'.
func addView(tree gotree.Tree, v types.View, versions []pond.FileVersion) {
	node := tree.Add(fmt.Sprintf("%s [%s]", v.SemanticName, v.Preferred))
	backing := v.Backing()

	seen := false
	for _, ver := range versions {
		seen = seen || ver.File == v.Raw
		node.Add(label("raw", ver.File, ver.File == backing))
	}
	if !seen {
		node.Add(label("raw", v.Raw, v.Raw == backing))
	}
	if v.Parquet != "" {
		node.Add(label("parquet", v.Parquet, v.Parquet == backing))
	}
}

func label(kind, file string, current bool) string {
	if current {
		return kind + ": " + file + " *"
	}
	return kind + ": " + file
}
