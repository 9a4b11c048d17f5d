package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datapond/pkg/pond"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <semantic-name>",
		Short: "List every raw version of a semantic name, newest first",
		Long: `History lists the raw files recorded for a semantic name. The file the
view currently points at is marked with '*'.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := a.pond.Versions(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, versions)
			}
			printVersions(cmd.OutOrStdout(), versions)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <column>",
		Short: "List raw files whose header has the named column",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.pond.Catalog()
			if err != nil {
				return err
			}
			defer c.Detach()

			versions, err := c.WithColumn(args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, versions)
			}
			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintf(out, "No raw files have a column %q.\n", args[0])
				return nil
			}
			printVersions(out, versions)
			return nil
		},
	}
}

func printVersions(out io.Writer, versions []pond.FileVersion) {
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		mark := ""
		if v.Current {
			mark = "*"
		}
		source := ""
		if v.SourceArchive != "" {
			source = v.SourceArchive + ":" + v.OriginalFile
		}
		rows = append(rows, []string{mark, v.File, v.SemanticName, v.Created, strconv.FormatInt(v.SizeBytes, 10), shortHash(v.SHA256), source})
	}
	printTable(out, []string{"", "FILE", "SEMANTIC NAME", "CREATED", "BYTES", "SHA256", "SOURCE"}, rows)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
