package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datapond/pkg/pond"
)

func newIngestCmd(a *app) *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Move inbox files into the pond and update their views",
		Long: `Ingest processes every entry of data_store/add_to_pond/, or only the
entries named with --file. Tabular files move into the pond unchanged; zip
archives are extracted and each member is added under the archive's prefix.
Unsupported files are skipped with a warning and left in place.

Example:
  pond ingest
  pond ingest --file 2021_census_industry.xlsx
  pond ingest --json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				report *pond.Report
				err    error
			)
			if len(files) == 0 {
				report, err = a.pond.Ingest(cmd.Context())
			} else {
				report, err = a.pond.IngestPaths(cmd.Context(), a.inboxPaths(files))
			}
			if report != nil {
				if perr := a.printReport(cmd, report); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&files, "file", nil, "inbox entry to ingest (repeatable; bare names are taken from the inbox)")
	return cmd
}

// inboxPaths resolves bare names against the inbox and other paths against
// the working directory.
func (a *app) inboxPaths(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if filepath.Base(f) == f {
			out = append(out, filepath.Join(a.pond.Layout().Inbox, f))
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		out = append(out, f)
	}
	return out
}

func (a *app) printReport(cmd *cobra.Command, r *pond.Report) error {
	if a.flags.jsonMode {
		return printJSON(cmd, r)
	}
	out := cmd.OutOrStdout()
	for _, res := range r.Ingested {
		line := fmt.Sprintf("ingested %s -> %s", res.Raw, res.SemanticName)
		if res.Provenance != nil {
			line += fmt.Sprintf(" (from %s:%s)", res.Provenance.SourceArchive, res.Provenance.OriginalFile)
		}
		fmt.Fprintln(out, line)
	}
	for _, s := range r.Skipped {
		fmt.Fprintf(out, "skipped %s: %s\n", s.File, s.Reason)
	}
	fmt.Fprintf(out, "Ingested %d file(s), skipped %d (run %s)\n", len(r.Ingested), len(r.Skipped), r.RunID)
	return nil
}
