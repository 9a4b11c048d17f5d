package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/mesh-intelligence/datapond/internal/describe"
	"github.com/mesh-intelligence/datapond/internal/naming"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// member is a regular file extracted to the scratch area.
type member struct {
	name    string // relative name inside the archive
	scratch string // extracted location
}

// ingestArchive extracts every regular file of a zip archive, copies each
// tabular one into the pond as <archive prefix><sep><basename>, records it
// with provenance, and removes the archive once every member is ingested.
// Members that cannot be ingested (unsupported type, renamed name taken by
// an earlier member) are skipped and the archive stays in the inbox so
// their bytes are kept. Extraction failures are returned before the pond is
// touched.
func (p *Pipeline) ingestArchive(path string, report *Report, logger *slog.Logger) error {
	archive := filepath.Base(path)

	if err := os.MkdirAll(p.layout.Scratch, 0o755); err != nil {
		return types.IOError("create scratch", p.layout.Scratch, err)
	}
	scratch, err := os.MkdirTemp(p.layout.Scratch, naming.ArchivePrefix(archive)+"-*")
	if err != nil {
		return types.IOError("create scratch", archive, err)
	}
	defer os.RemoveAll(scratch)

	members, err := extract(path, scratch)
	if err != nil {
		return err
	}
	logger.Info("extracted archive", "archive", archive, "members", len(members))

	seen := make(map[string]string, len(members))
	skipped := 0
	for _, m := range members {
		newName := naming.ExtractedName(archive, m.name, p.separator)
		if prev, dup := seen[newName]; dup {
			p.skip(report, logger, archive+":"+m.name,
				fmt.Errorf("%w: %s maps to %s, already taken by %s", types.ErrPondEntryExists, m.name, newName, prev))
			skipped++
			continue
		}
		if !describe.FormatOf(newName).Tabular() {
			p.skip(report, logger, archive+":"+m.name, fmt.Errorf("%w: %s", types.ErrUnsupportedType, m.name))
			skipped++
			continue
		}
		seen[newName] = m.name

		dst := p.layout.PondPath(newName)
		if err := copyFile(m.scratch, dst); err != nil {
			return err
		}
		if err := seal(dst); err != nil {
			logger.Debug("could not mark pond file read-only", "file", newName, "error", err)
		}

		res, err := p.record(dst, &types.Provenance{SourceArchive: archive, OriginalFile: m.name})
		if err != nil {
			return err
		}
		report.Ingested = append(report.Ingested, *res)
		logger.Info("ingested file", "file", res.Raw, "semantic_name", res.SemanticName, "archive", archive)
	}

	if skipped > 0 {
		logger.Warn("archive left in inbox", "archive", archive, "skipped_members", skipped)
		return nil
	}
	if err := os.Remove(path); err != nil {
		return types.IOError("remove archive", archive, err)
	}
	return nil
}

// extract writes every regular file of the zip at path under dir and
// returns them in archive order. Directory entries are dropped. An entry
// whose name would land outside dir fails the whole extraction.
func extract(path, dir string) ([]member, error) {
	archive := filepath.Base(path)
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, types.IOError("open archive", archive, err)
	}
	defer zr.Close()

	var members []member
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		rel := filepath.Clean(filepath.FromSlash(f.Name))
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: archive %s entry %q escapes extraction directory", types.ErrIO, archive, f.Name)
		}
		target := filepath.Join(dir, rel)
		if err := extractOne(f, target); err != nil {
			return nil, fmt.Errorf("archive %s entry %q: %w", archive, f.Name, err)
		}
		members = append(members, member{name: filepath.ToSlash(rel), scratch: target})
	}
	return members, nil
}

func extractOne(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return types.IOError("create dir", filepath.Dir(target), err)
	}
	rc, err := f.Open()
	if err != nil {
		return types.IOError("open entry", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return types.IOError("create", filepath.Base(target), err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return types.IOError("extract", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return types.IOError("close", filepath.Base(target), err)
	}
	return nil
}
