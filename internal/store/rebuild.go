package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/datapond/internal/naming"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// RebuildAll recomputes every view from the metadata records alone, ignoring
// and overwriting existing views. For each semantic name the newest record
// (by created, then filename) whose raw file is still in pondDir wins. The
// view prefers parquet iff the conventionally named derived file exists in
// derivedDir.
//
// Returns the number of views written, or types.ErrNoMetadata when the
// store holds no records. Records that cannot be decoded, lack a raw
// filename or semantic name, or whose raw file is gone are skipped with a
// warning.
func RebuildAll(metas *MetaStore, views *ViewStore, pondDir, derivedDir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	records, err := metas.Scan()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, types.ErrNoMetadata
	}

	latest := make(map[string]*types.Metadata)
	for _, rec := range records {
		switch {
		case rec.Err != nil:
			logger.Warn("skipping unreadable metadata record", "record", rec.Name, "error", rec.Err)
			continue
		case rec.Meta.File == "":
			logger.Warn("skipping metadata record without raw file", "record", rec.Name)
			continue
		case rec.Meta.SemanticName == "":
			logger.Warn("skipping metadata record without semantic name", "record", rec.Name)
			continue
		}
		if !exists(filepath.Join(pondDir, bare(rec.Meta.File))) {
			logger.Warn("skipping metadata record whose raw file is missing", "record", rec.Name, "file", rec.Meta.File)
			continue
		}
		if cur, ok := latest[rec.Meta.SemanticName]; !ok || newer(rec.Meta, cur) {
			latest[rec.Meta.SemanticName] = rec.Meta
		}
	}

	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		m := latest[name]
		v := &types.View{
			SemanticName: name,
			Preferred:    types.RepresentationRaw,
			Raw:          m.File,
			MetaFile:     FileName(m.File),
			SHA256:       m.SHA256,
		}
		derived := naming.DerivedName(bare(m.File))
		if exists(filepath.Join(derivedDir, derived)) {
			v.Preferred = types.RepresentationParquet
			v.Parquet = derived
		}
		if err := views.Put(v); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func newer(a, b *types.Metadata) bool {
	if a.Created != b.Created {
		return a.Created > b.Created
	}
	return a.File > b.File
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
