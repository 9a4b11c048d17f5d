// Package ingest moves incoming files and archives into the pond, writes
// their metadata records, and points their views at the new raw files.
//
// Runs are sequential and hold no locks; a single writer is assumed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/datapond/internal/describe"
	"github.com/mesh-intelligence/datapond/internal/naming"
	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Config wires a Pipeline to its collaborators.
type Config struct {
	Layout    types.Layout
	Separator string
	Describer *describe.Describer
	Views     *store.ViewStore
	Metas     *store.MetaStore

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Pipeline ingests inbox entries.
type Pipeline struct {
	layout    types.Layout
	separator string
	describer *describe.Describer
	views     *store.ViewStore
	metas     *store.MetaStore
	logger    *slog.Logger
}

// New returns a Pipeline. Collaborators left nil are built from Layout with
// default settings.
func New(cfg Config) *Pipeline {
	if cfg.Separator == "" {
		cfg.Separator = types.DefaultSeparator
	}
	if cfg.Describer == nil {
		cfg.Describer = describe.New(types.Config{Root: cfg.Layout.Root, Separator: cfg.Separator})
	}
	if cfg.Views == nil {
		cfg.Views = store.NewViewStore(cfg.Layout.Views)
	}
	if cfg.Metas == nil {
		cfg.Metas = store.NewMetaStore(cfg.Layout.Meta)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		layout:    cfg.Layout,
		separator: cfg.Separator,
		describer: cfg.Describer,
		views:     cfg.Views,
		metas:     cfg.Metas,
		logger:    logger,
	}
}

// IngestInbox ingests every entry of the inbox in name order. Skippable
// problems with one entry (unsupported type, missing separator, pond name
// clash) are recorded in the report and logged; the run continues. Any other
// failure stops the run and is returned with the partial report.
func (p *Pipeline) IngestInbox(ctx context.Context) (*Report, error) {
	entries, err := os.ReadDir(p.layout.Inbox)
	if err != nil {
		return nil, types.IOError("list inbox", p.layout.Inbox, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(p.layout.Inbox, e.Name()))
	}
	sort.Strings(paths)
	return p.IngestPaths(ctx, paths)
}

// IngestPaths ingests the given entries with the same failure policy as
// IngestInbox.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string) (*Report, error) {
	report := newReport()
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("ingestion run started", "entries", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.ingestEntry(path, report, logger); err != nil {
			if !skippable(err) {
				logger.Error("ingestion run aborted", "file", filepath.Base(path), "error", err)
				return report, fmt.Errorf("ingest %s: %w", filepath.Base(path), err)
			}
			p.skip(report, logger, filepath.Base(path), err)
		}
	}

	logger.Info("ingestion run finished", "ingested", len(report.Ingested), "skipped", len(report.Skipped))
	return report, nil
}

func skippable(err error) bool {
	return errors.Is(err, types.ErrUnsupportedType) ||
		errors.Is(err, types.ErrNoSeparator) ||
		errors.Is(err, types.ErrPondEntryExists)
}

func (p *Pipeline) skip(report *Report, logger *slog.Logger, file string, err error) {
	logger.Warn("skipping entry", "file", file, "reason", err)
	report.Skipped = append(report.Skipped, Skip{File: file, Reason: err.Error(), err: err})
}

// ingestEntry classifies one inbox entry and routes it.
func (p *Pipeline) ingestEntry(path string, report *Report, logger *slog.Logger) error {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return types.IOError("stat", name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", types.ErrUnsupportedType, name)
	}

	switch format := describe.FormatOf(name); {
	case format.Tabular():
		res, err := p.ingestFile(path)
		if err != nil {
			return err
		}
		report.Ingested = append(report.Ingested, *res)
		logger.Info("ingested file", "file", res.Raw, "semantic_name", res.SemanticName)
		return nil
	case format == describe.FormatArchive:
		return p.ingestArchive(path, report, logger)
	default:
		return fmt.Errorf("%w: %s", types.ErrUnsupportedType, name)
	}
}

// ingestFile relocates a tabular file into the pond unchanged in name and
// bytes, then records it.
func (p *Pipeline) ingestFile(src string) (*Result, error) {
	name := filepath.Base(src)
	if !naming.HasSeparator(name, p.separator) {
		return nil, fmt.Errorf("%w: %q has no %q", types.ErrNoSeparator, name, p.separator)
	}

	dst := p.layout.PondPath(name)
	present, err := fileExists(dst)
	if err != nil {
		return nil, err
	}
	if present {
		// A previous run relocated this file but was interrupted; the
		// inbox copy is redundant only if the bytes match.
		same, err := sameContent(src, dst)
		if err != nil {
			return nil, err
		}
		if !same {
			return nil, fmt.Errorf("%w: %s", types.ErrPondEntryExists, name)
		}
		if err := os.Remove(src); err != nil {
			return nil, types.IOError("remove inbox copy", name, err)
		}
	} else if err := moveFile(src, dst); err != nil {
		return nil, err
	}
	if err := seal(dst); err != nil {
		p.logger.Debug("could not mark pond file read-only", "file", name, "error", err)
	}

	return p.record(dst, nil)
}

// record describes a pond file, writes its metadata record unless an
// identical one exists, and points its view at it.
func (p *Pipeline) record(pondPath string, prov *types.Provenance) (*Result, error) {
	meta, err := p.describer.Describe(pondPath)
	if err != nil {
		return nil, err
	}
	meta.Provenance = prov

	prior, err := p.metas.Load(meta.File)
	if err != nil && errors.Is(err, types.ErrIO) {
		return nil, err
	}
	if err == nil && prior.SHA256 == meta.SHA256 {
		meta = prior
	} else if err := p.metas.Write(meta); err != nil {
		return nil, err
	}

	view, err := p.views.Write(meta.SemanticName, store.ViewUpdate{
		Raw:       meta.File,
		Preferred: types.RepresentationRaw,
		MetaFile:  store.FileName(meta.File),
		SHA256:    meta.SHA256,
	})
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", meta.SemanticName, err)
	}

	return &Result{
		Raw:          meta.File,
		SemanticName: meta.SemanticName,
		SHA256:       meta.SHA256,
		Provenance:   meta.Provenance,
		View:         view,
	}, nil
}

func sameContent(a, b string) (bool, error) {
	ha, err := describe.HashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := describe.HashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
