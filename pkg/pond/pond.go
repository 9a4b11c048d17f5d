// Package pond is the public API of the data pond: an append-only store of
// raw data files, one metadata record per file, and mutable views that map a
// stable semantic name onto the file that currently backs it.
//
// Example:
//
//	p, err := pond.Open(types.Config{Root: "/srv/data"})
//	if err != nil {
//	    return err
//	}
//	report, err := p.Ingest(ctx)
//	...
//	path, err := p.Resolve("census_industry.xlsx")
package pond

import (
	"context"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/datapond/internal/catalog"
	"github.com/mesh-intelligence/datapond/internal/derive"
	"github.com/mesh-intelligence/datapond/internal/describe"
	"github.com/mesh-intelligence/datapond/internal/ingest"
	"github.com/mesh-intelligence/datapond/internal/resolve"
	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Result types returned by Pond operations.
type (
	Report      = ingest.Report
	Result      = ingest.Result
	Skip        = ingest.Skip
	Outcome     = derive.Outcome
	FileVersion = catalog.Version
	Stats       = catalog.Stats
	Catalog     = catalog.Catalog
)

// Converter produces a derived file from a raw file; see WithConverter.
type Converter = derive.Converter

// Option customizes a Pond at Open.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	converter Converter
}

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConverter replaces the CSV to Parquet converter used by Convert.
func WithConverter(c Converter) Option {
	return func(o *options) { o.converter = c }
}

// Pond wires every component to one project root.
type Pond struct {
	cfg      types.Config
	layout   types.Layout
	logger   *slog.Logger
	views    *store.ViewStore
	metas    *store.MetaStore
	desc     *describe.Describer
	pipeline *ingest.Pipeline
	resolver *resolve.Resolver
	updater  *derive.Updater
}

// Open validates cfg and returns a Pond rooted at cfg.Root. It does not
// create any directories; call Init for that.
func Open(cfg types.Config, opts ...Option) (*Pond, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	layout := types.NewLayout(cfg.Root)
	views := store.NewViewStore(layout.Views)
	metas := store.NewMetaStore(layout.Meta)
	desc := describe.New(cfg)

	return &Pond{
		cfg:    cfg,
		layout: layout,
		logger: o.logger,
		views:  views,
		metas:  metas,
		desc:   desc,
		pipeline: ingest.New(ingest.Config{
			Layout:    layout,
			Separator: cfg.Separator,
			Describer: desc,
			Views:     views,
			Metas:     metas,
			Logger:    o.logger,
		}),
		resolver: resolve.New(layout, views),
		updater: derive.New(derive.Config{
			Layout:    layout,
			Views:     views,
			Converter: o.converter,
			ChunkRows: cfg.ParquetChunkRows,
			MinBytes:  cfg.ParquetMinBytes,
			Logger:    o.logger,
		}),
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (p *Pond) Config() types.Config { return p.cfg }

// Layout returns the directory layout under the root.
func (p *Pond) Layout() types.Layout { return p.layout }

// Init creates every directory of the layout. It is idempotent.
func (p *Pond) Init() error {
	for _, dir := range p.layout.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.IOError("create dir", dir, err)
		}
	}
	return nil
}

// Ingest processes every entry of the inbox.
func (p *Pond) Ingest(ctx context.Context) (*Report, error) {
	return p.pipeline.IngestInbox(ctx)
}

// IngestPaths processes only the given inbox entries.
func (p *Pond) IngestPaths(ctx context.Context, paths []string) (*Report, error) {
	return p.pipeline.IngestPaths(ctx, paths)
}

// Resolve returns the path of the file currently backing semanticName.
func (p *Pond) Resolve(semanticName string) (string, error) {
	return p.resolver.Resolve(semanticName)
}

// View returns the view record of semanticName.
func (p *Pond) View(semanticName string) (*types.View, error) {
	return p.views.Load(semanticName)
}

// Metadata returns the metadata record of a raw pond file.
func (p *Pond) Metadata(raw string) (*types.Metadata, error) {
	return p.metas.Load(raw)
}

// Describe returns the metadata record ingestion would write for the file at
// path, without touching the pond.
func (p *Pond) Describe(path string) (*types.Metadata, error) {
	return p.desc.Describe(path)
}

// Rebuild recomputes every view from the metadata records and returns how
// many views were written.
func (p *Pond) Rebuild() (int, error) {
	return store.RebuildAll(p.metas, p.views, p.layout.Pond, p.layout.Derived, p.logger)
}

// Convert produces the derived representation of semanticName's current raw
// file when it is eligible, or always when force is set.
func (p *Pond) Convert(ctx context.Context, semanticName string, force bool) (*Outcome, error) {
	return p.updater.Convert(ctx, semanticName, force)
}

// RegisterDerived points semanticName at a derived file already placed in
// the derived directory.
func (p *Pond) RegisterDerived(semanticName, derived string) (*types.View, error) {
	return p.updater.Register(semanticName, "", derived)
}

// Catalog attaches a fresh query index over the current records. The caller
// must Detach it.
func (p *Pond) Catalog() (*catalog.Catalog, error) {
	return catalog.Open(p.layout, p.logger)
}

// Views lists every view through a short-lived catalog.
func (p *Pond) Views() ([]types.View, error) {
	c, err := p.Catalog()
	if err != nil {
		return nil, err
	}
	defer c.Detach()
	return c.Views()
}

// Versions lists every raw file recorded for semanticName, newest first.
func (p *Pond) Versions(semanticName string) ([]FileVersion, error) {
	c, err := p.Catalog()
	if err != nil {
		return nil, err
	}
	defer c.Detach()
	return c.Versions(semanticName)
}
