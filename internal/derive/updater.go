// Package derive produces derived representations of raw pond files and
// points views at them. The raw file is never modified; a derived file is
// regenerable and never authoritative.
package derive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/datapond/internal/naming"
	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Config wires an Updater.
type Config struct {
	Layout types.Layout
	Views  *store.ViewStore

	// Converter defaults to a ParquetConverter with ChunkRows.
	Converter Converter
	ChunkRows int

	// MinBytes is the raw size a file must exceed to be converted without
	// force.
	MinBytes int64

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Updater converts raw files and records the derived file on their views.
type Updater struct {
	layout    types.Layout
	views     *store.ViewStore
	converter Converter
	minBytes  int64
	logger    *slog.Logger
}

// New returns an Updater.
func New(cfg Config) *Updater {
	if cfg.Views == nil {
		cfg.Views = store.NewViewStore(cfg.Layout.Views)
	}
	if cfg.Converter == nil {
		cfg.Converter = ParquetConverter{ChunkRows: cfg.ChunkRows}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		layout:    cfg.Layout,
		views:     cfg.Views,
		converter: cfg.Converter,
		minBytes:  cfg.MinBytes,
		logger:    logger,
	}
}

// Outcome reports what Convert did for one semantic name.
type Outcome struct {
	SemanticName string      `json:"semantic_name"`
	Raw          string      `json:"raw"`
	Parquet      string      `json:"parquet"`
	Converted    bool        `json:"converted"`
	Reason       string      `json:"reason,omitempty"`
	View         *types.View `json:"view,omitempty"`
}

// Skip reasons reported in Outcome.Reason.
const (
	ReasonBelowThreshold = "raw file not larger than threshold"
	ReasonDerivedExists  = "derived file already exists"
)

// Convert produces the derived file for the raw file the view of
// semanticName points at, then updates the view to prefer it. Unless force
// is set, files at or below the size threshold and files that already have
// a derived file are left alone.
func (u *Updater) Convert(ctx context.Context, semanticName string, force bool) (*Outcome, error) {
	v, err := u.views.Load(semanticName)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		SemanticName: v.SemanticName,
		Raw:          v.Raw,
		Parquet:      naming.DerivedName(v.Raw),
	}

	src := u.layout.PondPath(v.Raw)
	info, err := os.Stat(src)
	if err != nil {
		return nil, types.IOError("stat", v.Raw, err)
	}
	dst := u.layout.DerivedPath(out.Parquet)

	if !force {
		if info.Size() <= u.minBytes {
			out.Reason = ReasonBelowThreshold
			return out, nil
		}
		if _, err := os.Stat(dst); err == nil {
			out.Reason = ReasonDerivedExists
			return out, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, types.IOError("stat", out.Parquet, err)
		}
	}

	if err := u.produce(ctx, src, dst); err != nil {
		return nil, fmt.Errorf("convert %q: %w", semanticName, err)
	}
	u.logger.Info("derived file written", "semantic_name", v.SemanticName, "raw", v.Raw, "parquet", out.Parquet)

	view, err := u.views.Write(v.SemanticName, store.ViewUpdate{
		Raw:       v.Raw,
		Preferred: types.RepresentationParquet,
		Parquet:   out.Parquet,
	})
	if err != nil {
		return nil, err
	}
	out.Converted = true
	out.View = view
	return out, nil
}

// produce runs the converter into a temp file beside dst and renames it into
// place, so a failed conversion never leaves a partial derived file.
func (u *Updater) produce(ctx context.Context, src, dst string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.IOError("create dir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".convert-*.tmp")
	if err != nil {
		return types.IOError("create temp", filepath.Base(dst), err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.IOError("close", tmpName, err)
	}

	if err := u.converter.Convert(ctx, src, tmpName); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return types.IOError("rename", filepath.Base(dst), err)
	}
	return nil
}

// Register records a derived file produced elsewhere. The file must already
// be in the derived directory. raw may be empty to keep the view's current
// raw file. Exactly one view write is made, preferring the derived file and
// carrying the metadata reference and hash forward.
func (u *Updater) Register(semanticName, raw, derived string) (*types.View, error) {
	derived = filepath.Base(derived)
	if derived == "." || derived == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: derived filename is empty", types.ErrInvalidArgument)
	}
	info, err := os.Stat(u.layout.DerivedPath(derived))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: derived file %s", types.ErrNotFound, derived)
		}
		return nil, types.IOError("stat", derived, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: derived file %s is not a regular file", types.ErrInvalidArgument, derived)
	}

	view, err := u.views.Write(semanticName, store.ViewUpdate{
		Raw:       raw,
		Preferred: types.RepresentationParquet,
		Parquet:   derived,
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info("derived file registered", "semantic_name", view.SemanticName, "parquet", derived)
	return view, nil
}
