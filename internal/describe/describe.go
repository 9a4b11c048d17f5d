// Package describe inspects raw files and produces their metadata records:
// content hash, size, and a light schema taken from the header or a bounded
// sample of rows.
package describe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/datapond/internal/naming"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Describer builds metadata records. The zero value is not usable; call New.
type Describer struct {
	separator   string
	headerBytes int
	maxRows     int

	// Now supplies the created timestamp. Tests override it.
	Now func() time.Time
}

// New returns a Describer configured from cfg. Zero settings take their defaults.
func New(cfg types.Config) *Describer {
	cfg = cfg.WithDefaults()
	return &Describer{
		separator:   cfg.Separator,
		headerBytes: cfg.HeaderBytes,
		maxRows:     cfg.MaxRows,
		Now:         time.Now,
	}
}

// Describe reads the file at path and returns its metadata record. The whole
// file is read once for the hash; the schema comes from a bounded prefix.
// Provenance is left for the caller to attach.
func (d *Describer) Describe(path string) (*types.Metadata, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, types.IOError("stat", name, err)
	}

	sum, err := HashFile(path)
	if err != nil {
		return nil, err
	}

	meta := &types.Metadata{
		File:         name,
		SHA256:       sum,
		SizeBytes:    info.Size(),
		ColNames:     []string{},
		ColTypes:     []string{},
		SemanticName: naming.SemanticName(name, d.separator),
		Created:      types.FormatTimestamp(d.Now()),
	}

	switch FormatOf(name) {
	case FormatDelimited:
		cols, err := ReadHeader(path, d.headerBytes)
		if err != nil {
			return nil, err
		}
		meta.ColNames = cols
		meta.ColTypes = unknownTypes(len(cols))
	case FormatSpreadsheet:
		sample, err := SampleSpreadsheet(path, d.maxRows)
		if err != nil {
			return nil, err
		}
		meta.ColNames = sample.Names
		meta.ColTypes = sample.Types
		meta.NRows = sample.Rows
	}
	meta.NCols = len(meta.ColNames)

	return meta, nil
}

// HashFile returns the hex-encoded SHA-256 of the full file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", types.IOError("open", filepath.Base(path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", types.IOError("hash", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func unknownTypes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = types.ColumnUnknown
	}
	return out
}

// UniqueNames trims header fields and de-duplicates them the way Describe
// names columns.
func UniqueNames(fields []string) []string {
	trimmed := make([]string, len(fields))
	for i, f := range fields {
		trimmed[i] = strings.TrimSpace(f)
	}
	return dedupe(trimmed)
}

// dedupe makes column names unique by suffixing repeats with _2, _3, and so
// on. Blank names become "unnamed" before deduplication.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		if n == "" {
			n = "unnamed"
		}
		candidate := n
		for k := 2; seen[candidate]; k++ {
			candidate = fmt.Sprintf("%s_%d", n, k)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}
