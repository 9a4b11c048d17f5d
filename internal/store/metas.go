package store

import (
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// MetaStore reads and writes metadata records, one YAML file per raw file.
type MetaStore struct {
	dir string
}

// NewMetaStore returns a store rooted at dir (normally Layout.Meta).
func NewMetaStore(dir string) *MetaStore {
	return &MetaStore{dir: dir}
}

// FileName returns the bare record filename for a raw file.
func FileName(raw string) string {
	return filepath.Base(raw) + types.RecordExt
}

// Write persists m under its raw filename.
func (s *MetaStore) Write(m *types.Metadata) error {
	key, err := checkKey("raw file", m.File)
	if err != nil {
		return err
	}
	out := *m
	out.File = key
	if out.ColNames == nil {
		out.ColNames = []string{}
	}
	if out.ColTypes == nil {
		out.ColTypes = []string{}
	}
	return writeRecord(filepath.Join(s.dir, FileName(key)), &out)
}

// Load returns the metadata record for raw. Returns an error matching
// types.ErrNotFound when no record exists.
func (s *MetaStore) Load(raw string) (*types.Metadata, error) {
	key, err := checkKey("raw file", raw)
	if err != nil {
		return nil, err
	}
	var m types.Metadata
	if err := readRecord(filepath.Join(s.dir, FileName(key)), &m); err != nil {
		return nil, fmt.Errorf("metadata %q: %w", key, err)
	}
	return &m, nil
}

// Record is one metadata file found by Scan. Err is set when the file could
// not be decoded; Meta is nil in that case.
type Record struct {
	Name string
	Meta *types.Metadata
	Err  error
}

// Scan reads every metadata record in the store, in filename order.
// Undecodable files are returned with Err set rather than failing the scan.
func (s *MetaStore) Scan() ([]Record, error) {
	files, err := listRecords(s.dir)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(files))
	for _, f := range files {
		var m types.Metadata
		if err := readRecord(filepath.Join(s.dir, f), &m); err != nil {
			records = append(records, Record{Name: f, Err: err})
			continue
		}
		records = append(records, Record{Name: f, Meta: &m})
	}
	return records, nil
}
