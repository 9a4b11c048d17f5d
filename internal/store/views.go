package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// ViewUpdate carries the fields a caller supplies to ViewStore.Write. Empty
// fields are not written; see Write for how they are filled from the prior
// record.
type ViewUpdate struct {
	Raw       string
	Preferred string
	Parquet   string
	MetaFile  string
	SHA256    string
}

// ViewStore reads and writes view records, one YAML file per semantic name.
type ViewStore struct {
	dir string

	// Now stamps the updated field. Tests override it.
	Now func() time.Time
}

// NewViewStore returns a store rooted at dir (normally Layout.Views).
func NewViewStore(dir string) *ViewStore {
	return &ViewStore{dir: dir, Now: time.Now}
}

func (s *ViewStore) path(semanticName string) string {
	return filepath.Join(s.dir, semanticName+types.RecordExt)
}

// Load returns the view for semanticName. It returns an error matching
// types.ErrNotFound when no view file exists and types.ErrInvalidView when
// the file cannot be decoded or lacks a raw backing file.
func (s *ViewStore) Load(semanticName string) (*types.View, error) {
	key, err := checkKey("semantic name", semanticName)
	if err != nil {
		return nil, err
	}

	var v types.View
	if err := readRecord(s.path(key), &v); err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrIO) {
			return nil, fmt.Errorf("view %q: %w", key, err)
		}
		return nil, fmt.Errorf("%w: view %q: %v", types.ErrInvalidView, key, err)
	}
	if v.SemanticName == "" {
		v.SemanticName = key
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Read returns the view for semanticName, or false when no usable view
// exists. A first ingestion of a semantic name is a normal absent case.
func (s *ViewStore) Read(semanticName string) (*types.View, bool) {
	v, err := s.Load(semanticName)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Write creates or updates the view for semanticName.
//
// Preferred must be a recognized representation. Every filename field is
// reduced to its base name. Fields left empty are carried forward from the
// prior record: Raw always, and Parquet, MetaFile and SHA256 only while the
// raw backing file is unchanged, since they describe that file. A view
// without a raw file after merging is rejected with types.ErrInvalidArgument.
// A prior record that exists but cannot be read fails the write.
func (s *ViewStore) Write(semanticName string, u ViewUpdate) (*types.View, error) {
	key, err := checkKey("semantic name", semanticName)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateRepresentation(u.Preferred); err != nil {
		return nil, fmt.Errorf("view %q: %w", key, err)
	}

	v := &types.View{
		SemanticName: key,
		Preferred:    u.Preferred,
		Raw:          bare(u.Raw),
		Parquet:      bare(u.Parquet),
		MetaFile:     bare(u.MetaFile),
		SHA256:       strings.TrimSpace(u.SHA256),
	}

	prior, err := s.Load(key)
	switch {
	case err == nil:
		if v.Raw == "" {
			v.Raw = prior.Raw
		}
		if v.Raw == prior.Raw {
			if v.Parquet == "" {
				v.Parquet = prior.Parquet
			}
			if v.MetaFile == "" {
				v.MetaFile = prior.MetaFile
			}
			if v.SHA256 == "" {
				v.SHA256 = prior.SHA256
			}
		}
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrInvalidView):
		// No usable prior record; write fresh.
	default:
		return nil, err
	}
	if v.Raw == "" {
		return nil, fmt.Errorf("%w: view %q needs a raw file", types.ErrInvalidArgument, key)
	}

	v.Updated = types.FormatTimestamp(s.Now())
	if err := writeRecord(s.path(key), v); err != nil {
		return nil, err
	}
	return v, nil
}

// Put writes v verbatim, replacing any existing record. Rebuild uses it to
// recompute views without merging.
func (s *ViewStore) Put(v *types.View) error {
	key, err := checkKey("semantic name", v.SemanticName)
	if err != nil {
		return err
	}
	if err := types.ValidateRepresentation(v.Preferred); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	out := *v
	out.SemanticName = key
	out.Raw = bare(v.Raw)
	out.Parquet = bare(v.Parquet)
	out.MetaFile = bare(v.MetaFile)
	if out.Updated == "" {
		out.Updated = types.FormatTimestamp(s.Now())
	}
	return writeRecord(s.path(key), &out)
}

// Names lists the semantic names that have a view file.
func (s *ViewStore) Names() ([]string, error) {
	files, err := listRecords(s.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(f, types.RecordExt))
	}
	return names, nil
}
