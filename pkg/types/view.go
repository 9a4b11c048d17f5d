package types

import (
	"fmt"
	"time"
)

// Representation tags recognized in a view's preferred field.
const (
	RepresentationRaw     = "raw"
	RepresentationParquet = "parquet"
)

var validRepresentations = map[string]bool{
	RepresentationRaw:     true,
	RepresentationParquet: true,
}

// TimestampLayout formats the updated and created fields of records.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in the record timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ValidateRepresentation returns ErrInvalidArgument unless tag is a
// recognized representation.
func ValidateRepresentation(tag string) error {
	if !validRepresentations[tag] {
		return fmt.Errorf("%w: unknown representation %q", ErrInvalidArgument, tag)
	}
	return nil
}

// View is the mutable pointer from a semantic name to its current backing
// files. All file fields hold bare filenames; directories are joined only at
// resolution time.
type View struct {
	SemanticName string `json:"semantic_name" yaml:"semantic_name"`
	Preferred    string `json:"preferred" yaml:"preferred"`
	Raw          string `json:"raw" yaml:"raw"`
	Parquet      string `json:"parquet,omitempty" yaml:"parquet,omitempty"`
	MetaFile     string `json:"meta_file,omitempty" yaml:"meta_file,omitempty"`
	SHA256       string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Updated      string `json:"updated" yaml:"updated"`
}

// Validate reports ErrInvalidView when the record lacks a raw backing file.
func (v *View) Validate() error {
	if v.Raw == "" {
		return fmt.Errorf("%w: view %q has no raw file", ErrInvalidView, v.SemanticName)
	}
	return nil
}

// PrefersDerived reports whether the view resolves to its Parquet file.
// A view preferring parquet without a Parquet filename degrades to raw.
func (v *View) PrefersDerived() bool {
	return v.Preferred == RepresentationParquet && v.Parquet != ""
}

// Backing returns the bare filename the view currently resolves to.
func (v *View) Backing() string {
	if v.PrefersDerived() {
		return v.Parquet
	}
	return v.Raw
}
