package types

import "path/filepath"

// Directory names under the project root. These are part of the on-disk
// contract other tools read.
const (
	StoreDirName   = "data_store"
	IndexDirName   = "data_index"
	InboxDirName   = "add_to_pond"
	PondDirName    = "data_pond"
	DerivedDirName = "data_parquet"
	ScratchDirName = ".scratch"
	MetaDirName    = "meta"
	ViewsDirName   = "views"
	CatalogDBName  = "catalog.db"

	// RecordExt is the extension of metadata and view record files.
	RecordExt = ".yml"
)

// Layout holds the absolute directories derived from a project root.
type Layout struct {
	Root    string
	Inbox   string
	Pond    string
	Derived string
	Scratch string
	Meta    string
	Views   string
	Catalog string
}

// NewLayout derives every pond directory from root.
func NewLayout(root string) Layout {
	store := filepath.Join(root, StoreDirName)
	index := filepath.Join(root, IndexDirName)
	return Layout{
		Root:    root,
		Inbox:   filepath.Join(store, InboxDirName),
		Pond:    filepath.Join(store, PondDirName),
		Derived: filepath.Join(store, DerivedDirName),
		Scratch: filepath.Join(store, ScratchDirName),
		Meta:    filepath.Join(index, MetaDirName),
		Views:   filepath.Join(index, ViewsDirName),
		Catalog: filepath.Join(index, CatalogDBName),
	}
}

// Dirs lists the directories that Init creates.
func (l Layout) Dirs() []string {
	return []string{l.Inbox, l.Pond, l.Derived, l.Meta, l.Views}
}

// PondPath joins a bare raw filename onto the pond directory.
func (l Layout) PondPath(raw string) string {
	return filepath.Join(l.Pond, filepath.Base(raw))
}

// DerivedPath joins a bare derived filename onto the derived directory.
func (l Layout) DerivedPath(derived string) string {
	return filepath.Join(l.Derived, filepath.Base(derived))
}

// MetaPath returns the metadata record path for a raw filename.
func (l Layout) MetaPath(raw string) string {
	return filepath.Join(l.Meta, filepath.Base(raw)+RecordExt)
}

// ViewPath returns the view record path for a semantic name.
func (l Layout) ViewPath(semanticName string) string {
	return filepath.Join(l.Views, filepath.Base(semanticName)+RecordExt)
}
