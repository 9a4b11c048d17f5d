// Package resolve maps semantic names to the physical file that currently
// backs them.
package resolve

import (
	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Resolver answers "which file is this semantic name right now" from the
// view records alone.
type Resolver struct {
	layout types.Layout
	views  *store.ViewStore
}

// New returns a Resolver over the given layout. A nil views store is built
// from layout.Views.
func New(layout types.Layout, views *store.ViewStore) *Resolver {
	if views == nil {
		views = store.NewViewStore(layout.Views)
	}
	return &Resolver{layout: layout, views: views}
}

// Resolve returns the path of the file backing semanticName: the derived
// file when the view prefers it, otherwise the raw file in the pond. The
// returned path is not checked for existence.
//
// Errors match types.ErrNotFound when no view exists and
// types.ErrInvalidView when the view cannot be used.
func (r *Resolver) Resolve(semanticName string) (string, error) {
	v, err := r.views.Load(semanticName)
	if err != nil {
		return "", err
	}
	return r.Path(v), nil
}

// Path returns the backing path of an already loaded view.
func (r *Resolver) Path(v *types.View) string {
	if v.PrefersDerived() {
		return r.layout.DerivedPath(v.Parquet)
	}
	return r.layout.PondPath(v.Raw)
}
