// Package catalog is a disposable SQLite index over the pond's YAML
// records. Attach recreates the database and loads every metadata and view
// record; the YAML files stay the source of truth and the catalog is never
// written back.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Catalog errors.
var (
	ErrAlreadyAttached = errors.New("catalog already attached")
	ErrDetached        = errors.New("catalog is detached")
)

// Catalog answers listing and history queries over the data index.
type Catalog struct {
	mu       sync.RWMutex
	attached bool
	layout   types.Layout
	db       *sql.DB
	logger   *slog.Logger
}

// New returns a detached catalog. A nil logger means slog.Default().
func New(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{logger: logger}
}

// Open is New followed by Attach.
func Open(layout types.Layout, logger *slog.Logger) (*Catalog, error) {
	c := New(logger)
	if err := c.Attach(layout); err != nil {
		return nil, err
	}
	return c, nil
}

// Attach creates a fresh database at layout.Catalog and loads the metadata
// and view records into it. Returns ErrAlreadyAttached if already attached.
func (c *Catalog) Attach(layout types.Layout) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return ErrAlreadyAttached
	}
	if layout.Catalog == "" {
		return fmt.Errorf("%w: catalog path is empty", types.ErrInvalidArgument)
	}

	dir := filepath.Dir(layout.Catalog)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.IOError("create dir", dir, err)
	}
	// The index is rebuilt from scratch on every attach.
	if err := os.Remove(layout.Catalog); err != nil && !errors.Is(err, os.ErrNotExist) {
		return types.IOError("remove", layout.Catalog, err)
	}

	db, err := sql.Open("sqlite", layout.Catalog)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range append(schemaStatements, indexStatements...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating catalog schema: %w", err)
		}
	}

	l := loader{
		metas:  store.NewMetaStore(layout.Meta),
		views:  store.NewViewStore(layout.Views),
		logger: c.logger,
	}
	if err := l.load(db); err != nil {
		db.Close()
		return fmt.Errorf("loading catalog: %w", err)
	}

	c.db = db
	c.layout = layout
	c.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (c *Catalog) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return err
	}
	c.db = nil
	c.attached = false
	return nil
}

// conn returns the open database under the read lock, which the caller must
// release.
func (c *Catalog) conn() (*sql.DB, func(), error) {
	c.mu.RLock()
	if !c.attached {
		c.mu.RUnlock()
		return nil, nil, ErrDetached
	}
	return c.db, c.mu.RUnlock, nil
}
