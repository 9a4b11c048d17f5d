package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// loader copies the YAML records into a freshly created database.
type loader struct {
	metas  *store.MetaStore
	views  *store.ViewStore
	logger *slog.Logger
}

// load inserts every metadata and view record in one transaction: all
// succeed or the database stays empty. Records that cannot be decoded, or
// that name a raw file already loaded, are skipped with a warning.
func (l loader) load(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if err := l.loadMetadata(tx); err != nil {
		return err
	}
	if err := l.loadViews(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

func (l loader) loadMetadata(tx *sql.Tx) error {
	records, err := l.metas.Scan()
	if err != nil {
		return err
	}

	fileStmt, err := tx.Prepare(`INSERT INTO raw_files
        (file, semantic_name, sha256, size_bytes, n_rows, n_cols, source_archive, original_file, created)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing raw_files insert: %w", err)
	}
	defer fileStmt.Close()

	colStmt, err := tx.Prepare(`INSERT INTO columns (file, position, name, type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing columns insert: %w", err)
	}
	defer colStmt.Close()

	for _, rec := range records {
		if rec.Err != nil {
			l.logger.Warn("catalog skipping unreadable metadata record", "record", rec.Name, "error", rec.Err)
			continue
		}
		m := rec.Meta
		if m.File == "" {
			l.logger.Warn("catalog skipping metadata record without raw file", "record", rec.Name)
			continue
		}

		var archive, original any
		if m.Provenance != nil {
			archive, original = m.Provenance.SourceArchive, m.Provenance.OriginalFile
		}
		var rows any
		if m.NRows != nil {
			rows = *m.NRows
		}
		if _, err := fileStmt.Exec(m.File, m.SemanticName, m.SHA256, m.SizeBytes, rows, m.NCols, archive, original, m.Created); err != nil {
			l.logger.Warn("catalog skipping conflicting metadata record", "record", rec.Name, "error", err)
			continue
		}

		for i, name := range m.ColNames {
			typ := types.ColumnUnknown
			if i < len(m.ColTypes) && m.ColTypes[i] != "" {
				typ = m.ColTypes[i]
			}
			if _, err := colStmt.Exec(m.File, i, name, typ); err != nil {
				return fmt.Errorf("loading columns of %s: %w", rec.Name, err)
			}
		}
	}
	return nil
}

func (l loader) loadViews(tx *sql.Tx) error {
	names, err := l.views.Names()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO views
        (semantic_name, preferred, raw, parquet, meta_file, sha256, updated)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing views insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		v, err := l.views.Load(name)
		if err != nil {
			l.logger.Warn("catalog skipping unusable view", "semantic_name", name, "error", err)
			continue
		}
		if _, err := stmt.Exec(v.SemanticName, v.Preferred, v.Raw,
			nullable(v.Parquet), nullable(v.MetaFile), nullable(v.SHA256), v.Updated); err != nil {
			return fmt.Errorf("loading view %s: %w", name, err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
