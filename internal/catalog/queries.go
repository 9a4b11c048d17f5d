package catalog

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Version is one raw file recorded for a semantic name.
type Version struct {
	File          string `json:"file"`
	SemanticName  string `json:"semantic_name"`
	SHA256        string `json:"sha256"`
	SizeBytes     int64  `json:"size_bytes"`
	NRows         *int64 `json:"n_rows"`
	NCols         int    `json:"n_cols"`
	SourceArchive string `json:"source_archive,omitempty"`
	OriginalFile  string `json:"original_file,omitempty"`
	Created       string `json:"created"`
	// Current is set when the semantic name's view points at this file.
	Current bool `json:"current"`
}

// Stats summarizes the catalog.
type Stats struct {
	RawFiles   int   `json:"raw_files"`
	Views      int   `json:"views"`
	Derived    int   `json:"derived"`
	TotalBytes int64 `json:"total_bytes"`
}

const versionColumns = `r.file, r.semantic_name, r.sha256, r.size_bytes, r.n_rows, r.n_cols,
    r.source_archive, r.original_file, r.created, v.raw IS NOT NULL AND v.raw = r.file`

// Views returns every loaded view ordered by semantic name.
func (c *Catalog) Views() ([]types.View, error) {
	db, release, err := c.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(`SELECT semantic_name, preferred, raw,
        COALESCE(parquet, ''), COALESCE(meta_file, ''), COALESCE(sha256, ''), updated
        FROM views ORDER BY semantic_name`)
	if err != nil {
		return nil, fmt.Errorf("querying views: %w", err)
	}
	defer rows.Close()

	views := []types.View{}
	for rows.Next() {
		var v types.View
		if err := rows.Scan(&v.SemanticName, &v.Preferred, &v.Raw, &v.Parquet, &v.MetaFile, &v.SHA256, &v.Updated); err != nil {
			return nil, fmt.Errorf("scanning view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Versions returns every raw file recorded for semanticName, newest first
// by created timestamp then filename. It returns types.ErrNotFound when the
// name has no records.
func (c *Catalog) Versions(semanticName string) ([]Version, error) {
	db, release, err := c.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(`SELECT `+versionColumns+`
        FROM raw_files r LEFT JOIN views v ON v.semantic_name = r.semantic_name
        WHERE r.semantic_name = ?
        ORDER BY r.created DESC, r.file DESC`, semanticName)
	if err != nil {
		return nil, fmt.Errorf("querying versions of %q: %w", semanticName, err)
	}
	versions, err := scanVersions(rows)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no raw files for %q", types.ErrNotFound, semanticName)
	}
	return versions, nil
}

// WithColumn returns the raw files whose header has a column named name,
// newest first.
func (c *Catalog) WithColumn(name string) ([]Version, error) {
	db, release, err := c.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(`SELECT DISTINCT `+versionColumns+`
        FROM columns col
        JOIN raw_files r ON r.file = col.file
        LEFT JOIN views v ON v.semantic_name = r.semantic_name
        WHERE col.name = ?
        ORDER BY r.created DESC, r.file DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("querying column %q: %w", name, err)
	}
	return scanVersions(rows)
}

// Stats counts raw files, views and derived views, and sums raw bytes.
func (c *Catalog) Stats() (Stats, error) {
	db, release, err := c.conn()
	if err != nil {
		return Stats{}, err
	}
	defer release()

	var s Stats
	err = db.QueryRow(`SELECT
        (SELECT COUNT(*) FROM raw_files),
        (SELECT COALESCE(SUM(size_bytes), 0) FROM raw_files),
        (SELECT COUNT(*) FROM views),
        (SELECT COUNT(*) FROM views WHERE preferred = ? AND parquet IS NOT NULL)`,
		types.RepresentationParquet).Scan(&s.RawFiles, &s.TotalBytes, &s.Views, &s.Derived)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	return s, nil
}

func scanVersions(rows *sql.Rows) ([]Version, error) {
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		var (
			v                 Version
			nRows             sql.NullInt64
			archive, original sql.NullString
		)
		if err := rows.Scan(&v.File, &v.SemanticName, &v.SHA256, &v.SizeBytes, &nRows, &v.NCols,
			&archive, &original, &v.Created, &v.Current); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		if nRows.Valid {
			n := nRows.Int64
			v.NRows = &n
		}
		v.SourceArchive = archive.String
		v.OriginalFile = original.String
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
