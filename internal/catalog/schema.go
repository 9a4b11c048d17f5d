package catalog

// Schema DDL. The database is rebuilt from the YAML records on every
// Attach, so there are no migrations.
const (
	createRawFiles = `CREATE TABLE raw_files (
    file TEXT PRIMARY KEY,
    semantic_name TEXT NOT NULL,
    sha256 TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    n_rows INTEGER,
    n_cols INTEGER NOT NULL,
    source_archive TEXT,
    original_file TEXT,
    created TEXT NOT NULL
);`

	createColumns = `CREATE TABLE columns (
    file TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    PRIMARY KEY (file, position),
    FOREIGN KEY (file) REFERENCES raw_files(file)
);`

	createViews = `CREATE TABLE views (
    semantic_name TEXT PRIMARY KEY,
    preferred TEXT NOT NULL,
    raw TEXT NOT NULL,
    parquet TEXT,
    meta_file TEXT,
    sha256 TEXT,
    updated TEXT NOT NULL
);`
)

var indexStatements = []string{
	"CREATE INDEX idx_raw_files_semantic ON raw_files(semantic_name)",
	"CREATE INDEX idx_raw_files_created ON raw_files(created)",
	"CREATE INDEX idx_columns_name ON columns(name)",
}

var schemaStatements = []string{
	createRawFiles,
	createColumns,
	createViews,
}
