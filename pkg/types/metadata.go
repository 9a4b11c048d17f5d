package types

// Column type tags written to metadata records.
const (
	ColumnUnknown = "unknown"
	ColumnString  = "string"
	ColumnInteger = "integer"
	ColumnNumber  = "number"
	ColumnBoolean = "boolean"
	ColumnDate    = "date"
)

// Metadata describes one raw pond file. It is written once at ingestion and
// never mutated afterwards.
type Metadata struct {
	File         string      `json:"file" yaml:"file"`
	SHA256       string      `json:"sha256" yaml:"sha256"`
	SizeBytes    int64       `json:"size_bytes" yaml:"size_bytes"`
	NRows        *int64      `json:"n_rows" yaml:"n_rows"`
	NCols        int         `json:"n_cols" yaml:"n_cols"`
	ColNames     []string    `json:"col_names" yaml:"col_names"`
	ColTypes     []string    `json:"col_types" yaml:"col_types"`
	SemanticName string      `json:"semantic_name" yaml:"semantic_name"`
	Provenance   *Provenance `json:"provenance" yaml:"provenance"`
	Created      string      `json:"created" yaml:"created"`
}

// Provenance records where an extracted file came from.
type Provenance struct {
	SourceArchive string `json:"source_archive" yaml:"source_archive"`
	OriginalFile  string `json:"original_file" yaml:"original_file"`
}
