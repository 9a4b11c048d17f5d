package types

import (
	"errors"
	"strings"
)

// Config holds the explicit settings threaded into every pond component.
// Nothing in the pond reads the process working directory; Root is always
// supplied by the caller.
type Config struct {
	Root      string `json:"root" yaml:"root"`
	Separator string `json:"separator" yaml:"separator"`

	// HeaderBytes bounds the prefix read when sniffing a delimited header.
	HeaderBytes int `json:"header_bytes" yaml:"header_bytes"`
	// MaxRows bounds the rows sampled from a spreadsheet.
	MaxRows int `json:"max_rows" yaml:"max_rows"`

	// ParquetMinBytes is the raw size above which a derived Parquet file is produced.
	ParquetMinBytes int64 `json:"parquet_min_bytes" yaml:"parquet_min_bytes"`
	// ParquetChunkRows is the number of rows buffered per Parquet write.
	ParquetChunkRows int `json:"parquet_chunk_rows" yaml:"parquet_chunk_rows"`
}

// Defaults applied by WithDefaults.
const (
	DefaultSeparator        = "_"
	DefaultHeaderBytes      = 8192
	DefaultMaxRows          = 1000
	DefaultParquetMinBytes  = 50 << 20
	DefaultParquetChunkRows = 100000
)

// Config validation errors.
var (
	ErrRootEmpty         = errors.New("root must not be empty")
	ErrSeparatorInvalid  = errors.New("separator must be a single character other than '.' or a path separator")
	ErrThresholdNegative = errors.New("size and row limits must not be negative")
)

// WithDefaults returns a copy of c with zero-valued settings replaced by
// their defaults.
func (c Config) WithDefaults() Config {
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
	if c.HeaderBytes == 0 {
		c.HeaderBytes = DefaultHeaderBytes
	}
	if c.MaxRows == 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.ParquetMinBytes == 0 {
		c.ParquetMinBytes = DefaultParquetMinBytes
	}
	if c.ParquetChunkRows == 0 {
		c.ParquetChunkRows = DefaultParquetChunkRows
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Root == "" {
		return ErrRootEmpty
	}
	if len(c.Separator) != 1 || c.Separator == "." || strings.ContainsAny(c.Separator, `/\`) {
		return ErrSeparatorInvalid
	}
	if c.HeaderBytes < 0 || c.MaxRows < 0 || c.ParquetMinBytes < 0 || c.ParquetChunkRows < 0 {
		return ErrThresholdNegative
	}
	return nil
}
