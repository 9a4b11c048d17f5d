package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/datapond/internal/paths"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyRoot        = "root"
	cfgKeySeparator   = "separator"
	cfgKeyMinBytes    = "parquet.min_bytes"
	cfgKeyChunkRows   = "parquet.chunk_rows"
	cfgKeyHeaderBytes = "describe.header_bytes"
	cfgKeyMaxRows     = "describe.max_rows"
	cfgKeyLogLevel    = "log.level"
	cfgKeyLogFormat   = "log.format"
)

// defaultConfigYAML is the content written to config.yaml by pond init.
const defaultConfigYAML = `# pond configuration

# Project root holding data_store/ and data_index/ (optional; overridable
# by --root, falls back to POND_ROOT and then the working directory)
# root:

# Character separating the version part of a raw filename from its
# semantic name
separator: "_"

parquet:
  # Raw files larger than this many bytes are eligible for conversion
  min_bytes: 52428800
  # Rows buffered per Parquet write
  chunk_rows: 100000

describe:
  # Bytes read when sniffing a delimited header
  header_bytes: 8192
  # Rows sampled from spreadsheets
  max_rows: 1000

log:
  # debug, info, warn or error
  level: info
  # text or json
  format: text
`

// settings is the decoded config.yaml.
type settings struct {
	Root        string
	Separator   string
	MinBytes    int64
	ChunkRows   int
	HeaderBytes int
	MaxRows     int
	LogLevel    string
	LogFormat   string
}

// Config converts settings into the library configuration.
func (s settings) Config() types.Config {
	return types.Config{
		Root:             s.Root,
		Separator:        s.Separator,
		HeaderBytes:      s.HeaderBytes,
		MaxRows:          s.MaxRows,
		ParquetMinBytes:  s.MinBytes,
		ParquetChunkRows: s.ChunkRows,
	}
}

// loadSettings reads config.yaml from configDir using Viper. A missing
// config directory or config.yaml is not an error; defaults apply.
func loadSettings(configDir string) (settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeySeparator, types.DefaultSeparator)
	v.SetDefault(cfgKeyMinBytes, types.DefaultParquetMinBytes)
	v.SetDefault(cfgKeyChunkRows, types.DefaultParquetChunkRows)
	v.SetDefault(cfgKeyHeaderBytes, types.DefaultHeaderBytes)
	v.SetDefault(cfgKeyMaxRows, types.DefaultMaxRows)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("%w: read config: %w", errUsage, err)
		}
	}

	return settings{
		Root:        v.GetString(cfgKeyRoot),
		Separator:   v.GetString(cfgKeySeparator),
		MinBytes:    v.GetInt64(cfgKeyMinBytes),
		ChunkRows:   v.GetInt(cfgKeyChunkRows),
		HeaderBytes: v.GetInt(cfgKeyHeaderBytes),
		MaxRows:     v.GetInt(cfgKeyMaxRows),
		LogLevel:    v.GetString(cfgKeyLogLevel),
		LogFormat:   v.GetString(cfgKeyLogFormat),
	}, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns false, nil.
func writeConfigIfMissing(configDir string) (bool, error) {
	path := filepath.Join(configDir, paths.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
