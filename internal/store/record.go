// Package store persists metadata and view records as YAML files under the
// data index. Writes are atomic per file (temp file, fsync, rename); there is
// no locking, so concurrent writers to one view are last-writer-wins.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// readRecord decodes the YAML file at path into out. A missing file returns
// an error matching types.ErrNotFound.
func readRecord(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, filepath.Base(path))
		}
		return types.IOError("read", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeRecord atomically writes v as YAML to path using the temp-file,
// fsync, rename pattern.
func writeRecord(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.IOError("create dir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".record-*.tmp")
	if err != nil {
		return types.IOError("create temp", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.IOError("write", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.IOError("sync", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.IOError("close", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return types.IOError("rename", filepath.Base(path), err)
	}
	return nil
}

// listRecords returns the record files in dir, sorted by name. A missing
// directory yields no entries.
func listRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, types.IOError("list", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), types.RecordExt) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// bare strips any directory component from a filename field. Empty stays empty.
func bare(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// checkKey rejects keys that cannot name a record file.
func checkKey(kind, key string) (string, error) {
	b := bare(key)
	if b == "" || b == "." || b == ".." || b == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %s %q", types.ErrInvalidArgument, kind, key)
	}
	return b, nil
}
