package ingest

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// pondFileMode is applied to every file once it is in the pond.
const pondFileMode fs.FileMode = 0o444

// moveFile renames src to dst, falling back to copy-then-delete when the
// rename fails (typically across filesystem boundaries).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return types.IOError("remove source", filepath.Base(src), err)
	}
	return nil
}

// copyFile copies src to dst through a temp file in dst's directory and
// renames it into place, replacing any existing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return types.IOError("open", filepath.Base(src), err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".ingest-*.tmp")
	if err != nil {
		return types.IOError("create temp", filepath.Base(dst), err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.IOError("copy", filepath.Base(src), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.IOError("sync", filepath.Base(dst), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.IOError("close", filepath.Base(dst), err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return types.IOError("rename", filepath.Base(dst), err)
	}
	return nil
}

// seal marks a pond file read-only.
func seal(path string) error {
	return os.Chmod(path, pondFileMode)
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, types.IOError("stat", filepath.Base(path), err)
	}
	return info.Mode().IsRegular(), nil
}
