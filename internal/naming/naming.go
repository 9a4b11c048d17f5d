// Package naming derives stable semantic keys and archive prefixes from raw
// filenames. It is pure string manipulation; callers pass basenames.
package naming

import (
	"path/filepath"
	"strings"
)

// DerivedExt is the extension of derived Parquet artifacts.
const DerivedExt = ".parquet"

// SemanticName returns everything after the first occurrence of sep in raw,
// extension included. A name without sep is returned unchanged; use
// HasSeparator to reject such names before relying on the result.
func SemanticName(raw, sep string) string {
	_, after, found := strings.Cut(raw, sep)
	if !found {
		return raw
	}
	return after
}

// HasSeparator reports whether raw carries a version prefix.
func HasSeparator(raw, sep string) bool {
	return strings.Contains(raw, sep)
}

// ArchivePrefix returns the part of an archive name before its first '.',
// so "statcan_12345_20250101_120000.zip" yields
// "statcan_12345_20250101_120000". Every file extracted from the archive is
// renamed to prefix + sep + basename.
func ArchivePrefix(archive string) string {
	before, _, _ := strings.Cut(archive, ".")
	return before
}

// ExtractedName builds the pond filename for a file taken out of archive.
func ExtractedName(archive, member, sep string) string {
	return ArchivePrefix(archive) + sep + filepath.Base(member)
}

// DerivedName returns the conventional Parquet filename for a raw file: the
// raw name with its final extension replaced.
func DerivedName(raw string) string {
	return strings.TrimSuffix(raw, filepath.Ext(raw)) + DerivedExt
}

// Ext returns the lower-cased final extension of name, dot included.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
