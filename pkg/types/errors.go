package types

import (
	"errors"
	"fmt"
)

// Resolution and record errors. Callers classify with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidView     = errors.New("invalid view")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrIO              = errors.New("i/o failure")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Ingestion errors.
var (
	// ErrNoSeparator marks a raw filename that carries no version prefix.
	ErrNoSeparator = errors.New("filename has no separator")

	// ErrPondEntryExists is returned when relocation would replace a pond
	// file with different content.
	ErrPondEntryExists = errors.New("pond entry exists with different content")

	// ErrNoMetadata is returned by a rebuild that finds no metadata records.
	ErrNoMetadata = fmt.Errorf("no metadata records: %w", ErrNotFound)
)

// IOError wraps err so that both ErrIO and err match errors.Is. op names
// the failing step and subject names the file involved.
func IOError(op, subject string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, subject, err)
}
