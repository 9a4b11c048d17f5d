package describe

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/datapond/internal/naming"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadHeader returns the de-duplicated column names from the first line of
// a delimited text file, reading at most limit bytes. A header line longer
// than limit loses its cut-off last column. A missing or empty file yields
// an empty slice.
func ReadHeader(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, types.IOError("open", filepath.Base(path), err)
	}
	defer f.Close()

	// One byte past the limit tells a cut header line from a complete one.
	buf := make([]byte, limit+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, types.IOError("read", filepath.Base(path), err)
	}
	truncated := n > limit
	prefix := bytes.TrimPrefix(buf[:min(n, limit)], utf8BOM)

	line, complete := cutLine(prefix)
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 {
		return []string{}, nil
	}

	fields := splitHeader(string(line), Delimiter(path, string(line)))
	if !complete && truncated {
		// The last field was cut at the limit.
		fields = fields[:len(fields)-1]
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return dedupe(fields), nil
}

// cutLine returns the first line of b and whether its newline was seen.
func cutLine(b []byte) ([]byte, bool) {
	line, _, found := bytes.Cut(b, []byte("\n"))
	return line, found
}

// Delimiter picks the field separator for a delimited file. .tsv is always
// tab-separated; .txt is tab-separated when its header has tabs but no commas.
func Delimiter(path, header string) rune {
	switch naming.Ext(path) {
	case ".tsv":
		return '\t'
	case ".txt":
		if strings.Contains(header, "\t") && !strings.Contains(header, ",") {
			return '\t'
		}
	}
	return ','
}

// splitHeader honours quoted fields and falls back to a plain split when the
// line is not valid CSV.
func splitHeader(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return strings.Split(line, string(delim))
	}
	return fields
}
