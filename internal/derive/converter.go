package derive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/mesh-intelligence/datapond/internal/describe"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Converter produces a derived file at dst from the raw file at src. It
// either succeeds with dst fully written or returns an error; callers own
// placement and view updates.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// DefaultChunkRows is the number of rows buffered per Parquet write.
const DefaultChunkRows = 100000

// ParquetConverter writes delimited text as a zstd-compressed Parquet file
// with one string column per header name. Values are not typed.
type ParquetConverter struct {
	// ChunkRows bounds how many rows are held in memory at once.
	ChunkRows int
}

// Convert streams src into dst chunk by chunk. Formats other than delimited
// text return an error matching types.ErrUnsupportedType.
func (c ParquetConverter) Convert(ctx context.Context, src, dst string) error {
	name := filepath.Base(src)
	if describe.FormatOf(name) != describe.FormatDelimited {
		return fmt.Errorf("%w: cannot convert %s to parquet", types.ErrUnsupportedType, name)
	}
	chunk := c.ChunkRows
	if chunk <= 0 {
		chunk = DefaultChunkRows
	}

	in, err := os.Open(src)
	if err != nil {
		return types.IOError("open", name, err)
	}
	defer in.Close()

	r, err := delimitedReader(src, in)
	if err != nil {
		return err
	}
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s has no header", types.ErrInvalidArgument, name)
	}
	if err != nil {
		return types.IOError("read header", name, err)
	}
	columns := columnNames(header)

	schema := stringSchema(name, columns)
	slot := make(map[string]int, len(columns))
	for i, path := range schema.Columns() {
		slot[path[0]] = i
	}
	order := make([]int, len(columns))
	for i, col := range columns {
		order[i] = slot[col]
	}

	out, err := os.Create(dst)
	if err != nil {
		return types.IOError("create", filepath.Base(dst), err)
	}
	defer out.Close()

	w := parquet.NewWriter(out, schema, parquet.Compression(&parquet.Zstd))
	rows := make([]parquet.Row, 0, chunk)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if _, err := w.WriteRows(rows); err != nil {
			return fmt.Errorf("writing %s: %w", filepath.Base(dst), err)
		}
		rows = rows[:0]
		return nil
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.IOError("read", name, err)
		}
		rows = append(rows, toRow(record, order))
		if len(rows) == chunk {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing parquet writer for %s: %w", filepath.Base(dst), err)
	}
	if err := out.Sync(); err != nil {
		return types.IOError("sync", filepath.Base(dst), err)
	}
	return out.Close()
}

// delimitedReader positions a csv.Reader at the start of in, past any
// byte-order mark, with the delimiter chosen from the first line.
func delimitedReader(src string, in io.Reader) (*csv.Reader, error) {
	br := bufio.NewReaderSize(in, 64*1024)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		if _, err := br.Discard(3); err != nil {
			return nil, types.IOError("read", filepath.Base(src), err)
		}
	}
	head, _ := br.Peek(br.Buffered())
	if len(head) == 0 {
		head, _ = br.Peek(4096)
	}
	line, _, _ := bytes.Cut(head, []byte("\n"))

	r := csv.NewReader(br)
	r.Comma = describe.Delimiter(src, string(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	return r, nil
}

// columnNames returns unique, non-empty Parquet column names for header.
// Blank header fields become column_N by position.
func columnNames(header []string) []string {
	named := make([]string, len(header))
	for i, h := range header {
		named[i] = h
		if strings.TrimSpace(h) == "" {
			named[i] = "column_" + strconv.Itoa(i+1)
		}
	}
	return describe.UniqueNames(named)
}

func stringSchema(name string, columns []string) *parquet.Schema {
	group := make(parquet.Group, len(columns))
	for _, col := range columns {
		group[col] = parquet.String()
	}
	return parquet.NewSchema(name, group)
}

// toRow maps a record onto the schema's leaf order. Short records are padded
// with empty strings and extra fields are dropped.
func toRow(record []string, order []int) parquet.Row {
	row := make(parquet.Row, len(order))
	for i, leaf := range order {
		var v string
		if i < len(record) {
			v = record[i]
		}
		row[leaf] = parquet.ByteArrayValue([]byte(v)).Level(0, 0, leaf)
	}
	return row
}
