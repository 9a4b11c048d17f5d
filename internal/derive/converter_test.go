package derive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// readParquet returns the column names in file order and every row keyed
// by column name.
func readParquet(t *testing.T, path string) ([]string, []map[string]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := parquet.NewReader(f)
	defer r.Close()

	var cols []string
	for _, p := range r.Schema().Columns() {
		cols = append(cols, p[0])
	}

	rows := make([]parquet.Row, r.NumRows())
	n, err := r.ReadRows(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	require.EqualValues(t, r.NumRows(), n)

	out := make([]map[string]string, 0, n)
	for _, row := range rows[:n] {
		m := make(map[string]string, len(row))
		for _, v := range row {
			m[cols[v.Column()]] = string(v.ByteArray())
		}
		out = append(out, m)
	}
	return cols, out
}

func TestParquetConverter(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCols []string
		wantRows []map[string]string
	}{
		{
			name:     "csv with bom and ragged rows",
			file:     "2021_census.csv",
			content:  "\xEF\xBB\xBFcode,label\n11,Farming\n21\n31,Mfg,extra\n",
			wantCols: []string{"code", "label"},
			wantRows: []map[string]string{
				{"code": "11", "label": "Farming"},
				{"code": "21", "label": ""},
				{"code": "31", "label": "Mfg"},
			},
		},
		{
			name:     "tsv with blank and duplicate headers",
			file:     "2021_census.tsv",
			content:  "a\t\ta\n1\t2\t3\n",
			wantCols: []string{"a", "a_2", "column_2"},
			wantRows: []map[string]string{
				{"a": "1", "column_2": "2", "a_2": "3"},
			},
		},
		{
			name:     "header only",
			file:     "2021_empty.csv",
			content:  "x,y\n",
			wantCols: []string{"x", "y"},
			wantRows: []map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, tt.file)
			dst := filepath.Join(dir, "out.parquet")
			require.NoError(t, os.WriteFile(src, []byte(tt.content), 0o644))

			err := ParquetConverter{ChunkRows: 1}.Convert(context.Background(), src, dst)
			require.NoError(t, err)

			cols, rows := readParquet(t, dst)
			assert.ElementsMatch(t, tt.wantCols, cols)
			assert.Equal(t, tt.wantRows, rows)
		})
	}
}

func TestParquetConverterRejects(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	xlsx := filepath.Join(dir, "2021_book.xlsx")
	require.NoError(t, os.WriteFile(xlsx, []byte("PK"), 0o644))
	err := ParquetConverter{}.Convert(ctx, xlsx, filepath.Join(dir, "a.parquet"))
	assert.ErrorIs(t, err, types.ErrUnsupportedType)

	empty := filepath.Join(dir, "2021_empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	err = ParquetConverter{}.Convert(ctx, empty, filepath.Join(dir, "b.parquet"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	err = ParquetConverter{}.Convert(ctx, filepath.Join(dir, "2021_missing.csv"), filepath.Join(dir, "c.parquet"))
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestParquetConverterCancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2021_rows.csv")
	require.NoError(t, os.WriteFile(src, []byte("a\n1\n2\n3\n"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ParquetConverter{ChunkRows: 1}.Convert(ctx, src, filepath.Join(dir, "out.parquet"))
	assert.ErrorIs(t, err, context.Canceled)
}
