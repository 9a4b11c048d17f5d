package derive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

type recordingConverter struct {
	calls int
	err   error
}

func (c *recordingConverter) Convert(_ context.Context, src, dst string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return os.WriteFile(dst, []byte("PAR1"), 0o644)
}

type fixture struct {
	layout  types.Layout
	views   *store.ViewStore
	conv    *recordingConverter
	updater *Updater
}

func newFixture(t *testing.T, minBytes int64) *fixture {
	t.Helper()
	layout := types.NewLayout(t.TempDir())
	for _, d := range layout.Dirs() {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	views := store.NewViewStore(layout.Views)
	conv := &recordingConverter{}
	return &fixture{
		layout: layout,
		views:  views,
		conv:   conv,
		updater: New(Config{
			Layout:    layout,
			Views:     views,
			Converter: conv,
			MinBytes:  minBytes,
			Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		}),
	}
}

func (f *fixture) ingested(t *testing.T, raw, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.layout.PondPath(raw), []byte(content), 0o644))
	_, err := f.views.Write("census.csv", store.ViewUpdate{
		Raw:       raw,
		Preferred: types.RepresentationRaw,
		MetaFile:  store.FileName(raw),
		SHA256:    "abc123",
	})
	require.NoError(t, err)
}

func TestConvertUpdatesViewAndKeepsIdentity(t *testing.T) {
	f := newFixture(t, 4)
	f.ingested(t, "2021_census.csv", "a,b\n1,2\n")

	out, err := f.updater.Convert(context.Background(), "census.csv", false)
	require.NoError(t, err)
	assert.True(t, out.Converted)
	assert.Equal(t, "2021_census.parquet", out.Parquet)
	assert.Equal(t, 1, f.conv.calls)
	assert.FileExists(t, f.layout.DerivedPath("2021_census.parquet"))

	v, err := f.views.Load("census.csv")
	require.NoError(t, err)
	assert.Equal(t, types.RepresentationParquet, v.Preferred)
	assert.Equal(t, "2021_census.parquet", v.Parquet)
	assert.Equal(t, "2021_census.csv", v.Raw)
	assert.Equal(t, "2021_census.csv.yml", v.MetaFile)
	assert.Equal(t, "abc123", v.SHA256)

	entries, err := os.ReadDir(f.layout.Derived)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files remain")
}

func TestConvertEligibility(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		preexist   bool
		force      bool
		wantCalls  int
		wantReason string
	}{
		{name: "below threshold", content: "a\n", wantReason: ReasonBelowThreshold},
		{name: "at threshold", content: "a,b\n1\n", wantReason: ReasonBelowThreshold},
		{name: "already derived", content: "a,b\n1,2\n", preexist: true, wantReason: ReasonDerivedExists},
		{name: "forced small file", content: "a\n", force: true, wantCalls: 1},
		{name: "forced over existing", content: "a,b\n1,2\n", preexist: true, force: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 6)
			f.ingested(t, "2021_census.csv", tt.content)
			if tt.preexist {
				require.NoError(t, os.WriteFile(f.layout.DerivedPath("2021_census.parquet"), []byte("old"), 0o644))
			}

			out, err := f.updater.Convert(context.Background(), "census.csv", tt.force)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, f.conv.calls)
			assert.Equal(t, tt.wantReason, out.Reason)
			assert.Equal(t, tt.wantCalls == 1, out.Converted)

			v, err := f.views.Load("census.csv")
			require.NoError(t, err)
			if out.Converted {
				assert.Equal(t, types.RepresentationParquet, v.Preferred)
			} else {
				assert.Equal(t, types.RepresentationRaw, v.Preferred)
			}
		})
	}
}

func TestConvertFailureLeavesViewAlone(t *testing.T) {
	f := newFixture(t, 0)
	f.ingested(t, "2021_census.csv", "a\n1\n")
	f.conv.err = errors.New("boom")

	_, err := f.updater.Convert(context.Background(), "census.csv", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "census.csv")
	assert.NoFileExists(t, f.layout.DerivedPath("2021_census.parquet"))

	v, err := f.views.Load("census.csv")
	require.NoError(t, err)
	assert.Equal(t, types.RepresentationRaw, v.Preferred)
	assert.Empty(t, v.Parquet)

	entries, err := os.ReadDir(f.layout.Derived)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertErrors(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.updater.Convert(context.Background(), "nothing.csv", false)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.views.Write("stale.csv", store.ViewUpdate{Raw: "2019_stale.csv", Preferred: types.RepresentationRaw})
	require.NoError(t, err)
	_, err = f.updater.Convert(context.Background(), "stale.csv", true)
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestConvertWithParquetConverter(t *testing.T) {
	layout := types.NewLayout(t.TempDir())
	for _, d := range layout.Dirs() {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	views := store.NewViewStore(layout.Views)
	require.NoError(t, os.WriteFile(layout.PondPath("2021_census.csv"), []byte("a,b\n1,2\n3,4\n"), 0o644))
	_, err := views.Write("census.csv", store.ViewUpdate{Raw: "2021_census.csv", Preferred: types.RepresentationRaw})
	require.NoError(t, err)

	u := New(Config{Layout: layout, Views: views, ChunkRows: 1})
	out, err := u.Convert(context.Background(), "census.csv", true)
	require.NoError(t, err)
	require.True(t, out.Converted)

	_, rows := readParquet(t, layout.DerivedPath("2021_census.parquet"))
	assert.Equal(t, []map[string]string{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}}, rows)
}

func TestRegister(t *testing.T) {
	f := newFixture(t, 0)
	f.ingested(t, "2021_census.csv", "a\n")

	_, err := f.updater.Register("census.csv", "", "2021_census.parquet")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, os.WriteFile(f.layout.DerivedPath("2021_census.parquet"), []byte("PAR1"), 0o644))
	v, err := f.updater.Register("census.csv", "", "/elsewhere/2021_census.parquet")
	require.NoError(t, err)
	assert.Equal(t, types.RepresentationParquet, v.Preferred)
	assert.Equal(t, "2021_census.parquet", v.Parquet)
	assert.Equal(t, "2021_census.csv", v.Raw)
	assert.Equal(t, "abc123", v.SHA256)
	assert.Equal(t, "2021_census.csv.yml", v.MetaFile)

	_, err = f.updater.Register("census.csv", "", "")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
