package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestViewStore(t *testing.T) (*ViewStore, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewViewStore(dir)
	s.Now = func() time.Time { return fixedNow }
	return s, dir
}

func readRaw(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))
	return out
}

func TestViewWriteReadRoundTrip(t *testing.T) {
	s, dir := newTestViewStore(t)

	written, err := s.Write("census_industry.xlsx", ViewUpdate{
		Raw:       "2021_census_industry.xlsx",
		Preferred: types.RepresentationRaw,
		MetaFile:  "2021_census_industry.xlsx.yml",
		SHA256:    "abc123",
	})
	require.NoError(t, err)

	got, ok := s.Read("census_industry.xlsx")
	require.True(t, ok)
	assert.Equal(t, written, got)
	assert.Equal(t, "census_industry.xlsx", got.SemanticName)
	assert.Equal(t, "2025-01-01 12:00:00", got.Updated)

	raw := readRaw(t, filepath.Join(dir, "census_industry.xlsx.yml"))
	assert.NotContains(t, raw, "parquet", "empty fields are omitted, not written as placeholders")
	assert.Equal(t, "2021_census_industry.xlsx", raw["raw"])
	assert.Equal(t, "raw", raw["preferred"])
}

func TestViewWriteOmitsEmptyFields(t *testing.T) {
	s, dir := newTestViewStore(t)

	_, err := s.Write("a.csv", ViewUpdate{Raw: "2020_a.csv", Preferred: types.RepresentationRaw})
	require.NoError(t, err)

	raw := readRaw(t, filepath.Join(dir, "a.csv.yml"))
	for _, field := range []string{"parquet", "meta_file", "sha256"} {
		assert.NotContains(t, raw, field)
	}
	got, ok := s.Read("a.csv")
	require.True(t, ok)
	assert.Empty(t, got.Parquet)
	assert.Empty(t, got.MetaFile)
	assert.Empty(t, got.SHA256)
}

func TestViewWriteNormalizesPaths(t *testing.T) {
	s, _ := newTestViewStore(t)

	v, err := s.Write("a.csv", ViewUpdate{
		Raw:       "/abs/data_store/data_pond/2020_a.csv",
		Preferred: types.RepresentationParquet,
		Parquet:   "../data_parquet/2020_a.parquet",
		MetaFile:  "data_index/meta/2020_a.csv.yml",
	})
	require.NoError(t, err)
	assert.Equal(t, "2020_a.csv", v.Raw)
	assert.Equal(t, "2020_a.parquet", v.Parquet)
	assert.Equal(t, "2020_a.csv.yml", v.MetaFile)
}

func TestViewWriteRejectsUnknownRepresentation(t *testing.T) {
	s, _ := newTestViewStore(t)

	_, err := s.Write("a.csv", ViewUpdate{Raw: "2020_a.csv", Preferred: "feather"})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, ok := s.Read("a.csv")
	assert.False(t, ok, "nothing is written on rejection")
}

func TestViewWriteRequiresRaw(t *testing.T) {
	s, _ := newTestViewStore(t)

	_, err := s.Write("a.csv", ViewUpdate{Preferred: types.RepresentationRaw})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestViewMergeCarriesIdentityForward(t *testing.T) {
	s, _ := newTestViewStore(t)

	_, err := s.Write("a.csv", ViewUpdate{
		Raw:       "2020_a.csv",
		Preferred: types.RepresentationRaw,
		MetaFile:  "2020_a.csv.yml",
		SHA256:    "deadbeef",
	})
	require.NoError(t, err)

	v, err := s.Write("a.csv", ViewUpdate{
		Raw:       "2020_a.csv",
		Preferred: types.RepresentationParquet,
		Parquet:   "2020_a.parquet",
	})
	require.NoError(t, err)
	assert.Equal(t, types.RepresentationParquet, v.Preferred)
	assert.Equal(t, "2020_a.parquet", v.Parquet)
	assert.Equal(t, "2020_a.csv.yml", v.MetaFile)
	assert.Equal(t, "deadbeef", v.SHA256)

	got, ok := s.Read("a.csv")
	require.True(t, ok)
	assert.Equal(t, v, got)
}

func TestViewMergeWithoutRawKeepsPriorRaw(t *testing.T) {
	s, _ := newTestViewStore(t)

	_, err := s.Write("a.csv", ViewUpdate{Raw: "2020_a.csv", Preferred: types.RepresentationRaw, SHA256: "x"})
	require.NoError(t, err)

	v, err := s.Write("a.csv", ViewUpdate{Preferred: types.RepresentationParquet, Parquet: "2020_a.parquet"})
	require.NoError(t, err)
	assert.Equal(t, "2020_a.csv", v.Raw)
	assert.Equal(t, "x", v.SHA256)
}

func TestViewNewRawDropsStaleFields(t *testing.T) {
	s, _ := newTestViewStore(t)

	_, err := s.Write("a.csv", ViewUpdate{
		Raw:       "2020_a.csv",
		Preferred: types.RepresentationParquet,
		Parquet:   "2020_a.parquet",
		MetaFile:  "2020_a.csv.yml",
		SHA256:    "old",
	})
	require.NoError(t, err)

	v, err := s.Write("a.csv", ViewUpdate{
		Raw:       "2021_a.csv",
		Preferred: types.RepresentationRaw,
		MetaFile:  "2021_a.csv.yml",
		SHA256:    "new",
	})
	require.NoError(t, err)
	assert.Equal(t, "2021_a.csv", v.Raw)
	assert.Empty(t, v.Parquet, "derived file of the old raw version is not carried forward")
	assert.Equal(t, "new", v.SHA256)
}

func TestViewLoadErrors(t *testing.T) {
	s, dir := newTestViewStore(t)

	_, err := s.Load("missing.csv")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "noraw.csv.yml"), []byte("semantic_name: noraw.csv\npreferred: raw\n"), 0o644))
	_, err = s.Load("noraw.csv")
	assert.ErrorIs(t, err, types.ErrInvalidView)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.csv.yml"), []byte("- just\n- a list\n"), 0o644))
	_, err = s.Load("garbage.csv")
	assert.ErrorIs(t, err, types.ErrInvalidView)

	_, ok := s.Read("garbage.csv")
	assert.False(t, ok, "structurally invalid views read as absent")

	_, err = s.Load("")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestViewWriteFailsWhenPriorUnreadable(t *testing.T) {
	s, dir := newTestViewStore(t)

	// A directory where the record should be fails to read with an I/O error.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "locked.csv.yml"), 0o755))

	_, err := s.Write("locked.csv", ViewUpdate{Raw: "2021_locked.csv", Preferred: types.RepresentationRaw})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)

	info, err := os.Stat(filepath.Join(dir, "locked.csv.yml"))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "unreadable prior record is left untouched")
}

func TestViewWriteReplacesInvalidPrior(t *testing.T) {
	s, dir := newTestViewStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv.yml"), []byte("- not\n- a view\n"), 0o644))

	v, err := s.Write("broken.csv", ViewUpdate{Raw: "2021_broken.csv", Preferred: types.RepresentationRaw})
	require.NoError(t, err)
	assert.Equal(t, "2021_broken.csv", v.Raw)
}

func TestViewNames(t *testing.T) {
	s, _ := newTestViewStore(t)

	for _, name := range []string{"b.csv", "a.csv"} {
		_, err := s.Write(name, ViewUpdate{Raw: "2020_" + name, Preferred: types.RepresentationRaw})
		require.NoError(t, err)
	}
	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, names)
}
