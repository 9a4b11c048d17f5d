package ingest

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/datapond/internal/describe"
	"github.com/mesh-intelligence/datapond/internal/store"
	"github.com/mesh-intelligence/datapond/pkg/types"
)

type fixture struct {
	layout   types.Layout
	pipeline *Pipeline
	views    *store.ViewStore
	metas    *store.MetaStore
	logs     *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layout := types.NewLayout(t.TempDir())
	for _, d := range layout.Dirs() {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	d := describe.New(types.Config{Root: layout.Root})
	d.Now = tick
	views := store.NewViewStore(layout.Views)
	views.Now = tick
	metas := store.NewMetaStore(layout.Meta)
	logs := &bytes.Buffer{}

	return &fixture{
		layout: layout,
		pipeline: New(Config{
			Layout:    layout,
			Separator: "_",
			Describer: d,
			Views:     views,
			Metas:     metas,
			Logger:    slog.New(slog.NewTextHandler(logs, nil)),
		}),
		views: views,
		metas: metas,
		logs:  logs,
	}
}

func (f *fixture) drop(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.layout.Inbox, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) dropSpreadsheet(t *testing.T, name string, rows ...[]any) {
	t.Helper()
	x := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, x.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, x.SaveAs(filepath.Join(f.layout.Inbox, name)))
	require.NoError(t, x.Close())
}

func (f *fixture) dropZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(f.layout.Inbox, name)
	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for entry, content := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		if !strings.HasSuffix(entry, "/") {
			_, err = w.Write([]byte(content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return path
}

func TestIngestSingleFile(t *testing.T) {
	f := newFixture(t)
	src := f.drop(t, "RTRA3605542_agenaics.csv", "naics,count\n11,3\n")

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Ingested, 1)
	assert.Empty(t, report.Skipped)
	assert.NotEmpty(t, report.RunID)

	res := report.Ingested[0]
	assert.Equal(t, "RTRA3605542_agenaics.csv", res.Raw)
	assert.Equal(t, "agenaics.csv", res.SemanticName)
	assert.Nil(t, res.Provenance)

	assert.NoFileExists(t, src, "inbox is consumed")
	data, err := os.ReadFile(f.layout.PondPath("RTRA3605542_agenaics.csv"))
	require.NoError(t, err)
	assert.Equal(t, "naics,count\n11,3\n", string(data), "bytes are unchanged")

	meta, err := f.metas.Load("RTRA3605542_agenaics.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"naics", "count"}, meta.ColNames)
	assert.Equal(t, res.SHA256, meta.SHA256)

	view, err := f.views.Load("agenaics.csv")
	require.NoError(t, err)
	assert.Equal(t, types.RepresentationRaw, view.Preferred)
	assert.Equal(t, "RTRA3605542_agenaics.csv", view.Raw)
	assert.Equal(t, "RTRA3605542_agenaics.csv.yml", view.MetaFile)
	assert.Equal(t, meta.SHA256, view.SHA256)
}

func TestIngestSecondVersionRepointsView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dropSpreadsheet(t, "2021_census_industry.xlsx", []any{"code", "label"}, []any{11, "Farming"})
	_, err := f.pipeline.IngestInbox(ctx)
	require.NoError(t, err)

	f.dropSpreadsheet(t, "2021v2_census_industry.xlsx", []any{"code", "label"}, []any{11, "Agriculture"})
	_, err = f.pipeline.IngestInbox(ctx)
	require.NoError(t, err)

	assert.FileExists(t, f.layout.PondPath("2021_census_industry.xlsx"))
	assert.FileExists(t, f.layout.PondPath("2021v2_census_industry.xlsx"))

	view, err := f.views.Load("census_industry.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "2021v2_census_industry.xlsx", view.Raw)
	assert.Equal(t, "2021v2_census_industry.xlsx.yml", view.MetaFile)

	first, err := f.metas.Load("2021_census_industry.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"integer", "string"}, first.ColTypes)
}

func TestIngestArchive(t *testing.T) {
	f := newFixture(t)
	archive := f.dropZip(t, "statcan_12345_20250101_120000.zip", map[string]string{
		"data.csv":         "a,b\n1,2\n",
		"tables/":          "",
		"tables/extra.tsv": "x\ty\n",
		"docs/readme.pdf":  "%PDF",
	})

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Ingested, 2)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0].File, "readme.pdf")
	assert.ErrorIs(t, report.Skipped[0].Err(), types.ErrUnsupportedType)

	assert.FileExists(t, archive, "archive with a skipped member stays in the inbox")
	assert.NoFileExists(t, f.layout.PondPath("statcan_12345_20250101_120000_readme.pdf"))
	assert.FileExists(t, f.layout.PondPath("statcan_12345_20250101_120000_data.csv"))
	assert.FileExists(t, f.layout.PondPath("statcan_12345_20250101_120000_extra.tsv"))

	meta, err := f.metas.Load("statcan_12345_20250101_120000_data.csv")
	require.NoError(t, err)
	require.NotNil(t, meta.Provenance)
	assert.Equal(t, "statcan_12345_20250101_120000.zip", meta.Provenance.SourceArchive)
	assert.Equal(t, "data.csv", meta.Provenance.OriginalFile)

	extra, err := f.metas.Load("statcan_12345_20250101_120000_extra.tsv")
	require.NoError(t, err)
	assert.Equal(t, "tables/extra.tsv", extra.Provenance.OriginalFile)
	assert.Equal(t, []string{"x", "y"}, extra.ColNames)

	view, err := f.views.Load("12345_20250101_120000_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "statcan_12345_20250101_120000_data.csv", view.Raw)

	entries, err := os.ReadDir(f.layout.Scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch area is cleaned up")
}

func TestIngestArchiveTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entries := map[string]string{"data.csv": "a,b\n1,2\n"}

	f.dropZip(t, "bundle.zip", entries)
	first, err := f.pipeline.IngestInbox(ctx)
	require.NoError(t, err)

	f.dropZip(t, "bundle.zip", entries)
	second, err := f.pipeline.IngestInbox(ctx)
	require.NoError(t, err)

	require.Len(t, second.Ingested, 1)
	assert.Equal(t, first.Ingested[0].SHA256, second.Ingested[0].SHA256)
	assert.NoFileExists(t, filepath.Join(f.layout.Inbox, "bundle.zip"), "fully ingested archive is removed")

	meta, err := f.metas.Load("bundle_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01 00:00:01", meta.Created, "identical re-extraction keeps the original record")
}

func TestIngestArchiveKeepsMembersWithClashingNames(t *testing.T) {
	f := newFixture(t)
	archive := f.dropZip(t, "bundle_2025.zip", map[string]string{
		"data.csv":     "a,b\n1,2\n",
		"sub/data.csv": "c,d\n3,4\n",
		"codebook.pdf": "%PDF",
	})

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Ingested, 1)
	require.Len(t, report.Skipped, 2)

	var clash, unsupported int
	for _, s := range report.Skipped {
		switch {
		case strings.Contains(s.File, "data.csv"):
			assert.ErrorIs(t, s.Err(), types.ErrPondEntryExists)
			clash++
		case strings.Contains(s.File, "codebook.pdf"):
			assert.ErrorIs(t, s.Err(), types.ErrUnsupportedType)
			unsupported++
		}
	}
	assert.Equal(t, 1, clash)
	assert.Equal(t, 1, unsupported)

	assert.FileExists(t, archive, "skipped members remain recoverable from the archive")
	assert.Contains(t, f.logs.String(), "archive left in inbox")

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 3)

	again, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, again.Ingested, 1)
	assert.Equal(t, report.Ingested[0].SHA256, again.Ingested[0].SHA256, "re-running keeps the same pond content")
}

func TestIngestCorruptArchiveIsFatal(t *testing.T) {
	f := newFixture(t)
	archive := f.drop(t, "broken_bundle.zip", "this is not a zip")
	f.drop(t, "2020_later.csv", "a\n")

	report, err := f.pipeline.IngestInbox(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.Contains(t, err.Error(), "broken_bundle.zip")
	assert.NotNil(t, report)
	assert.FileExists(t, archive, "failed archive stays in the inbox")
}

func TestIngestArchiveRejectsEscapingEntry(t *testing.T) {
	f := newFixture(t)
	f.dropZip(t, "evil.zip", map[string]string{"../../outside.csv": "a\n"})

	_, err := f.pipeline.IngestInbox(context.Background())
	assert.ErrorIs(t, err, types.ErrIO)
	assert.NoFileExists(t, filepath.Join(f.layout.Root, "data_store", "outside.csv"))
}

func TestIngestDirectoryContinuesPastSkips(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "2020_a.csv", "a\n1\n")
	f.drop(t, "2020_b.csv", "b\n2\n")
	f.drop(t, "2020_c.tsv", "c\n3\n")
	f.drop(t, "2020_d.txt", "d\n4\n")
	unsupported := f.drop(t, "2020_e.pdf", "%PDF")

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Ingested, 4)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "2020_e.pdf", report.Skipped[0].File)
	assert.Equal(t, 1, strings.Count(f.logs.String(), "level=WARN"))
	assert.FileExists(t, unsupported, "unsupported files are left in place")
}

func TestIngestSkipsNameWithoutSeparator(t *testing.T) {
	f := newFixture(t)
	src := f.drop(t, "plain.csv", "a\n")

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err(), types.ErrNoSeparator)
	assert.FileExists(t, src)
	assert.NoFileExists(t, f.layout.PondPath("plain.csv"))
}

func TestIngestRecoversAlreadyRelocatedFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.layout.PondPath("2020_a.csv"), []byte("a\n1\n"), 0o644))
	src := f.drop(t, "2020_a.csv", "a\n1\n")

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Ingested, 1)
	assert.NoFileExists(t, src)

	_, err = f.views.Load("a.csv")
	assert.NoError(t, err)
}

func TestIngestRefusesToOverwritePondEntry(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.layout.PondPath("2020_a.csv"), []byte("original\n"), 0o644))
	src := f.drop(t, "2020_a.csv", "different\n")

	report, err := f.pipeline.IngestInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err(), types.ErrPondEntryExists)
	assert.FileExists(t, src)

	data, err := os.ReadFile(f.layout.PondPath("2020_a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))
}

func TestIngestPathsHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	src := f.drop(t, "2020_a.csv", "a\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.IngestPaths(ctx, []string{src})
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, src)
}

func TestCopyFileReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	dst := filepath.Join(dir, "dst.csv")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o444))

	require.NoError(t, copyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	dst := filepath.Join(dir, "sub", "dst.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, moveFile(src, dst))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}
