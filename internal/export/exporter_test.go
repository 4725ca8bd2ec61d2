package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/records"
)

type fakePDF struct {
	failOn   string
	mergeErr error
	calls    atomic.Int32
}

func (f *fakePDF) SVGToPDF(ctx context.Context, svg string) ([]byte, error) {
	f.calls.Add(1)
	if f.failOn != "" && strings.Contains(svg, f.failOn) {
		return nil, errors.New("converter rejected document")
	}
	return []byte("%PDF-" + svg), nil
}

func (f *fakePDF) Merge(ctx context.Context, pdfs [][]byte) ([]byte, error) {
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	return bytes.Join(pdfs, []byte("\n")), nil
}

type fakeRaster struct{}

func (fakeRaster) PNG(svg string, scale float64) ([]byte, error) {
	return []byte("PNG"), nil
}

const labelTemplate = `<svg width="200" height="100"><text x="10" y="10">{{name}}</text><text x="5" y="5">{{sku}}</text></svg>`

func labelMapping() mapping.Mapping {
	return mapping.Mapping{
		"name": mapping.TextEntry("name"),
		"sku":  mapping.BarcodeEntry("sku", 10),
	}
}

func mustTemplate(t *testing.T, raw string) *processor.Document {
	t.Helper()
	doc, err := processor.Sanitize([]byte(raw))
	require.NoError(t, err)
	return doc
}

func table(rows ...records.Record) *records.Table {
	return &records.Table{Columns: []string{"name", "sku"}, Rows: rows}
}

func fileNames(files []Artifact) []string {
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

func TestRunIsolatesInvalidBarcode(t *testing.T) {
	exp := NewExporter(processor.NewBinder(300), nil, fakeRaster{})
	rows := table(
		records.Record{"name": "A", "sku": "bad"},
		records.Record{"name": "B", "sku": "4006381333931"},
	)

	res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), rows,
		Options{Formats: []Format{FormatSVG}, NameField: "name"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Report.Exported)
	assert.Equal(t, 0, res.Report.Failed)
	require.Equal(t, []string{"A.svg", "B.svg"}, fileNames(res.Files))
	assert.Contains(t, string(res.Files[0].Data), "[barcode svg error")
	assert.NotContains(t, string(res.Files[1].Data), "barcode svg error")
	assert.Contains(t, string(res.Files[1].Data), `<g transform="translate(5,5) scale(`)

	require.Len(t, res.Report.Issues, 1)
	assert.Equal(t, 1, res.Report.Issues[0].Row)
	assert.False(t, res.Report.Issues[0].Fatal)
}

func TestRunSkipsFailedRecords(t *testing.T) {
	pdf := &fakePDF{failOn: "FAIL"}
	exp := NewExporter(processor.NewBinder(300), pdf, fakeRaster{})
	rows := table(
		records.Record{"name": "FAIL", "sku": "4006381333931"},
		records.Record{"name": "ok", "sku": "4006381333931"},
	)

	res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), rows,
		Options{Formats: []Format{FormatPDF, FormatPNG}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Report.Failed)
	assert.Equal(t, 1, res.Report.Exported)
	assert.Equal(t, []string{"record_002.png", "record_002.pdf"}, fileNames(res.Files))
	require.Len(t, res.Report.Issues, 1)
	assert.True(t, res.Report.Issues[0].Fatal)
	assert.Equal(t, "record_001", res.Report.Issues[0].Name)
}

func TestRunSkipsRowsWithoutMappedValues(t *testing.T) {
	exp := NewExporter(processor.NewBinder(300), nil, fakeRaster{})
	rows := table(
		records.Record{},
		records.Record{"name": "  ", "other": "x"},
		records.Record{"name": "C"},
	)

	res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), rows, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Report.Total)
	assert.Equal(t, 2, res.Report.Skipped)
	assert.Equal(t, []string{"record_003.svg"}, fileNames(res.Files))
}

func TestRunFallbackNamesFollowTableRows(t *testing.T) {
	pdf := &fakePDF{failOn: "FAIL"}
	exp := NewExporter(processor.NewBinder(300), pdf, fakeRaster{})
	rows := table(
		records.Record{"name": ""},
		records.Record{"name": "FAIL"},
		records.Record{"name": "ok"},
	)

	res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), rows,
		Options{Formats: []Format{FormatPDF}})
	require.NoError(t, err)

	assert.Equal(t, []string{"record_003.pdf"}, fileNames(res.Files))
	require.Len(t, res.Report.Issues, 1)
	assert.Equal(t, 2, res.Report.Issues[0].Row)
	assert.Equal(t, "record_002", res.Report.Issues[0].Name)
}

func TestRunCombined(t *testing.T) {
	rows := table(
		records.Record{"name": "A"},
		records.Record{"name": "B"},
	)

	t.Run("merged", func(t *testing.T) {
		exp := NewExporter(processor.NewBinder(300), &fakePDF{}, fakeRaster{})
		res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), rows,
			Options{Mode: ModeCombined, Formats: []Format{FormatPDF}})
		require.NoError(t, err)
		assert.True(t, res.Report.Merged)
		assert.Equal(t, []string{CombinedPDFName}, fileNames(res.Files))
	})

	t.Run("merge failure falls back to pages", func(t *testing.T) {
		exp := NewExporter(processor.NewBinder(300), &fakePDF{mergeErr: errors.New("boom")}, fakeRaster{})
		res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), rows,
			Options{Mode: ModeCombined, Formats: []Format{FormatPDF}})
		require.NoError(t, err)
		assert.False(t, res.Report.Merged)
		assert.Equal(t, []string{"page_001.pdf", "page_002.pdf"}, fileNames(res.Files))
		assert.Equal(t, 2, res.Report.Exported)
	})
}

func TestRunRequiresConverterForPDF(t *testing.T) {
	exp := NewExporter(processor.NewBinder(300), nil, nil)
	_, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), table(),
		Options{Formats: []Format{FormatPDF}})
	assert.ErrorIs(t, err, ErrNoPDFConverter)
}

func TestRunKeepsTableOrder(t *testing.T) {
	var rows []records.Record
	var want []string
	for i := 1; i <= 50; i++ {
		rows = append(rows, records.Record{"name": fmt.Sprintf("n%02d", i)})
		want = append(want, fmt.Sprintf("n%02d.svg", i))
	}
	exp := NewExporter(processor.NewBinder(300), nil, fakeRaster{})

	res, err := exp.Run(context.Background(), mustTemplate(t, labelTemplate), labelMapping(), table(rows...),
		Options{NameField: "name", Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, want, fileNames(res.Files))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exp := NewExporter(processor.NewBinder(300), nil, fakeRaster{})

	_, err := exp.Run(ctx, mustTemplate(t, labelTemplate), labelMapping(), table(records.Record{"name": "A"}), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreviewRecordPrefersMappedValues(t *testing.T) {
	rows := []records.Record{
		{"name": " ", "other": "x"},
		{"sku": "4006381333931"},
		{"name": "C"},
	}

	assert.Equal(t, rows[1], PreviewRecord(labelMapping(), rows, 0))
	assert.Equal(t, rows[2], PreviewRecord(labelMapping(), rows, 3))
	assert.Equal(t, rows[0], PreviewRecord(labelMapping(), rows[:1], 0))
	assert.Empty(t, PreviewRecord(labelMapping(), nil, 0))
}

func TestRecordNames(t *testing.T) {
	assert.Equal(t, "ACME_Corp_1", SafeName("ACME Corp/1"))
	assert.Equal(t, "a.b-c_d", SafeName("a.b-c_d"))

	rec := records.Record{"company": "ACME Corp", "blank": " "}
	assert.Equal(t, "ACME_Corp", recordName(rec, "company", 4))
	assert.Equal(t, "record_004", recordName(rec, "blank", 4))
	assert.Equal(t, "record_012", recordName(rec, "", 12))

	names := uniqueNamer{}
	assert.Equal(t, "x", names.next("x"))
	assert.Equal(t, "x_2", names.next("x"))
	assert.Equal(t, "y", names.next("y"))
}

func TestParseOptions(t *testing.T) {
	formats, err := ParseFormats("PNG, svg,png")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatPNG, FormatSVG}, formats)

	formats, err = ParseFormats("")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatSVG}, formats)

	_, err = ParseFormats("svg,gif")
	assert.Error(t, err)

	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePerRecord, mode)
	mode, err = ParseMode("Combined")
	require.NoError(t, err)
	assert.Equal(t, ModeCombined, mode)
	_, err = ParseMode("zip")
	assert.Error(t, err)
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	files := []Artifact{{Name: "a.svg", Data: []byte("<svg/>")}, {Name: "b.png", Data: []byte("PNG")}}
	require.NoError(t, WriteZip(&buf, files))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.svg", zr.File[0].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "PNG", string(data))
}
