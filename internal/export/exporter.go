package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/records"
)

const (
	DefaultWorkers  = 4
	CombinedPDFName = "combined.pdf"
)

var ErrNoPDFConverter = errors.New("pdf output requested but no pdf converter is configured")

// Issue is a per-record problem. Fatal issues mean the record produced no
// artifacts.
type Issue struct {
	Row     int    `json:"row"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Report summarizes a batch run.
type Report struct {
	Total    int     `json:"total"`
	Exported int     `json:"exported"`
	Skipped  int     `json:"skipped"`
	Failed   int     `json:"failed"`
	Merged   bool    `json:"merged"`
	Files    int     `json:"files"`
	Issues   []Issue `json:"issues,omitempty"`
}

// Result is the report plus the files to bundle, in output order.
type Result struct {
	Report Report
	Files  []Artifact
}

type job struct {
	row    int // 1-based position in the table
	name   string
	record records.Record
}

type recordOutput struct {
	files  []Artifact
	pdf    []byte
	issues []Issue
	err    error
}

// Exporter binds and renders records concurrently. Record order in the
// output always follows the table.
type Exporter struct {
	binder *processor.Binder
	pdf    PDFConverter
	raster Rasterizer
}

// NewExporter builds an exporter. pdf may be nil when no PDF output is
// needed; a nil raster uses SVGRasterizer.
func NewExporter(binder *processor.Binder, pdf PDFConverter, raster Rasterizer) *Exporter {
	if raster == nil {
		raster = NewSVGRasterizer()
	}
	return &Exporter{binder: binder, pdf: pdf, raster: raster}
}

// Run exports every record that has a value for at least one mapped
// column. A failing record is reported and left out; it never stops the
// batch. Run only returns an error for invalid options or a cancelled ctx.
func (e *Exporter) Run(ctx context.Context, tpl *processor.Document, m mapping.Mapping, table *records.Table, opts Options) (*Result, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []Format{FormatSVG}
	}
	if opts.Mode == "" {
		opts.Mode = ModePerRecord
	}
	if opts.needsPDF() && e.pdf == nil {
		return nil, ErrNoPDFConverter
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	res := &Result{}
	res.Report.Total = len(table.Rows)

	jobs := selectRecords(m, table, opts.NameField)
	res.Report.Skipped = res.Report.Total - len(jobs)
	log.Printf("[INFO] export: %d of %d records selected, mode=%s formats=%v", len(jobs), res.Report.Total, opts.Mode, opts.Formats)

	outputs := make([]recordOutput, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outputs[i] = e.renderRecord(gctx, tpl, m, jobs[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export cancelled: %w", err)
	}

	var pdfs [][]byte
	for i, out := range outputs {
		res.Report.Issues = append(res.Report.Issues, out.issues...)
		if out.err != nil {
			res.Report.Failed++
			log.Printf("[WARN] export: record %d (%s) failed: %v", jobs[i].row, jobs[i].name, out.err)
			res.Report.Issues = append(res.Report.Issues, Issue{
				Row: jobs[i].row, Name: jobs[i].name, Message: out.err.Error(), Fatal: true,
			})
			continue
		}
		res.Report.Exported++
		res.Files = append(res.Files, out.files...)
		if out.pdf != nil {
			pdfs = append(pdfs, out.pdf)
		}
	}

	if opts.Mode == ModeCombined && len(pdfs) > 0 {
		res.Files = append(res.Files, e.combine(ctx, pdfs, &res.Report)...)
	}
	res.Report.Files = len(res.Files)
	return res, nil
}

// selectRecords keeps rows with at least one non-blank mapped column and
// assigns each a unique file stem. Fallback names follow the table row so
// they agree with the rows in the report.
func selectRecords(m mapping.Mapping, table *records.Table, nameField string) []job {
	cols := m.Columns()
	names := uniqueNamer{}
	var jobs []job
	for i, rec := range table.Rows {
		if !hasMappedValue(rec, cols) {
			continue
		}
		jobs = append(jobs, job{
			row:    i + 1,
			name:   names.next(recordName(rec, nameField, i+1)),
			record: rec,
		})
	}
	return jobs
}

// PreviewRecord picks the record a preview binds: rows[row-1] for a 1-based
// row, or with row 0 the first row holding a value in a mapped column. An
// empty table previews an empty record.
func PreviewRecord(m mapping.Mapping, rows []records.Record, row int) records.Record {
	if row > 0 && row <= len(rows) {
		return rows[row-1]
	}
	if len(rows) == 0 {
		return records.Record{}
	}
	cols := m.Columns()
	for _, rec := range rows {
		if hasMappedValue(rec, cols) {
			return rec
		}
	}
	return rows[0]
}

func hasMappedValue(rec records.Record, cols []string) bool {
	for _, col := range cols {
		if strings.TrimSpace(rec.Get(col)) != "" {
			return true
		}
	}
	return false
}

func (e *Exporter) renderRecord(ctx context.Context, tpl *processor.Document, m mapping.Mapping, j job, opts Options) recordOutput {
	var out recordOutput

	bound := e.binder.Bind(tpl, m, j.record)
	for _, fb := range bound.Fallbacks {
		out.issues = append(out.issues, Issue{
			Row: j.row, Name: j.name,
			Message: fmt.Sprintf("placeholder %s: %v", fb.Placeholder, fb.Err),
		})
	}

	bound.EnsureSize()
	svg, err := bound.String()
	if err != nil {
		out.err = fmt.Errorf("failed to serialize: %w", err)
		return out
	}

	perRecord := opts.Mode == ModePerRecord
	if opts.has(FormatSVG) {
		out.files = append(out.files, Artifact{Name: j.name + ".svg", Data: []byte(svg)})
	}
	if opts.has(FormatPNG) {
		png, err := e.raster.PNG(svg, 1)
		if err != nil {
			out.err = fmt.Errorf("failed to rasterize: %w", err)
			return out
		}
		out.files = append(out.files, Artifact{Name: j.name + ".png", Data: png})
	}
	if opts.needsPDF() {
		pdf, err := e.pdf.SVGToPDF(ctx, svg)
		if err != nil {
			out.err = fmt.Errorf("failed to convert to pdf: %w", err)
			return out
		}
		if perRecord {
			out.files = append(out.files, Artifact{Name: j.name + ".pdf", Data: pdf})
		} else {
			out.pdf = pdf
		}
	}
	return out
}

// combine merges pdfs into one document, or returns them as numbered
// pages when the merge fails.
func (e *Exporter) combine(ctx context.Context, pdfs [][]byte, report *Report) []Artifact {
	merged, err := e.pdf.Merge(ctx, pdfs)
	if err == nil {
		report.Merged = true
		return []Artifact{{Name: CombinedPDFName, Data: merged}}
	}

	log.Printf("[WARN] export: merging %d pdfs failed, bundling pages instead: %v", len(pdfs), err)
	report.Issues = append(report.Issues, Issue{Message: fmt.Sprintf("merge failed: %v", err)})
	pages := make([]Artifact, 0, len(pdfs))
	for i, pdf := range pdfs {
		pages = append(pages, Artifact{Name: fmt.Sprintf("page_%03d.pdf", i+1), Data: pdf})
	}
	return pages
}
