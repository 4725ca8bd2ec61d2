// Package export turns a template, a mapping and a table of records into
// per-record artifacts and bundles them.
package export

import (
	"context"
	"fmt"
	"strings"
)

type Mode string

const (
	// ModePerRecord writes every requested format for each record.
	ModePerRecord Mode = "per_record"
	// ModeCombined merges the per-record PDFs into combined.pdf.
	ModeCombined Mode = "combined"
)

type Format string

const (
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// PDFConverter renders SVG markup to PDF and merges PDFs into one.
type PDFConverter interface {
	SVGToPDF(ctx context.Context, svg string) ([]byte, error)
	Merge(ctx context.Context, pdfs [][]byte) ([]byte, error)
}

// Rasterizer renders SVG markup to PNG at the given scale.
type Rasterizer interface {
	PNG(svg string, scale float64) ([]byte, error)
}

// Options select what a batch run produces.
type Options struct {
	Mode      Mode
	Formats   []Format
	NameField string
	Workers   int
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(s))) {
	case "", ModePerRecord:
		return ModePerRecord, nil
	case ModeCombined:
		return ModeCombined, nil
	default:
		return "", fmt.Errorf("unknown export mode %q", s)
	}
}

// ParseFormats reads a comma separated format list. An empty list means svg.
func ParseFormats(s string) ([]Format, error) {
	seen := make(map[Format]bool)
	var formats []Format
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.TrimSpace(strings.ToLower(part)))
		if f == "" {
			continue
		}
		switch f {
		case FormatSVG, FormatPDF, FormatPNG:
		default:
			return nil, fmt.Errorf("unknown export format %q", part)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		formats = []Format{FormatSVG}
	}
	return formats, nil
}

func (o Options) has(f Format) bool {
	for _, x := range o.Formats {
		if x == f {
			return true
		}
	}
	return false
}

// needsPDF reports whether each record must be converted to PDF.
func (o Options) needsPDF() bool {
	return o.Mode == ModeCombined || o.has(FormatPDF)
}
