package processor

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"VDP-SVG/internal/barcode"
	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/records"
)

const lineHeight = "1em"

// Fallback records a barcode placeholder that could not be rendered and
// was replaced by an error marker.
type Fallback struct {
	Placeholder string
	Value       string
	Err         error
}

// BoundDocument is a template copy with one record applied.
type BoundDocument struct {
	*Document
	Fallbacks []Fallback
}

// Binder applies records to sanitized templates. A Binder holds no
// per-record state and may be shared between goroutines.
type Binder struct {
	DPI     int
	Barcode barcode.SVGOptions
}

func NewBinder(dpi int) *Binder {
	if dpi <= 0 {
		dpi = barcode.DefaultDPI
	}
	return &Binder{DPI: dpi, Barcode: barcode.DefaultSVGOptions()}
}

// Bind returns a copy of tpl with the placeholders in every <text> element
// replaced by record values. tpl itself is never modified.
//
// A text element whose content holds exactly one placeholder mapped as a
// barcode is replaced by a <g> holding the barcode drawing, anchored at the
// element's x/y and scaled to the configured height. Any other text element
// gets its placeholders substituted, one line per <tspan>, and the entry's
// alignment and offset applied.
func (b *Binder) Bind(tpl *Document, m mapping.Mapping, rec records.Record) *BoundDocument {
	doc := tpl.Clone()
	bound := &BoundDocument{Document: doc}

	var texts []*etree.Element
	walk(doc.Root(), func(el *etree.Element) {
		if el.Tag == "text" {
			texts = append(texts, el)
		}
	})

	for _, el := range texts {
		content := textContent(el)
		tokens := tokensIn(content)
		if len(tokens) == 0 {
			continue
		}

		if len(tokens) == 1 {
			if entry := m.Lookup(tokens[0]); entry.IsBarcode() {
				if fb := b.bindBarcode(doc, el, tokens[0], entry, rec); fb != nil {
					bound.Fallbacks = append(bound.Fallbacks, *fb)
				}
				continue
			}
		}
		b.bindText(el, content, tokens[0], m, rec)
	}
	return bound
}

func (b *Binder) bindBarcode(doc *Document, el *etree.Element, placeholder string, entry mapping.Entry, rec records.Record) *Fallback {
	value := rec.Get(entry.Column)
	if strings.TrimSpace(value) == "" {
		clearContent(el)
		return nil
	}

	group, err := b.barcodeGroup(el, entry, value)
	if err != nil {
		log.Printf("[WARN] bind: barcode for %s (%q) failed: %v", placeholder, value, err)
		clearContent(el)
		el.SetText(fmt.Sprintf("[barcode svg error: %v]", err))
		return &Fallback{Placeholder: placeholder, Value: value, Err: err}
	}

	doc.Replace(el, group)
	return nil
}

// barcodeGroup renders value and wraps the drawing in a positioned group.
func (b *Binder) barcodeGroup(el *etree.Element, entry mapping.Entry, value string) (*etree.Element, error) {
	code, err := barcode.Encode(value)
	if err != nil {
		return nil, err
	}

	frag, err := ParseDocument(barcode.SVG(code, b.Barcode))
	if err != nil {
		return nil, fmt.Errorf("failed to parse barcode drawing: %w", err)
	}
	fragRoot := frag.Root()
	StripBackgrounds(fragRoot)

	_, h := intrinsicSize(fragRoot, b.DPI)
	scale := 1.0
	if h != 0 {
		scale = float64(barcode.MMToPx(entry.HeightMM(), b.DPI)) / h
	}
	scale *= entry.Scale

	x, y := anchor(el)
	group := etree.NewElement("g")
	group.CreateAttr("transform", fmt.Sprintf("translate(%s,%s) scale(%s)",
		formatNumber(x+entry.DX), formatNumber(y+entry.DY), formatNumber(scale)))

	for len(fragRoot.Child) > 0 {
		group.AddChild(fragRoot.RemoveChildAt(0))
	}
	return group, nil
}

// anchor reads the text position from x (or dx) and y (or dy). Unreadable
// values count as 0.
func anchor(el *etree.Element) (float64, float64) {
	coord := func(primary, secondary string) float64 {
		s := el.SelectAttrValue(primary, "")
		if s == "" {
			s = el.SelectAttrValue(secondary, "")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return coord("x", "dx"), coord("y", "dy")
}

func (b *Binder) bindText(el *etree.Element, content, first string, m mapping.Mapping, rec records.Record) {
	replaced := PlaceholderPattern.ReplaceAllStringFunc(content, func(tok string) string {
		name := PlaceholderPattern.FindStringSubmatch(tok)[1]
		return rec.Get(m.Lookup(name).Column)
	})

	clearContent(el)
	lines := splitLines(replaced)
	el.SetText(lines[0])
	x, hasX := "", false
	if attr := el.SelectAttr("x"); attr != nil {
		x, hasX = attr.Value, true
	}
	for _, line := range lines[1:] {
		tspan := el.CreateElement("tspan")
		if hasX {
			tspan.CreateAttr("x", x)
		}
		tspan.CreateAttr("dy", lineHeight)
		tspan.SetText(line)
	}

	entry := m.Lookup(first)
	el.CreateAttr("text-anchor", entry.Align.TextAnchor())
	shift := fmt.Sprintf("translate(%s,%s) scale(%s)",
		formatNumber(entry.DX), formatNumber(entry.DY), formatNumber(entry.Scale))
	el.CreateAttr("transform", strings.TrimSpace(el.SelectAttrValue("transform", "")+" "+shift))
}

// splitLines splits on any line terminator. A single trailing terminator
// does not produce an empty last line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
