// Package mapping holds the per-placeholder binding configuration and its
// JSON and CSV document forms.
package mapping

import (
	"sort"
	"strings"
)

type Alignment string

const (
	AlignLeft    Alignment = "Left"
	AlignCenter  Alignment = "Center"
	AlignRight   Alignment = "Right"
	AlignJustify Alignment = "Justify"
)

// TextAnchor maps the alignment to the SVG text-anchor value. Justify is
// not implemented and anchors like Left.
func (a Alignment) TextAnchor() string {
	switch a {
	case AlignCenter:
		return "middle"
	case AlignRight:
		return "end"
	default:
		return "start"
	}
}

func parseAlignment(s string) Alignment {
	switch Alignment(strings.TrimSpace(s)) {
	case AlignCenter:
		return AlignCenter
	case AlignRight:
		return AlignRight
	case AlignJustify:
		return AlignJustify
	default:
		return AlignLeft
	}
}

type Kind string

const (
	KindText   Kind = "Text"
	KindEAN13  Kind = "Barcode EAN13"
	barcodeTag      = "Barcode"
)

func parseKind(s string) Kind {
	if strings.HasPrefix(strings.TrimSpace(s), barcodeTag) {
		return KindEAN13
	}
	return KindText
}

const (
	DefaultScale    = 1.0
	DefaultHeightMM = 25.0
)

// Barcode is the payload carried by KindEAN13 entries.
type Barcode struct {
	HeightMM float64
}

// Entry binds one placeholder to a record column. Barcode is non-nil
// exactly when Kind is KindEAN13.
type Entry struct {
	Column  string
	Align   Alignment
	DX      float64
	DY      float64
	Scale   float64
	Kind    Kind
	Barcode *Barcode
}

// TextEntry returns an entry with every default applied.
func TextEntry(column string) Entry {
	return Entry{Column: column, Align: AlignLeft, Scale: DefaultScale, Kind: KindText}
}

// BarcodeEntry returns an EAN-13 entry of the given physical height.
func BarcodeEntry(column string, heightMM float64) Entry {
	e := TextEntry(column)
	e.Kind = KindEAN13
	e.Barcode = &Barcode{HeightMM: heightMM}
	return e.normalized()
}

func (e Entry) IsBarcode() bool {
	return e.Kind == KindEAN13
}

// HeightMM returns the barcode height, or the default for text entries.
func (e Entry) HeightMM() float64 {
	if e.Barcode == nil || e.Barcode.HeightMM <= 0 {
		return DefaultHeightMM
	}
	return e.Barcode.HeightMM
}

func (e Entry) normalized() Entry {
	if e.Align == "" {
		e.Align = AlignLeft
	}
	if e.Scale <= 0 {
		e.Scale = DefaultScale
	}
	if e.Kind == KindEAN13 {
		var b Barcode
		if e.Barcode != nil {
			b = *e.Barcode
		}
		if b.HeightMM <= 0 {
			b.HeightMM = DefaultHeightMM
		}
		e.Barcode = &b
	} else {
		e.Kind = KindText
		e.Barcode = nil
	}
	return e
}

// Mapping is keyed by placeholder name. It is shared read-only during a
// batch run.
type Mapping map[string]Entry

// Lookup returns the entry for a placeholder with defaults applied. A
// missing entry or empty column binds to the column named like the
// placeholder.
func (m Mapping) Lookup(placeholder string) Entry {
	e, ok := m[placeholder]
	if !ok {
		return TextEntry(placeholder)
	}
	e = e.normalized()
	if e.Column == "" {
		e.Column = placeholder
	}
	return e
}

// Placeholders returns the mapped names sorted.
func (m Mapping) Placeholders() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the distinct source columns referenced by the mapping.
func (m Mapping) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, name := range m.Placeholders() {
		col := m.Lookup(name).Column
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	return cols
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, e := range m {
		if e.Barcode != nil {
			b := *e.Barcode
			e.Barcode = &b
		}
		out[k] = e
	}
	return out
}
