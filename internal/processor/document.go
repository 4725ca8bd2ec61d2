package processor

import (
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	svgNamespace = "http://www.w3.org/2000/svg"
	xmlDecl      = `version="1.0" encoding="UTF-8"`
)

// Document is an owned, mutable SVG element tree.
type Document struct {
	tree *etree.Document
}

func newReadTree() *etree.Document {
	t := etree.NewDocument()
	t.ReadSettings.Permissive = true
	// input is always decoded to UTF-8 before parsing
	t.ReadSettings.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return t
}

// newDocument wraps root in a fresh tree with an XML declaration.
func newDocument(root *etree.Element) *Document {
	t := etree.NewDocument()
	t.CreateProcInst("xml", xmlDecl)
	t.SetRoot(root)
	return &Document{tree: t}
}

// ParseDocument parses markup that is already well formed, such as the
// output of Sanitize or a generated barcode fragment.
func ParseDocument(text string) (*Document, error) {
	t := newReadTree()
	if err := t.ReadFromString(text); err != nil {
		return nil, &TemplateParseError{Reason: "malformed markup", Err: err}
	}
	if t.Root() == nil {
		return nil, &TemplateParseError{Reason: "no root element"}
	}
	return &Document{tree: t}, nil
}

// Root returns the document element.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// Clone returns an independent deep copy.
func (d *Document) Clone() *Document {
	return &Document{tree: d.tree.Copy()}
}

// String serializes the document.
func (d *Document) String() (string, error) {
	return d.tree.WriteToString()
}

// Placeholders returns the sorted distinct placeholder names.
func (d *Document) Placeholders() ([]string, error) {
	text, err := d.String()
	if err != nil {
		return nil, err
	}
	return Discover(text), nil
}

// Replace swaps old for repl in old's parent at the same position. When
// old is the document element or is detached, repl is appended to the
// root and old's content is cleared instead.
func (d *Document) Replace(old, repl *etree.Element) {
	root := d.Root()
	parent := old.Parent()
	if old == root || parent == nil {
		clearContent(old)
		root.AddChild(repl)
		return
	}

	idx := old.Index()
	parent.RemoveChildAt(idx)
	parent.InsertChildAt(idx, repl)
}

// Size returns the intrinsic size of the root in pixel units; see
// intrinsicSize.
func (d *Document) Size(dpi int) (float64, float64) {
	return intrinsicSize(d.Root(), dpi)
}

// walk visits el and its descendants depth-first, parents first.
func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

// textContent concatenates all character data below el in document order.
func textContent(el *etree.Element) string {
	var b strings.Builder
	var collect func(*etree.Element)
	collect = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				b.WriteString(t.Data)
			case *etree.Element:
				collect(t)
			}
		}
	}
	collect(el)
	return b.String()
}

func clearContent(el *etree.Element) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(0)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// EnsureSize sets width and height on the root when either is missing,
// taking them from the viewBox or falling back to DefaultSize.
func (d *Document) EnsureSize() {
	root := d.Root()
	if root.SelectAttrValue("width", "") != "" && root.SelectAttrValue("height", "") != "" {
		return
	}
	w, h, ok := viewBoxSize(root.SelectAttrValue("viewBox", ""))
	if !ok {
		w, h = DefaultSize, DefaultSize
	}
	root.CreateAttr("width", formatNumber(w))
	root.CreateAttr("height", formatNumber(h))
}
