package processor

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"VDP-SVG/internal/textenc"
)

// repairPass is one textual clean-up step applied before parsing. A pass
// whose output is blank while its input was not is skipped.
type repairPass struct {
	name  string
	apply func(string) string
}

var (
	doctypePattern    = regexp.MustCompile(`(?is)<!DOCTYPE[^>\[]*(\[[^\]]*\])?\s*>`)
	entityDeclPattern = regexp.MustCompile(`(?is)<!ENTITY[^>]*>`)
	nsDeclPattern     = regexp.MustCompile(`\s+xmlns:[A-Za-z0-9_]+\s*=\s*("[^"]*"|'[^']*')`)
	svgPrefixPattern  = regexp.MustCompile(`(</?)svg:`)
	elemPrefixPattern = regexp.MustCompile(`(</?)([A-Za-z0-9_]+):([A-Za-z0-9_\-]+)`)
	attrPrefixPattern = regexp.MustCompile(`(\s)([A-Za-z0-9_]+):([A-Za-z0-9_\-]+)=`)
	entityRefPattern  = regexp.MustCompile(`&([A-Za-z0-9_]+);`)
	svgFragment       = regexp.MustCompile(`(?is)<svg\b[^>]*>.*?</svg>`)
	leadingNumber     = regexp.MustCompile(`^\s*([+\-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+\-]?[0-9]+)?)`)
)

var builtinEntities = map[string]bool{
	"lt":   true,
	"gt":   true,
	"amp":  true,
	"quot": true,
	"apos": true,
}

var repairPasses = []repairPass{
	{name: "strip-bom", apply: stripBOM},
	{name: "strip-doctype", apply: stripDoctype},
	{name: "strip-entity-declarations", apply: stripEntityDecls},
	{name: "drop-namespace-declarations", apply: dropNamespaceDecls},
	{name: "collapse-prefixes", apply: collapsePrefixes},
	{name: "drop-entity-references", apply: dropEntityRefs},
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

func stripDoctype(s string) string {
	return doctypePattern.ReplaceAllString(s, "")
}

func stripEntityDecls(s string) string {
	return entityDeclPattern.ReplaceAllString(s, "")
}

// dropNamespaceDecls runs before collapsePrefixes so that xmlns:foo is
// still recognizable.
func dropNamespaceDecls(s string) string {
	return nsDeclPattern.ReplaceAllString(s, "")
}

// collapsePrefixes rewrites foo:bar names to foo_bar. Elements written with
// an svg: prefix are SVG elements and lose the prefix instead.
func collapsePrefixes(s string) string {
	s = svgPrefixPattern.ReplaceAllString(s, "${1}")
	s = elemPrefixPattern.ReplaceAllString(s, "${1}${2}_${3}")
	return attrPrefixPattern.ReplaceAllString(s, "${1}${2}_${3}=")
}

func dropEntityRefs(s string) string {
	return entityRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[1 : len(ref)-1]
		if builtinEntities[name] {
			return ref
		}
		return ""
	})
}

func applyRepairs(text string) string {
	for _, pass := range repairPasses {
		out := pass.apply(text)
		if strings.TrimSpace(out) == "" && strings.TrimSpace(text) != "" {
			log.Printf("[WARN] sanitize: skipping pass %s, it emptied the document", pass.name)
			continue
		}
		text = out
	}
	return text
}

// Sanitize turns arbitrary template bytes into a well-formed SVG document.
// Input encoding is detected, XML constructs that break strict parsing are
// removed, and the <svg> element becomes the document root with xmlns,
// version and viewBox filled in. Inline styles are de-duplicated.
func Sanitize(raw []byte) (*Document, error) {
	if len(raw) == 0 {
		return nil, &TemplateParseError{Reason: "empty template"}
	}

	text, enc := textenc.Decode(raw)
	if enc != "utf-8" {
		log.Printf("[DEBUG] sanitize: decoded template as %s", enc)
	}
	text = applyRepairs(text)

	tree, err := parseLenient(text)
	if err != nil {
		return nil, err
	}

	root := findSVGRoot(tree.Root())
	if root == nil {
		return nil, &TemplateParseError{Reason: "no <svg> element found"}
	}
	root = root.Copy()

	normalizeRoot(root)
	walk(root, normalizeStyleAttr)

	return newDocument(root), nil
}

// parseLenient parses text, retrying with just the first <svg>...</svg>
// fragment when the whole text does not parse.
func parseLenient(text string) (*etree.Document, error) {
	tree, err := parseTree(text)
	if err == nil {
		return tree, nil
	}

	fragment := svgFragment.FindString(text)
	if fragment == "" {
		return nil, &TemplateParseError{Reason: "no <svg> element found", Err: err}
	}
	log.Printf("[WARN] sanitize: full parse failed (%v), using <svg> fragment", err)

	tree, ferr := parseTree(fragment)
	if ferr != nil {
		return nil, &TemplateParseError{Reason: "unparseable <svg> fragment", Err: ferr}
	}
	return tree, nil
}

func parseTree(text string) (*etree.Document, error) {
	tree := newReadTree()
	if err := tree.ReadFromString(text); err != nil {
		return nil, err
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("no root element")
	}
	return tree, nil
}

func isSVGTag(tag string) bool {
	return strings.HasSuffix(strings.ToLower(tag), "svg")
}

// findSVGRoot returns el when it is an svg element, otherwise the first svg
// descendant in depth-first order.
func findSVGRoot(el *etree.Element) *etree.Element {
	if el == nil {
		return nil
	}
	if isSVGTag(el.Tag) {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findSVGRoot(child); found != nil {
			return found
		}
	}
	return nil
}

func normalizeRoot(root *etree.Element) {
	if root.SelectAttrValue("xmlns", "") == "" {
		root.CreateAttr("xmlns", svgNamespace)
	}
	if root.SelectAttr("version") == nil {
		root.CreateAttr("version", "1.1")
	}
	if root.SelectAttr("viewBox") != nil {
		return
	}

	w, wok := leadingFloat(root.SelectAttrValue("width", ""))
	h, hok := leadingFloat(root.SelectAttrValue("height", ""))
	if wok && hok {
		root.CreateAttr("viewBox", fmt.Sprintf("0 0 %s %s", formatNumber(w), formatNumber(h)))
	}
}

// leadingFloat parses the number at the start of s, ignoring any unit.
func leadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalizeStyleAttr(el *etree.Element) {
	style := el.SelectAttr("style")
	if style == nil || style.Value == "" {
		return
	}
	el.CreateAttr("style", NormalizeStyle(style.Value))
}
