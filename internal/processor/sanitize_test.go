package processor

import (
	"strings"
	"testing"

	"VDP-SVG/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSanitize(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := Sanitize([]byte(raw))
	require.NoError(t, err)
	return doc
}

func mustString(t *testing.T, doc *Document) string {
	t.Helper()
	out, err := doc.String()
	require.NoError(t, err)
	return out
}

func TestSanitizeMalformedTemplate(t *testing.T) {
	doc := mustSanitize(t, `<svg width="300" height="200" ns:foo="x"><text>&nbsp;Hello &copy;</text></svg>`)
	out := mustString(t, doc)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Equal(t, "svg", doc.Root().Tag)
	assert.Contains(t, out, `xmlns="http://www.w3.org/2000/svg"`)
	assert.Contains(t, out, `version="1.1"`)
	assert.Contains(t, out, `viewBox="0 0 300 200"`)
	assert.NotContains(t, out, "ns:")
	assert.NotContains(t, out, "&nbsp;")
	assert.NotContains(t, out, "&copy;")
	assert.Contains(t, out, "Hello")
}

func TestSanitizeWithoutSVG(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"<html><body>no drawing</body></html>",
		"<svg",
	}
	for _, raw := range inputs {
		_, err := Sanitize([]byte(raw))
		var perr *TemplateParseError
		assert.ErrorAs(t, err, &perr, "input %q", raw)
	}
}

func TestSanitizeDoctypeAndPrefixes(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd" [
  <!ENTITY ns_extend "http://ns.adobe.com/Extensibility/1.0/">
]>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" xmlns:i="&ns_extend;" viewBox="0 0 50 40" width="50" height="40">
  <i:pgf>data</i:pgf>
  <use xlink:href="#a"/>
</svg>`
	out := mustString(t, mustSanitize(t, raw))

	assert.NotContains(t, out, "DOCTYPE")
	assert.NotContains(t, out, "ENTITY")
	assert.NotContains(t, out, "xmlns:")
	assert.Contains(t, out, "<i_pgf>data</i_pgf>")
	assert.Contains(t, out, `xlink_href="#a"`)
	assert.Contains(t, out, `viewBox="0 0 50 40"`)
	assert.Equal(t, 1, strings.Count(out, "viewBox"))
}

func TestSanitizePrefixedSVGNamespace(t *testing.T) {
	raw := `<svg:svg xmlns:svg="http://www.w3.org/2000/svg" width="20" height="10"><svg:text x="1" y="2">{{a}}</svg:text></svg:svg>`
	doc := mustSanitize(t, raw)

	assert.Equal(t, "svg", doc.Root().Tag)
	assert.Equal(t, "http://www.w3.org/2000/svg", doc.Root().SelectAttrValue("xmlns", ""))
	names, err := doc.Placeholders()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)

	bound := NewBinder(300).Bind(doc, nil, records.Record{"a": "bound"})
	text := bound.Root().SelectElement("text")
	require.NotNil(t, text)
	assert.Equal(t, "bound", text.Text())
}

func TestSanitizeNestedRoot(t *testing.T) {
	doc := mustSanitize(t, `<html><body><svg width="10mm" height="5mm"><circle r="1"/></svg></body></html>`)
	out := mustString(t, doc)

	assert.Equal(t, "svg", doc.Root().Tag)
	assert.NotContains(t, out, "<html")
	assert.Contains(t, out, `viewBox="0 0 10 5"`)
	assert.Contains(t, out, `<circle r="1"/>`)
}

func TestSanitizeFragmentFallback(t *testing.T) {
	doc := mustSanitize(t, `<svg width="20" height="10"><rect width="1" height="1"/></svg><unclosed>`)
	out := mustString(t, doc)

	assert.Equal(t, "svg", doc.Root().Tag)
	assert.NotContains(t, out, "unclosed")
}

func TestSanitizeLatin1(t *testing.T) {
	doc := mustSanitize(t, "<svg width=\"10\" height=\"10\"><text>Caf\xe9</text></svg>")
	assert.Contains(t, mustString(t, doc), "Café")
}

func TestSanitizeByteOrderMark(t *testing.T) {
	doc := mustSanitize(t, "\xef\xbb\xbf<svg width=\"1\" height=\"1\"/>")
	assert.Equal(t, "svg", doc.Root().Tag)
}

func TestSanitizeStyles(t *testing.T) {
	out := mustString(t, mustSanitize(t, `<svg width="1" height="1"><rect style="fill:red; stroke:blue;fill: green;;"/></svg>`))
	assert.Contains(t, out, `style="fill: green; stroke: blue"`)
}

func TestSanitizeIsIdempotent(t *testing.T) {
	first := mustString(t, mustSanitize(t, `<svg width="30" height="20" a:b="c"><text x="1" y="2">{{name}} &amp; co</text></svg>`))
	second := mustString(t, mustSanitize(t, first))
	assert.Equal(t, first, second)
}

func TestRepairPasses(t *testing.T) {
	tests := []struct {
		name string
		pass func(string) string
		in   string
		want string
	}{
		{"bom", stripBOM, "\ufeff<svg/>", "<svg/>"},
		{"doctype", stripDoctype, `<!DOCTYPE svg><svg/>`, "<svg/>"},
		{"doctype subset", stripDoctype, "<!DOCTYPE svg [\n<!ENTITY a \"b\">\n]>\n<svg/>", "\n<svg/>"},
		{"entity", stripEntityDecls, `<!ENTITY a "b"><svg/>`, "<svg/>"},
		{"namespace", dropNamespaceDecls, `<svg xmlns:a="u" xmlns='v'>`, `<svg xmlns='v'>`},
		{"prefixes", collapsePrefixes, `<a:b c:d="1"></a:b>`, `<a_b c_d="1"></a_b>`},
		{"svg prefix", collapsePrefixes, `<svg:svg><svg:text/></svg:svg>`, `<svg><text/></svg>`},
		{"entity refs", dropEntityRefs, "&amp;&nbsp;&lt;&x1;&quot;", "&amp;&lt;&quot;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pass(tt.in))
		})
	}
}

func TestApplyRepairsSkipsDestructivePass(t *testing.T) {
	assert.Equal(t, "<!DOCTYPE svg>", applyRepairs("<!DOCTYPE svg>"))
}

func TestNormalizeStyle(t *testing.T) {
	assert.Equal(t, "fill: blue", NormalizeStyle("fill:red;fill:blue"))
	assert.Equal(t, "a: 1; b: 2", NormalizeStyle(" a : 1 ; b:2 ;"))
	assert.Equal(t, "", NormalizeStyle("color"))
	assert.Equal(t, "", NormalizeStyle(""))
}

func TestDiscover(t *testing.T) {
	names := Discover(`<text>{{ name }}</text><text>{{name2}} and {{name}}</text>`)
	assert.Equal(t, []string{"name", "name2"}, names)

	assert.Equal(t, []string{"a.b-c_d"}, Discover("{{a.b-c_d}} {{ }} {{bad name}}"))
	assert.Empty(t, Discover("no placeholders"))
}

func TestDocumentPlaceholders(t *testing.T) {
	doc := mustSanitize(t, `<svg width="1" height="1"><text>{{b}}</text><text>{{a}}</text></svg>`)
	names, err := doc.Placeholders()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
