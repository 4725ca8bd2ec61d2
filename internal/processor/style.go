package processor

import "strings"

type styleDecl struct {
	key   string
	value string
}

// parseStyle splits an inline style into declarations. Each key keeps the
// position of its first occurrence and the value of its last.
func parseStyle(style string) []styleDecl {
	var decls []styleDecl
	pos := make(map[string]int)
	for _, part := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		if i, seen := pos[k]; seen {
			decls[i].value = v
			continue
		}
		pos[k] = len(decls)
		decls = append(decls, styleDecl{key: k, value: v})
	}
	return decls
}

// NormalizeStyle rewrites an inline style with duplicate properties
// removed, e.g. "fill:red;fill:blue" becomes "fill: blue".
func NormalizeStyle(style string) string {
	decls := parseStyle(style)
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.key+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// styleProperty returns the effective value of key in an inline style.
func styleProperty(style, key string) (string, bool) {
	for _, d := range parseStyle(style) {
		if d.key == key {
			return d.value, true
		}
	}
	return "", false
}
