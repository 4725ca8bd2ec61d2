package processor

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// MaxBarDimension is the largest width or height a barcode bar can have.
// Rects above it are treated as page backgrounds.
const MaxBarDimension = 500.0

var whiteFills = map[string]bool{
	"#fff":             true,
	"#ffffff":          true,
	"white":            true,
	"rgb(255,255,255)": true,
}

func normalizeColor(c string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c)), " ", "")
}

// IsBackgroundRect reports whether el is a rect that paints a white or
// oversized background rather than a bar.
func IsBackgroundRect(el *etree.Element) bool {
	if !strings.HasSuffix(strings.ToLower(el.Tag), "rect") {
		return false
	}

	fill := normalizeColor(el.SelectAttrValue("fill", ""))
	if whiteFills[fill] {
		return true
	}
	if fill == "" {
		if sf, ok := styleProperty(el.SelectAttrValue("style", ""), "fill"); ok && whiteFills[normalizeColor(sf)] {
			return true
		}
	}

	w, werr := strconv.ParseFloat(strings.TrimSpace(el.SelectAttrValue("width", "0")), 64)
	h, herr := strconv.ParseFloat(strings.TrimSpace(el.SelectAttrValue("height", "0")), 64)
	if werr != nil || herr != nil {
		return false
	}
	return w > 0 && h > 0 && (w > MaxBarDimension || h > MaxBarDimension)
}

// StripBackgrounds removes background rects below root and returns how
// many were removed.
func StripBackgrounds(root *etree.Element) int {
	var found []*etree.Element
	walk(root, func(el *etree.Element) {
		if el != root && IsBackgroundRect(el) {
			found = append(found, el)
		}
	})
	for _, el := range found {
		if p := el.Parent(); p != nil {
			p.RemoveChild(el)
		}
	}
	return len(found)
}
