package processor

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"VDP-SVG/internal/barcode"
)

// DefaultSize is used when an svg element declares no usable size.
const DefaultSize = 1000.0

const ptToPx = 1.3333333

// intrinsicSize returns the width and height of an svg element in pixel
// units. A four-number viewBox wins; otherwise width and height are
// converted from mm, pt, px or bare numbers.
func intrinsicSize(el *etree.Element, dpi int) (float64, float64) {
	if w, h, ok := viewBoxSize(el.SelectAttrValue("viewBox", "")); ok {
		return w, h
	}

	w := lengthToPx(el.SelectAttrValue("width", ""), dpi)
	h := lengthToPx(el.SelectAttrValue("height", ""), dpi)
	if w != 0 && h != 0 {
		return w, h
	}
	return DefaultSize, DefaultSize
}

func viewBoxSize(vb string) (float64, float64, bool) {
	parts := strings.Fields(strings.ReplaceAll(vb, ",", " "))
	if len(parts) != 4 {
		return 0, 0, false
	}
	w, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// lengthToPx converts an SVG length to pixels, 0 when it cannot be read.
func lengthToPx(s string, dpi int) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch {
	case strings.HasSuffix(s, "mm"):
		mm, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "mm")), 64)
		if err != nil {
			return 0
		}
		return float64(barcode.MMToPx(mm, dpi))
	case strings.HasSuffix(s, "pt"):
		pt, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "pt")), 64)
		if err != nil {
			return 0
		}
		return pt * ptToPx
	case strings.HasSuffix(s, "px"):
		px, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "px")), 64)
		if err != nil {
			return 0
		}
		return px
	}
	f, ok := leadingFloat(s)
	if !ok {
		return 0
	}
	return f
}
