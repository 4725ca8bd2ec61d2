package processor

import (
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
)

// defaultFontSize is the SVG initial font-size in user units.
const defaultFontSize = 16.0

// PlaceholderPosition locates one placeholder occurrence in a template, in
// the template's user units.
type PlaceholderPosition struct {
	Placeholder string  `json:"placeholder"`
	Element     int     `json:"element"` // 0-based index among <text> elements
	X           float64 `json:"x"`       // text anchor
	Y           float64 `json:"y"`       // baseline
	Width       float64 `json:"width"`   // estimated
	Height      float64 `json:"height"`  // estimated
	FontSize    float64 `json:"font_size"`
	Standalone  bool    `json:"standalone"` // sole content of its element
}

// Positions lists every placeholder occurrence in document order.
func (d *Document) Positions() []PlaceholderPosition {
	var positions []PlaceholderPosition
	index := 0
	walk(d.Root(), func(el *etree.Element) {
		if el.Tag != "text" {
			return
		}
		content := textContent(el)
		tokens := tokensIn(content)
		x, y := anchor(el)
		size := fontSize(el)
		width := estimateTextWidth(content, size)
		standalone := len(tokens) == 1 && PlaceholderPattern.ReplaceAllString(strings.TrimSpace(content), "") == ""
		for _, name := range tokens {
			positions = append(positions, PlaceholderPosition{
				Placeholder: name,
				Element:     index,
				X:           x,
				Y:           y,
				Width:       width,
				Height:      size * 1.2,
				FontSize:    size,
				Standalone:  standalone,
			})
		}
		index++
	})
	return positions
}

// fontSize reads font-size from the element or its inline style, falling
// back to the nearest ancestor that sets it.
func fontSize(el *etree.Element) float64 {
	for e := el; e != nil; e = e.Parent() {
		v := e.SelectAttrValue("font-size", "")
		if s, ok := styleProperty(e.SelectAttrValue("style", ""), "font-size"); ok {
			v = s
		}
		if f, ok := leadingFloat(v); ok && f > 0 {
			return f
		}
	}
	return defaultFontSize
}

// estimateTextWidth assumes an average glyph is 0.6 em wide.
func estimateTextWidth(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * 0.6
}
