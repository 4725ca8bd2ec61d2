package barcode

import (
	"fmt"
	"strconv"
	"strings"
)

// SVGOptions control the vector rendering. Lengths are in user units,
// one unit per module unless ModuleWidth says otherwise.
type SVGOptions struct {
	ModuleWidth    float64
	BarHeight      float64
	GuardExtension float64
	QuietZone      float64
	FontSize       float64
	// ModuleSizeMM sets the physical width/height attributes.
	ModuleSizeMM float64
	HideText     bool
}

// DefaultSVGOptions returns the nominal EAN-13 proportions.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		ModuleWidth:    1,
		BarHeight:      69,
		GuardExtension: 5,
		QuietZone:      11,
		FontSize:       8,
		ModuleSizeMM:   0.33,
	}
}

func (o SVGOptions) withDefaults() SVGOptions {
	d := DefaultSVGOptions()
	if o.ModuleWidth <= 0 {
		o.ModuleWidth = d.ModuleWidth
	}
	if o.BarHeight <= 0 {
		o.BarHeight = d.BarHeight
	}
	if o.GuardExtension < 0 {
		o.GuardExtension = 0
	}
	if o.QuietZone < 0 {
		o.QuietZone = 0
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.ModuleSizeMM <= 0 {
		o.ModuleSizeMM = d.ModuleSizeMM
	}
	return o
}

// Size returns the intrinsic width and height of the rendering in user units.
func (o SVGOptions) Size() (float64, float64) {
	o = o.withDefaults()
	width := (o.QuietZone*2 + ModuleCount) * o.ModuleWidth
	height := o.BarHeight + o.GuardExtension
	if !o.HideText {
		if h := o.BarHeight + o.FontSize + 1; h > height {
			height = h
		}
	}
	return width, height
}

// SVG renders the code as a standalone SVG document made of bar rectangles
// and digit text. It has no background shape so it can be overlaid on
// existing artwork.
func SVG(code Code13, opts SVGOptions) string {
	o := opts.withDefaults()
	width, height := o.Size()
	scaleMM := o.ModuleSizeMM / o.ModuleWidth

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%smm" height="%smm" viewBox="0 0 %s %s">`,
		num(width*scaleMM), num(height*scaleMM), num(width), num(height))

	modules := code.Modules()
	for i := 0; i < len(modules); {
		if modules[i] != '1' {
			i++
			continue
		}
		start := i
		for i < len(modules) && modules[i] == '1' {
			i++
		}
		h := o.BarHeight
		if isGuardModule(start) {
			h += o.GuardExtension
		}
		fmt.Fprintf(&b, `<rect x="%s" y="0" width="%s" height="%s" fill="#000000"/>`,
			num((o.QuietZone+float64(start))*o.ModuleWidth), num(float64(i-start)*o.ModuleWidth), num(h))
	}

	if !o.HideText {
		s := string(code)
		baseline := o.BarHeight + o.FontSize
		writeDigit := func(d byte, x float64, anchor string) {
			fmt.Fprintf(&b, `<text x="%s" y="%s" font-family="monospace" font-size="%s" text-anchor="%s" fill="#000000">%c</text>`,
				num(x), num(baseline), num(o.FontSize), anchor, d)
		}
		writeDigit(s[0], (o.QuietZone-1)*o.ModuleWidth, "end")
		for i := 0; i < 6; i++ {
			writeDigit(s[1+i], (o.QuietZone+3+7*float64(i)+3.5)*o.ModuleWidth, "middle")
			writeDigit(s[7+i], (o.QuietZone+50+7*float64(i)+3.5)*o.ModuleWidth, "middle")
		}
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
