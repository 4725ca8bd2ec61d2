package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// MaxRasterSide bounds either side of a rendered barcode image in pixels.
const MaxRasterSide = 8000

var ErrImageTooLarge = errors.New("barcode image too large")

// RasterOptions control the pixel rendering.
type RasterOptions struct {
	ModulePx int
	// HeightPx scales the whole image uniformly to this height; 0 keeps
	// the intrinsic size.
	HeightPx int
	HideText bool
}

func (o RasterOptions) modulePx() int {
	if o.ModulePx <= 0 {
		return 3
	}
	return o.ModulePx
}

// Size reports the pixel size Image produces for opts.
func (o RasterOptions) Size() (int, int) {
	svgOpts := DefaultSVGOptions()
	svgOpts.HideText = o.HideText
	w, h := svgOpts.Size()
	unit := float64(o.modulePx())
	width, height := int(w*unit), int(math.Ceil(h*unit))
	if o.HeightPx <= 0 {
		return width, height
	}
	return int(math.Round(float64(width) * float64(o.HeightPx) / float64(height))), o.HeightPx
}

// Image draws the symbol on a white canvas. Images with a side above
// MaxRasterSide are refused with ErrImageTooLarge.
func Image(code Code13, opts RasterOptions) (image.Image, error) {
	if w, h := opts.Size(); w > MaxRasterSide || h > MaxRasterSide {
		return nil, fmt.Errorf("%w: %dx%d px exceeds %d px", ErrImageTooLarge, w, h, MaxRasterSide)
	}
	svgOpts := DefaultSVGOptions()
	svgOpts.HideText = opts.HideText
	w, h := svgOpts.Size()

	unit := float64(opts.modulePx())
	dc := gg.NewContext(int(w*unit), int(math.Ceil(h*unit)))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	modules := code.Modules()
	for i := 0; i < len(modules); i++ {
		if modules[i] != '1' {
			continue
		}
		barH := svgOpts.BarHeight
		if isGuardModule(i) {
			barH += svgOpts.GuardExtension
		}
		dc.DrawRectangle((svgOpts.QuietZone+float64(i))*unit, 0, unit, barH*unit)
	}
	dc.Fill()

	if !opts.HideText {
		s := string(code)
		y := (svgOpts.BarHeight + svgOpts.FontSize/2 + 1) * unit
		dc.DrawStringAnchored(s[:1], (svgOpts.QuietZone-1)*unit, y, 1, 0.5)
		for i := 0; i < 6; i++ {
			dc.DrawStringAnchored(s[1+i:2+i], (svgOpts.QuietZone+3+7*float64(i)+3.5)*unit, y, 0.5, 0.5)
			dc.DrawStringAnchored(s[7+i:8+i], (svgOpts.QuietZone+50+7*float64(i)+3.5)*unit, y, 0.5, 0.5)
		}
	}

	img := dc.Image()
	if opts.HeightPx <= 0 {
		return img, nil
	}
	width, height := opts.Size()
	return imaging.Resize(img, width, height, imaging.NearestNeighbor), nil
}

// PNG encodes Image as PNG bytes.
func PNG(code Code13, opts RasterOptions) ([]byte, error) {
	img, err := Image(code, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
