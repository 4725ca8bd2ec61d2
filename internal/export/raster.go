package export

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// MaxRasterSide bounds either side of a rasterized image in pixels.
const MaxRasterSide = 8000

// SVGRasterizer draws SVG paths and shapes onto a white canvas. Text is
// not rendered.
type SVGRasterizer struct{}

func NewSVGRasterizer() *SVGRasterizer {
	return &SVGRasterizer{}
}

func (r *SVGRasterizer) PNG(svg string, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to read svg: %w", err)
	}

	w := int(math.Ceil(icon.ViewBox.W * scale))
	h := int(math.Ceil(icon.ViewBox.H * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has no drawable size (%vx%v)", icon.ViewBox.W, icon.ViewBox.H)
	}
	if w > MaxRasterSide || h > MaxRasterSide {
		return nil, fmt.Errorf("raster size %dx%d exceeds %d", w, h, MaxRasterSide)
	}

	img := imaging.New(w, h, color.White)
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
