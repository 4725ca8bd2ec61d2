package export

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VDP-SVG/internal/barcode"
)

func TestSVGRasterizer(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10"><rect x="0" y="0" width="10" height="10" fill="#000000"/></svg>`

	out, err := NewSVGRasterizer().PNG(svg, 2)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Less(t, r, uint32(0x1000))
	r, g, b, _ := img.At(35, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b)
}

func TestSVGRasterizerBarcode(t *testing.T) {
	code, err := barcode.Encode("4006381333931")
	require.NoError(t, err)

	out, err := NewSVGRasterizer().PNG(barcode.SVG(code, barcode.DefaultSVGOptions()), 1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 117, img.Bounds().Dx())
	assert.Equal(t, 78, img.Bounds().Dy())
}

func TestSVGRasterizerRejectsSizeless(t *testing.T) {
	_, err := NewSVGRasterizer().PNG(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`, 1)
	assert.Error(t, err)
}
