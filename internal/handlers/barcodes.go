package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"VDP-SVG/internal/barcode"

	"github.com/gin-gonic/gin"
)

// maxHeightMM bounds ?height_mm=. PNG output is further limited by
// barcode.MaxRasterSide at the configured dpi.
const maxHeightMM = 300

type BarcodeHandler struct {
	dpi             int
	defaultHeightMM float64
}

func NewBarcodeHandler(dpi int, defaultHeightMM float64) *BarcodeHandler {
	if defaultHeightMM <= 0 {
		defaultHeightMM = 25
	}
	return &BarcodeHandler{dpi: dpi, defaultHeightMM: defaultHeightMM}
}

// GetBarcode renders /barcodes/:code as ?format=svg (default) or png,
// ?height_mm= tall. The completed code is returned in X-EAN13.
func (h *BarcodeHandler) GetBarcode(c *gin.Context) {
	code, err := barcode.Encode(c.Param("code"))
	if err != nil {
		respondError(c, err, "Invalid barcode")
		return
	}

	heightMM := h.defaultHeightMM
	if s := c.Query("height_mm"); s != "" {
		heightMM, err = strconv.ParseFloat(s, 64)
		if err != nil || heightMM <= 0 || heightMM > maxHeightMM {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("height_mm must be a positive number up to %d", maxHeightMM)})
			return
		}
	}

	c.Header("X-EAN13", string(code))
	switch strings.ToLower(c.DefaultQuery("format", "svg")) {
	case "svg":
		opts := barcode.DefaultSVGOptions()
		_, height := opts.Size()
		opts.ModuleSizeMM = heightMM / height
		c.Data(http.StatusOK, "image/svg+xml", []byte(barcode.SVG(code, opts)))
	case "png":
		data, err := barcode.PNG(code, barcode.RasterOptions{HeightPx: barcode.MMToPx(heightMM, h.dpi)})
		if err != nil {
			respondError(c, err, "Failed to render barcode")
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be svg or png"})
	}
}
