package barcode

import "math"

// DefaultDPI is the raster resolution used for millimeter conversion.
const DefaultDPI = 300

// MMToPx converts millimeters to whole pixels at dpi, never below 1.
func MMToPx(mm float64, dpi int) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	px := int(math.Round(mm / 25.4 * float64(dpi)))
	if px < 1 {
		return 1
	}
	return px
}
