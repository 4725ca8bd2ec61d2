package handlers

import (
	"errors"
	"log"
	"net/http"

	"VDP-SVG/internal/barcode"
	"VDP-SVG/internal/export"
	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/services"
	"VDP-SVG/internal/storage"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var parseErr *processor.TemplateParseError
	var loadErr *mapping.LoadError
	var codeErr *barcode.InvalidCodeError
	var sizeErr *http.MaxBytesError

	switch {
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &loadErr), errors.As(err, &codeErr), errors.Is(err, barcode.ErrImageTooLarge),
		errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrNoPDFConverter):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and
// answered with msg instead of the error text.
func respondError(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %s: %v", c.Request.Method, c.Request.URL.Path, msg, err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
