package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/records"
	"VDP-SVG/internal/services"

	"github.com/gin-gonic/gin"
)

type PlaceholderResponse struct {
	Placeholders []string                        `json:"placeholders"`
	Positions    []processor.PlaceholderPosition `json:"positions,omitempty"`
}

type UploadResponse struct {
	TemplateID   string   `json:"template_id"`
	Placeholders []string `json:"placeholders"`
	Message      string   `json:"message"`
}

// PreviewRequest carries the record to bind, either inline or as a 1-based
// row of Records. Without a row the first record with a mapped value is used.
type PreviewRequest struct {
	Record  map[string]any   `json:"record"`
	Records []map[string]any `json:"records"`
	Row     int              `json:"row"`
}

func (r PreviewRequest) rows() ([]records.Record, int, error) {
	if r.Record != nil {
		return []records.Record{records.FromAny(r.Record)}, 1, nil
	}
	if r.Row < 0 || r.Row > len(r.Records) {
		return nil, 0, fmt.Errorf("%w: row %d out of range 1..%d", services.ErrInvalidInput, r.Row, len(r.Records))
	}
	rows := make([]records.Record, len(r.Records))
	for i, values := range r.Records {
		rows[i] = records.FromAny(values)
	}
	return rows, r.Row, nil
}

type TemplateHandler struct {
	templates *services.TemplateService
	mappings  *services.MappingService
	render    *services.RenderService
}

func NewTemplateHandler(templates *services.TemplateService, mappings *services.MappingService, render *services.RenderService) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		mappings:  mappings,
		render:    render,
	}
}

func (h *TemplateHandler) UploadTemplate(c *gin.Context) {
	file, header, err := c.Request.FormFile("template")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".svg" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .svg files are supported"})
		return
	}

	template, placeholders, err := h.templates.UploadTemplate(c.Request.Context(), file, header)
	if err != nil {
		respondError(c, err, "Failed to upload template")
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		TemplateID:   template.ID,
		Placeholders: placeholders,
		Message:      "Template uploaded successfully",
	})
}

func (h *TemplateHandler) GetPlaceholders(c *gin.Context) {
	templateID := c.Param("templateId")
	placeholders, err := h.templates.GetPlaceholders(templateID)
	if err != nil {
		respondError(c, err, "Failed to load placeholders")
		return
	}

	response := PlaceholderResponse{Placeholders: placeholders}
	if c.Query("positions") == "true" {
		if response.Positions, err = h.templates.GetPlaceholderPositions(c.Request.Context(), templateID); err != nil {
			respondError(c, err, "Failed to locate placeholders")
			return
		}
	}
	c.JSON(http.StatusOK, response)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), c.Param("templateId")); err != nil {
		respondError(c, err, "Failed to delete template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}

// GetMapping downloads the stored mapping as ?format=json (default) or csv.
func (h *TemplateHandler) GetMapping(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
		return
	}

	templateID := c.Param("templateId")
	if _, err := h.templates.GetTemplate(templateID); err != nil {
		respondError(c, err, "Failed to load template")
		return
	}

	var buf bytes.Buffer
	if err := h.mappings.ExportMapping(templateID, format, &buf); err != nil {
		respondError(c, err, "Failed to export mapping")
		return
	}

	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv; charset=utf-8"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="mapping_%s.%s"`, templateID, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// PutMapping replaces the stored mapping with a multipart "mapping" file
// (.json or .csv) or a JSON request body.
func (h *TemplateHandler) PutMapping(c *gin.Context) {
	templateID := c.Param("templateId")
	if _, err := h.templates.GetTemplate(templateID); err != nil {
		respondError(c, err, "Failed to load template")
		return
	}

	filename, body, err := mappingUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No mapping file uploaded"})
		return
	}
	defer body.Close()

	m, err := h.mappings.ImportMapping(templateID, filename, body)
	if err != nil {
		respondError(c, err, "Failed to save mapping")
		return
	}
	c.JSON(http.StatusOK, gin.H{"mapping": m, "placeholders": m.Placeholders()})
}

// mappingUpload returns the uploaded mapping document and the filename its
// format is read from. The request body is capped at MaxMappingSize.
func mappingUpload(c *gin.Context) (string, io.ReadCloser, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxMappingSize)
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "mapping.json", c.Request.Body, nil
	}
	file, header, err := c.Request.FormFile("mapping")
	if err != nil {
		return "", nil, err
	}
	return header.Filename, file, nil
}

// Preview binds one record to the template and returns the result as
// ?format=svg (default) or png at ?scale= (0.25 to 3).
func (h *TemplateHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	rows, row, err := req.rows()
	if err != nil {
		respondError(c, err, "Invalid record")
		return
	}

	scale := 1.0
	if s := c.Query("scale"); s != "" {
		if scale, err = strconv.ParseFloat(s, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scale"})
			return
		}
	}

	out, err := h.render.Preview(c.Request.Context(), c.Param("templateId"), rows, row, c.DefaultQuery("format", "svg"), scale)
	if err != nil {
		respondError(c, err, "Failed to render preview")
		return
	}
	writeRendered(c, out)
}

func writeRendered(c *gin.Context, out *services.Rendered) {
	if len(out.Fallbacks) > 0 {
		c.Header("X-Render-Warnings", strconv.Itoa(len(out.Fallbacks)))
	}
	c.Data(http.StatusOK, out.ContentType, out.Data)
}
