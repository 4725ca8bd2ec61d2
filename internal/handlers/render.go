package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/records"
	"VDP-SVG/internal/services"

	"github.com/gin-gonic/gin"
)

// RenderHandler serves one-off renders that need neither the database nor
// the object store.
type RenderHandler struct {
	render *services.RenderService
}

func NewRenderHandler(render *services.RenderService) *RenderHandler {
	return &RenderHandler{render: render}
}

// Render expects a multipart "template" file, a "mapping" given as a JSON
// field or a .json/.csv file, and a "record" JSON object.
func (h *RenderHandler) Render(c *gin.Context) {
	file, _, err := c.Request.FormFile("template")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No template uploaded"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, services.MaxTemplateSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read template"})
		return
	}
	if len(raw) > services.MaxTemplateSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Template is too large"})
		return
	}

	m, err := mappingFromForm(c)
	if err != nil {
		respondError(c, err, "Invalid mapping")
		return
	}

	rec := records.Record{}
	if s := c.PostForm("record"); s != "" {
		var values map[string]any
		if err := json.Unmarshal([]byte(s), &values); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record must be a JSON object"})
			return
		}
		rec = records.FromAny(values)
	}

	scale := 1.0
	if s := c.PostForm("scale"); s != "" {
		if scale, err = strconv.ParseFloat(s, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scale"})
			return
		}
	}

	out, err := h.render.RenderRaw(raw, m, rec, c.DefaultPostForm("format", "svg"), scale)
	if err != nil {
		respondError(c, err, "Failed to render")
		return
	}
	writeRendered(c, out)
}

func mappingFromForm(c *gin.Context) (mapping.Mapping, error) {
	if s := c.PostForm("mapping"); s != "" {
		return mapping.ParseJSON([]byte(s))
	}
	file, header, err := c.Request.FormFile("mapping")
	if err != nil {
		return mapping.Mapping{}, nil
	}
	defer file.Close()
	return mapping.Load(header.Filename, file)
}
