package handlers

import (
	"fmt"
	"net/http"
	"time"

	"VDP-SVG/internal/services"

	"github.com/gin-gonic/gin"
)

// signedURLExpiry bounds bundle download links on stores that sign them.
const signedURLExpiry = 15 * time.Minute

type BatchHandler struct {
	batches *services.BatchService
}

func NewBatchHandler(batches *services.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// CreateBatch expects a multipart "data" file (.csv or .xml) and the form
// fields mode, formats and name_field.
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	file, header, err := c.Request.FormFile("data")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data file uploaded"})
		return
	}
	defer file.Close()

	batch, report, err := h.batches.CreateBatch(c.Request.Context(), services.BatchRequest{
		TemplateID:   c.Param("templateId"),
		DataFilename: header.Filename,
		Data:         file,
		Mode:         c.PostForm("mode"),
		Formats:      c.DefaultPostForm("formats", "svg"),
		NameField:    c.PostForm("name_field"),
	})
	if err != nil {
		respondError(c, err, "Failed to generate batch")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"batch_id":     batch.ID,
		"status":       batch.Status,
		"report":       report,
		"download_url": fmt.Sprintf("/api/v1/batches/%s/download", batch.ID),
	})
}

func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, err := h.batches.GetBatch(c.Param("batchId"))
	if err != nil {
		respondError(c, err, "Failed to load batch")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// DownloadBatch redirects to a signed URL when the store supports it and
// streams the ZIP bundle otherwise.
func (h *BatchHandler) DownloadBatch(c *gin.Context) {
	batchID := c.Param("batchId")

	if url, ok, err := h.batches.BundleURL(batchID, signedURLExpiry); err != nil {
		respondError(c, err, "Failed to sign download")
		return
	} else if ok {
		c.Redirect(http.StatusFound, url)
		return
	}

	reader, filename, err := h.batches.OpenBundle(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, err, "Failed to open bundle")
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "application/zip", reader, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
}
