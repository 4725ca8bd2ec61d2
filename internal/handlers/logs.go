package handlers

import (
	"net/http"
	"strconv"

	"VDP-SVG/internal/models"
	"VDP-SVG/internal/services"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	activityLogService *services.ActivityLogService
}

func NewLogsHandler(activityLogService *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
	}
}

type LogsResponse struct {
	Logs       interface{} `json:"logs"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// pagination reads ?limit= (default 50, at most 1000) and ?page= (1-based).
func pagination(c *gin.Context) (limit, page int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	return limit, page
}

// GetAllLogs returns activity logs with pagination, optionally filtered by
// ?template_id=, ?method= or ?path=.
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	limit, page := pagination(c)
	offset := (page - 1) * limit

	var logs []models.ActivityLog
	var total int64
	var err error

	switch {
	case c.Query("template_id") != "":
		logs, total, err = h.activityLogService.GetLogsByTemplate(c.Query("template_id"), limit, offset)
	case c.Query("method") != "":
		logs, total, err = h.activityLogService.GetLogsByMethod(c.Query("method"), limit, offset)
	case c.Query("path") != "":
		logs, total, err = h.activityLogService.GetLogsByPath(c.Query("path"), limit, offset)
	default:
		logs, total, err = h.activityLogService.GetAllLogs(limit, offset)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

func (h *LogsHandler) GetLogStats(c *gin.Context) {
	stats, err := h.activityLogService.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
