package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"VDP-SVG/internal"
	"VDP-SVG/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityLogService struct{}

func NewActivityLogService() *ActivityLogService {
	return &ActivityLogService{}
}

// LogStats aggregates the stored request log.
type LogStats struct {
	TotalRequests int64            `json:"total_requests"`
	Methods       map[string]int64 `json:"methods"`
	StatusCodes   map[int]int64    `json:"status_codes"`
	AvgResponseMS float64          `json:"avg_response_ms"`
	Templates     int64            `json:"templates"`
	Batches       int64            `json:"batches"`
}

// NewActivityLog builds the log row for a finished request. Template and
// batch ids are taken from the route parameters.
func NewActivityLog(c *gin.Context, statusCode int, responseTime time.Duration) *models.ActivityLog {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	now := time.Now()
	return &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		TemplateID:   c.Param("templateId"),
		BatchID:      c.Param("batchId"),
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	activityLog := NewActivityLog(c, statusCode, responseTime)

	// Save to database (don't block the request if this fails)
	go func() {
		if err := internal.DB.Create(activityLog).Error; err != nil {
			log.Printf("[WARN] failed to save activity log: %v", err)
		}
	}()
}

func (s *ActivityLogService) GetAllLogs(limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(internal.DB, limit, offset)
}

func (s *ActivityLogService) GetLogsByMethod(method string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(internal.DB.Where("method = ?", strings.ToUpper(method)), limit, offset)
}

func (s *ActivityLogService) GetLogsByPath(path string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(internal.DB.Where("path LIKE ?", "%"+path+"%"), limit, offset)
}

func (s *ActivityLogService) GetLogsByTemplate(templateID string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(internal.DB.Where("template_id = ?", templateID), limit, offset)
}

func (s *ActivityLogService) find(query *gorm.DB, limit int, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	if err := query.Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	// most recent first
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

func (s *ActivityLogService) GetStats() (*LogStats, error) {
	stats := &LogStats{
		Methods:     make(map[string]int64),
		StatusCodes: make(map[int]int64),
	}
	base := internal.DB.Model(&models.ActivityLog{})

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalRequests).Error; err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}

	var methods []struct {
		Method string
		Count  int64
	}
	if err := base.Session(&gorm.Session{}).Select("method, COUNT(*) AS count").Group("method").Scan(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to group logs by method: %w", err)
	}
	for _, row := range methods {
		stats.Methods[row.Method] = row.Count
	}

	var codes []struct {
		StatusCode int
		Count      int64
	}
	if err := base.Session(&gorm.Session{}).Select("status_code, COUNT(*) AS count").Group("status_code").Scan(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to group logs by status: %w", err)
	}
	for _, row := range codes {
		stats.StatusCodes[row.StatusCode] = row.Count
	}

	var avg struct{ Avg float64 }
	if err := base.Session(&gorm.Session{}).Select("COALESCE(AVG(response_time), 0) AS avg").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average response time: %w", err)
	}
	stats.AvgResponseMS = avg.Avg

	if err := base.Session(&gorm.Session{}).Where("template_id <> ''").Distinct("template_id").Count(&stats.Templates).Error; err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("batch_id <> ''").Distinct("batch_id").Count(&stats.Batches).Error; err != nil {
		return nil, fmt.Errorf("failed to count batches: %w", err)
	}

	return stats, nil
}

// LoggingMiddleware records every request after it has been handled.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
