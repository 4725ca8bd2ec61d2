package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewActivityLogCapturesRouteIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/templates/t-1/batches?mode=combined", nil)
	c.Request.Header.Set("User-Agent", "batch-client/1.0")
	c.Params = gin.Params{{Key: "templateId", Value: "t-1"}}

	entry := NewActivityLog(c, http.StatusCreated, 1500*time.Millisecond)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, http.MethodPost, entry.Method)
	assert.Equal(t, "/api/v1/templates/t-1/batches", entry.Path)
	assert.Equal(t, "t-1", entry.TemplateID)
	assert.Empty(t, entry.BatchID)
	assert.Equal(t, "batch-client/1.0", entry.UserAgent)
	assert.JSONEq(t, `{"mode":"combined"}`, entry.QueryParams)
	assert.Equal(t, http.StatusCreated, entry.StatusCode)
	assert.Equal(t, int64(1500), entry.ResponseTime)
}
