package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"RENDER_DPI", "RENDER_WORKERS", "REDIS_ADDR", "GCS_BUCKET_NAME", "ALLOW_ORIGINS", "FRONTEND_URL_1", "FRONTEND_URL_2", "STORAGE_MAX_AGE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Render.DPI)
	assert.Equal(t, 4, cfg.Render.Workers)
	assert.Equal(t, 25.0, cfg.Render.BarcodeHeightMM)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.GCS.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Storage.MaxAge)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.Server.AllowOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RENDER_DPI", "600")
	t.Setenv("RENDER_WORKERS", "not-a-number")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STORAGE_MAX_AGE", "90m")
	t.Setenv("ALLOW_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 600, cfg.Render.DPI)
	assert.Equal(t, 4, cfg.Render.Workers)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 90*time.Minute, cfg.Storage.MaxAge)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
}

func TestDSN(t *testing.T) {
	tcp := DatabaseConfig{Host: "db", Port: "3306", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=Local", tcp.DSN())

	sock := DatabaseConfig{Host: "/cloudsql/x", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "u:p@unix(/cloudsql/x)/n?charset=utf8mb4&parseTime=True&loc=Local", sock.DSN())
}

func TestGotenbergTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, (&GotenbergConfig{Timeout: "5s"}).TimeoutDuration())
	assert.Equal(t, 30*time.Second, (&GotenbergConfig{Timeout: "soon"}).TimeoutDuration())
}
