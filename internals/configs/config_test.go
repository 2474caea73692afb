package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
	assert.Empty(t, splitCSV(""))
}

func TestDBConfig_DSN(t *testing.T) {
	d := DBConfig{
		User: "app", Password: "secret", Host: "db", Port: "5432", Name: "schoolku",
		SSLMode: "disable", StatementTimeout: 3 * time.Second,
	}
	assert.Equal(t,
		"postgres://app:secret@db:5432/schoolku?sslmode=disable&application_name=schoolku&options=-c%20statement_timeout=3000",
		d.DSN())
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("RAILWAY_ENVIRONMENT", "test") // skip .env
	t.Setenv("PORT", "8080")
	t.Setenv("REQUEST_TIMEOUT", "7s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ATTENDANCE_CUTOFF_AM", "09:45")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsOrigins)
	assert.Equal(t, "09:45", cfg.AttendanceCutoffs["AM"])
	assert.Equal(t, "14:15", cfg.AttendanceCutoffs["PM"])
	assert.Equal(t, "30 1 * * *", cfg.LedgerAuditCron)
	assert.Equal(t, 20, cfg.DB.MaxOpenConns)
}
