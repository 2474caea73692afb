package configs

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DBConfig struct {
	User             string
	Password         string
	Host             string
	Port             string
	Name             string
	SSLMode          string
	StatementTimeout time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxIdleTime  time.Duration
	ConnMaxLifetime  time.Duration
	SlowThreshold    time.Duration
}

// DSN: URL lengkap + statement_timeout (selaras dengan HTTP timeout guard)
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolku&options=-c%%20statement_timeout=%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode, d.StatementTimeout.Milliseconds(),
	)
}

type Config struct {
	Env             string
	Port            string
	JWTSecret       string
	LogLevel        string
	DefaultTimezone string
	RequestTimeout  time.Duration
	CorsOrigins     []string

	DB DBConfig

	// batas jam masuk per kategori period ("HH:MM"), dipakai deteksi telat
	AttendanceCutoffs map[string]string

	LedgerAuditCron string
}

// =======================
// ENV LOADER
// =======================
func Load() Config {
	if strings.TrimSpace(os.Getenv("RAILWAY_ENVIRONMENT")) == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[CONFIG] .env tidak ditemukan, pakai ENV sistem")
		} else {
			log.Println("[CONFIG] .env dimuat")
		}
	}

	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "Asia/Dhaka")
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")

	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_STATEMENT_TIMEOUT", 3*time.Second)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60*time.Second)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 10*time.Minute)
	v.SetDefault("DB_SLOW_THRESHOLD", 200*time.Millisecond)

	v.SetDefault("ATTENDANCE_CUTOFF_AM", "10:00")
	v.SetDefault("ATTENDANCE_CUTOFF_PM", "14:15")
	v.SetDefault("ATTENDANCE_CUTOFF_EVENING", "18:15")
	v.SetDefault("ATTENDANCE_CUTOFF_STAFF", "09:15")

	v.SetDefault("LEDGER_AUDIT_CRON", "30 1 * * *")
	v.AutomaticEnv()

	cfg := Config{
		Env:             v.GetString("APP_ENV"),
		Port:            v.GetString("PORT"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		DefaultTimezone: v.GetString("APP_TIMEZONE"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		CorsOrigins:     splitCSV(v.GetString("CORS_ORIGINS")),
		DB: DBConfig{
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetString("DB_PORT"),
			Name:             v.GetString("DB_NAME"),
			SSLMode:          v.GetString("DB_SSLMODE"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxIdleTime:  v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			ConnMaxLifetime:  v.GetDuration("DB_CONN_MAX_LIFETIME"),
			SlowThreshold:    v.GetDuration("DB_SLOW_THRESHOLD"),
		},
		AttendanceCutoffs: map[string]string{
			"AM":      v.GetString("ATTENDANCE_CUTOFF_AM"),
			"PM":      v.GetString("ATTENDANCE_CUTOFF_PM"),
			"EVENING": v.GetString("ATTENDANCE_CUTOFF_EVENING"),
			"STAFF":   v.GetString("ATTENDANCE_CUTOFF_STAFF"),
		},
		LedgerAuditCron: v.GetString("LEDGER_AUDIT_CRON"),
	}

	if cfg.JWTSecret == "" {
		log.Println("[CONFIG] JWT_SECRET belum diset!")
	}
	return cfg
}

func splitCSV(s string) []string {
	out := make([]string, 0, 4)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
