package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentStaging     = "staging"
	EnvironmentDevelopment = "development"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr            string
	Port                  string
	DatabaseURL           string
	SessionSecret         string
	GinMode               string
	Environment           string
	UploadDir             string
	UploadURLPath         string
	SiteBaseURL           string
	SiteTimeZone          string
	IndieAuthMe           string
	IndieAuthTokenURL     string
	IndieAuthBypassSecret string
	RedisURL              string
	PageCacheTTL          time.Duration
	SettingsFile          string
	ResumeFile            string
	LogLevel              string
	SuperRootUserName     string
	SuperRootPassword     string
}

// IsProduction reports whether auth bypasses and debug helpers must stay disabled.
func (c AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Location 返回站点时区，无法解析时回退到 UTC。
func (c AppConfig) Location() *time.Location {
	name := strings.TrimSpace(c.SiteTimeZone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 如果当前目录存在 .env 文件，会先加载它；已经存在的环境变量不会被覆盖。
func Load() AppConfig {
	_ = godotenv.Load()

	port := env("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	environment := strings.ToLower(env("ENVIRONMENT", EnvironmentProduction))
	switch environment {
	case EnvironmentProduction, EnvironmentStaging, EnvironmentDevelopment:
	default:
		environment = EnvironmentProduction
	}

	cacheTTL := 200 * time.Second
	if raw := strings.TrimSpace(os.Getenv("PAGE_CACHE_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed >= 0 {
			cacheTTL = parsed
		}
	}

	return AppConfig{
		ListenAddr:            listenAddr,
		Port:                  port,
		DatabaseURL:           env("DATABASE_URL", "weblog.db"),
		SessionSecret:         env("SESSION_SECRET", "weblog-dev-secret"),
		GinMode:               env("GIN_MODE", "release"),
		Environment:           environment,
		UploadDir:             env("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:         env("UPLOAD_URL_PATH", "/static/uploads"),
		SiteBaseURL:           strings.TrimRight(env("SITE_BASE_URL", ""), "/"),
		SiteTimeZone:          env("SITE_TIME_ZONE", "America/New_York"),
		IndieAuthMe:           env("INDIEAUTH_ME", "https://example.com/"),
		IndieAuthTokenURL:     env("INDIEAUTH_TOKEN_ENDPOINT", "https://tokens.indieauth.com/token"),
		IndieAuthBypassSecret: strings.TrimSpace(os.Getenv("INDIEAUTH_BYPASS_SECRET")),
		RedisURL:              strings.TrimSpace(os.Getenv("REDIS_URL")),
		PageCacheTTL:          cacheTTL,
		SettingsFile:          env("SETTINGS_FILE", "settings.yaml"),
		ResumeFile:            env("RESUME_FILE", "resume.yaml"),
		LogLevel:              env("LOG_LEVEL", "info"),
		SuperRootUserName:     strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword:     strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
	}
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
