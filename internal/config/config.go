package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// bbws
	BBWSURL                string
	BBWSClientID           string
	BBWSClientSecret       string
	BBWSTimeout            time.Duration
	BBWSBreakerMaxFailures int
	BBWSBreakerTimeout     time.Duration

	// Entity
	ReferenceCacheTTL time.Duration
	ReconcileStrategy string

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitSubmit  int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は、未設定の変数をまとめてエラーで返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DatabaseURL = required("DATABASE_URL")
	cfg.BBWSURL = strings.TrimRight(required("BBWS_URL"), "/")
	cfg.BBWSClientID = required("BBWS_CLIENT_ID")
	cfg.BaseURL = required("BASE_URL")

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BBWSClientSecret = getEnvString("BBWS_CLIENT_SECRET", "")
	cfg.BBWSTimeout = getEnvDuration("BBWS_TIMEOUT", 10*time.Second)
	cfg.BBWSBreakerMaxFailures = getEnvInt("BBWS_BREAKER_MAX_FAILURES", 5)
	cfg.BBWSBreakerTimeout = getEnvDuration("BBWS_BREAKER_TIMEOUT", 30*time.Second)
	cfg.ReferenceCacheTTL = getEnvDuration("REFERENCE_CACHE_TTL", 10*time.Minute)
	cfg.ReconcileStrategy = getEnvString("RECONCILE_STRATEGY", "positional")
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
