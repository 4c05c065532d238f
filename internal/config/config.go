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
	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Seed
	SeedFile      string        // 空の場合は埋め込みの初期データを使う
	ResetInterval time.Duration // 0の場合は定期リセットを行わない

	// Content
	SanitizeContent bool // 応答に含める投稿・コメントのHTMLを除去する。保存値は変更しない

	// Metrics
	MetricsEnabled bool

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 値が不正な場合は、不正な環境変数名をすべて含めたエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:        getEnvString("SERVER_PORT", "8080"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		SeedFile:          os.Getenv("SEED_FILE"),
		LogLevel:          strings.ToLower(getEnvString("LOG_LEVEL", "info")),
	}

	var invalid []string

	sanitize, err := getEnvBool("SANITIZE_CONTENT", false)
	if err != nil {
		invalid = append(invalid, "SANITIZE_CONTENT")
	}
	cfg.SanitizeContent = sanitize

	metricsEnabled, err := getEnvBool("METRICS_ENABLED", true)
	if err != nil {
		invalid = append(invalid, "METRICS_ENABLED")
	}
	cfg.MetricsEnabled = metricsEnabled

	if port, err := strconv.Atoi(cfg.ServerPort); err != nil || port < 1 || port > 65535 {
		invalid = append(invalid, "SERVER_PORT")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "LOG_LEVEL")
	}

	interval, err := getEnvDuration("RESET_INTERVAL", 0)
	if err != nil || interval < 0 {
		invalid = append(invalid, "RESET_INTERVAL")
	}
	cfg.ResetInterval = interval

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}

	return cfg, nil
}

// Addr はHTTPサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}
