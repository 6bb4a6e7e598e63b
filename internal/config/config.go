package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	FrontendDir  string
	LogDir       string
	Debug        bool
	Security     SecurityConfig
}

// SecurityConfig configures the login-attempt detector and the IP registry enforcement.
type SecurityConfig struct {
	// EnforceBlocklist rejects API requests whose client IP is blocked in the registry.
	EnforceBlocklist bool
	// SweepSchedule is the cron spec of the expired auto-block sweep.
	SweepSchedule string
	// NotifyURLs are shoutrrr service URLs notified on auto-block and auto-unblock.
	NotifyURLs []string
}

// DefaultSweepSchedule runs the expired auto-block sweep once a minute.
const DefaultSweepSchedule = "@every 1m"

// Load reads env vars (optionally from a .env file) and falls back to defaults
// so the server can boot with zero configuration.
func Load() (Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Environment:  getEnv("WARDEN_ENV", "development"),
		HTTPPort:     getEnv("WARDEN_HTTP_PORT", "8080"),
		DatabasePath: getEnv("WARDEN_DB_PATH", filepath.Join("data", "warden.db")),
		FrontendDir:  getEnv("WARDEN_FRONTEND_DIR", filepath.Clean(filepath.Join("..", "frontend", "dist"))),
		LogDir:       getEnv("WARDEN_LOG_DIR", filepath.Join("data", "logs")),
		Debug:        getEnvBool("WARDEN_DEBUG", false),
		Security: SecurityConfig{
			EnforceBlocklist: getEnvBool("WARDEN_ENFORCE_BLOCKLIST", false),
			SweepSchedule:    getEnv("WARDEN_SWEEP_SCHEDULE", DefaultSweepSchedule),
			NotifyURLs:       splitList(os.Getenv("WARDEN_NOTIFY_URLS")),
		},
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
