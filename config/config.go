package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config contains runtime configuration values.
type Config struct {
	Environment     string
	Port            string
	DatabaseDSN     string
	JWTSecret       []byte
	UploadBase      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AutoMigrate     bool
}

// Load reads configuration from environment variables with sane defaults.
// DB_DSN is the only mandatory value.
func Load() (Config, error) {
	cfg := Config{
		Environment:     getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8081"),
		DatabaseDSN:     os.Getenv("DB_DSN"),
		UploadBase:      getEnv("UPLOAD_BASE", "uploads"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
	}

	if cfg.DatabaseDSN == "" {
		return Config{}, fmt.Errorf("DB_DSN is not set; a Postgres DSN is required")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	cfg.JWTSecret = []byte(secret)

	return cfg, nil
}

// LicenseDir is where uploaded license documents land and where the scan
// worker watches.
func (c Config) LicenseDir() string {
	return filepath.Join(c.UploadBase, "licenses")
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
