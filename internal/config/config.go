// Package config reads the HTTP service configuration from the environment.
package config

import (
	"os"
	"strings"
)

// Selection store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQL    = "sql"
)

type Config struct {
	HTTPAddr string

	// Protocol is a built-in protocol name or a YAML file path. Empty
	// selects the canonical table.
	Protocol string

	SelectionStore string // memory|file|sql
	SelectionDir   string // for file

	DBDriver string
	DBDSN    string

	JWTSecret     string
	AdminUser     string
	AdminPassHash string // bcrypt; empty disables protocol upload

	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envOr("RADTECH_ADDR", ":8080"),
		Protocol:       os.Getenv("RADTECH_PROTOCOL"),
		SelectionStore: strings.ToLower(envOr("RADTECH_SELECTION_STORE", StoreFile)),
		SelectionDir:   envOr("RADTECH_SELECTION_DIR", "./data"),
		DBDriver:       envOr("RADTECH_DB_DRIVER", "sqlite"),
		DBDSN:          envOr("RADTECH_DB_DSN", ""),
		JWTSecret:      os.Getenv("RADTECH_JWT_SECRET"),
		AdminUser:      envOr("RADTECH_ADMIN_USER", "admin"),
		AdminPassHash:  os.Getenv("RADTECH_ADMIN_PASSWORD_HASH"),
		CORSOrigins:    csvOr("RADTECH_CORS_ORIGINS", "http://localhost:8080"),
		LogLevel:       envOr("RADTECH_LOG_LEVEL", "info"),
		LogFormat:      envOr("RADTECH_LOG_FORMAT", "json"),
	}
}

// AdminEnabled reports whether protocol upload can be authorized.
func (c Config) AdminEnabled() bool {
	return c.AdminPassHash != ""
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
