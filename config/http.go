package config

import (
	"strings"
	"time"
)

func Port() string {
	return stringFromEnv("PORT", "8080")
}

func IsProduction() bool {
	return strings.EqualFold(stringFromEnv("GO_ENV", ""), "production")
}

// CorsAllowedOrigins reads the comma separated CORS_ALLOWED_ORIGINS list.
func CorsAllowedOrigins() []string {
	raw := stringFromEnv("CORS_ALLOWED_ORIGINS", "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RateLimit returns the per-IP request budget.
//
// Set via env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_MAX_REQUESTS=600
// - RATE_LIMIT_WINDOW_SECONDS=60
func RateLimit() (enabled bool, limit int64, window time.Duration) {
	enabled = boolFromEnv("RATE_LIMIT_ENABLED")
	limit = int64(intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600))
	if limit <= 0 {
		limit = 600
	}
	seconds := intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
	if seconds <= 0 {
		seconds = 60
	}
	return enabled, limit, time.Duration(seconds) * time.Second
}
