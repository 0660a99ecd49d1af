package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidConfig = errors.New("invalid config")

// Validate reports every missing or out-of-range variable at once so a
// misconfigured deployment fails with the full list.
func (c Config) Validate() error {
	var missing, invalid []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(c.JWTAccessSecret) == 0 {
		missing = append(missing, "JWT_SECRET")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		invalid = append(invalid, fmt.Sprintf("SERVER_PORT=%d", c.ServerPort))
	}
	if c.RedisDB < 0 {
		invalid = append(invalid, fmt.Sprintf("REDIS_DB=%d", c.RedisDB))
	}
	if c.ZoneCacheTTL <= 0 {
		invalid = append(invalid, fmt.Sprintf("ZONE_CACHE_TTL_SECONDS=%d", int(c.ZoneCacheTTL.Seconds())))
	}
	if len(c.KafkaBrokers) > 0 && c.ZoneEventsTopic == "" {
		missing = append(missing, "ZONE_EVENTS_TOPIC")
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "out of range "+strings.Join(invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}
