package util

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// GetEnv returns the value of the environment variable or the default.
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// GetEnvAsInt returns the environment variable parsed as int or the default.
func GetEnvAsInt(key string, defaultVal int) int {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.Atoi(strVal)
	if err != nil {
		log.Error().Str("key", key).Str("value", strVal).Msg("Failed to parse env variable as int, returning default")
		return defaultVal
	}
	return val
}

// GetEnvAsInt64 returns the environment variable parsed as int64 or the default.
func GetEnvAsInt64(key string, defaultVal int64) int64 {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.ParseInt(strVal, 10, 64)
	if err != nil {
		log.Error().Str("key", key).Str("value", strVal).Msg("Failed to parse env variable as int64, returning default")
		return defaultVal
	}
	return val
}

// GetEnvAsBool returns the environment variable parsed as bool or the default.
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.ParseBool(strVal)
	if err != nil {
		log.Error().Str("key", key).Str("value", strVal).Msg("Failed to parse env variable as bool, returning default")
		return defaultVal
	}
	return val
}

// GetEnvAsDuration returns the environment variable parsed as a duration
// string (e.g. "30s", "5m") or the default.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := time.ParseDuration(strVal)
	if err != nil {
		log.Error().Str("key", key).Str("value", strVal).Msg("Failed to parse env variable as duration, returning default")
		return defaultVal
	}
	return val
}

// GetEnvAsStringSlice returns the environment variable split on commas or the
// default. Empty elements are dropped.
func GetEnvAsStringSlice(key string, defaultVal []string) []string {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	parts := strings.Split(strVal, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
