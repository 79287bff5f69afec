// Package config reads service configuration from environment variables.
// Every lookup falls back to a default so the binaries run without any
// environment prepared; a malformed value is logged and treated as unset.
package config

import (
	"log"
	"os"
	"strconv"
)

// GetString returns the named environment variable, or fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt returns the named environment variable parsed as an integer.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool returns the named environment variable parsed as a boolean.
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
