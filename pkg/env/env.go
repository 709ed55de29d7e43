// Package env reads the few settings needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, or fallback.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}

// Instance names the running process in logs: the platform's dyno or
// hostname, else "local".
func Instance() string {
	if id := First("", "ROPERITO_INSTANCE", "DYNO", "HOSTNAME"); id != "" {
		return id
	}
	return "local"
}
