// Package env holds the small shims around process environment lookups
// that run before the typed configuration is loaded.
package env

import "os"

// Get reads key from the environment, falling back when it is unset or
// blank. Used for early boot values like PORT overrides.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
