// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the process-level knobs. Tenant definitions live in a
// separate YAML file, see tenants.go.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	DataDir         string
	TenantsFile     string
	CredentialsFile string
	PushTimeout     time.Duration
	// Debug skips every marketplace send and routes changed rows through
	// the rejection path, so a full cycle can be exercised against real
	// sheets without touching live prices.
	Debug bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 30),
		DataDir:         getenv("DATA_DIR", "databases"),
		TenantsFile:     getenv("TENANTS_FILE", "tenants.yaml"),
		CredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE", "access/credentials.json"),
		PushTimeout:     durenvs("PUSH_TIMEOUT", 60),
		Debug:           boolenv("DEBUG", false),
	}
}
