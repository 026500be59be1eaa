package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvAPIURL  = "DASHBOARD_API_URL"
	EnvState   = "DASHBOARD_STATE"
	EnvTimeout = "DASHBOARD_TIMEOUT"
)

// Defaults.
const (
	DefaultAPIURL  = "http://localhost:3001"
	DefaultTimeout = 30 * time.Second
)

// Config holds client settings.
type Config struct {
	APIURL    string
	StatePath string
	Timeout   time.Duration
}

// Load reads .env files named in files (default ".env") when present, then
// the environment. A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
			log.Printf("[env] loaded %s", f)
		}
	}

	cfg := Config{
		APIURL:    envOr(EnvAPIURL, DefaultAPIURL),
		StatePath: os.Getenv(EnvState),
		Timeout:   DefaultTimeout,
	}

	if cfg.StatePath == "" {
		p, err := DefaultStatePath()
		if err != nil {
			return Config{}, err
		}
		cfg.StatePath = p
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q", EnvTimeout, v)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// DefaultStatePath is ~/.dashboard/state.db.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".dashboard", "state.db"), nil
}

// EnsureStateDir creates the directory holding path with owner-only access.
func EnsureStateDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0700)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
