// Package config loads client settings from LABRAT_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Profile store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1/token"
	DefaultRedirectURL = "http://127.0.0.1:8085/callback"
)

// Config holds client configuration.
type Config struct {
	APIKey      string // LABRAT_API_KEY
	IdentityURL string // LABRAT_IDENTITY_URL
	TokenURL    string // LABRAT_TOKEN_URL
	ScoringURL  string // LABRAT_SCORING_URL

	GoogleClientID     string // LABRAT_GOOGLE_CLIENT_ID
	GoogleClientSecret string // LABRAT_GOOGLE_CLIENT_SECRET
	GoogleRedirectURL  string // LABRAT_GOOGLE_REDIRECT_URL

	ProfileStore string // LABRAT_PROFILE_STORE: memory, postgres or redis
	DatabaseDSN  string // LABRAT_DATABASE_DSN
	RedisURL     string // LABRAT_REDIS_URL

	StateDir    string        // LABRAT_STATE_DIR, empty means the user config dir
	HTTPTimeout time.Duration // LABRAT_HTTP_TIMEOUT
	Insecure    bool          // LABRAT_INSECURE: allow plain http endpoints
	Debug       bool          // LABRAT_DEBUG
}

// Load reads envFile (".env" when empty; a missing default file is fine)
// and then the environment. Real environment variables win over the file.
func Load(envFile string) (*Config, error) {
	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment.
func FromEnv() (*Config, error) {
	c := &Config{
		APIKey:             os.Getenv("LABRAT_API_KEY"),
		IdentityURL:        getEnvOrDefault("LABRAT_IDENTITY_URL", DefaultIdentityURL),
		TokenURL:           getEnvOrDefault("LABRAT_TOKEN_URL", DefaultTokenURL),
		ScoringURL:         os.Getenv("LABRAT_SCORING_URL"),
		GoogleClientID:     os.Getenv("LABRAT_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("LABRAT_GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnvOrDefault("LABRAT_GOOGLE_REDIRECT_URL", DefaultRedirectURL),
		ProfileStore:       getEnvOrDefault("LABRAT_PROFILE_STORE", StoreMemory),
		DatabaseDSN:        os.Getenv("LABRAT_DATABASE_DSN"),
		RedisURL:           os.Getenv("LABRAT_REDIS_URL"),
		StateDir:           os.Getenv("LABRAT_STATE_DIR"),
		HTTPTimeout:        30 * time.Second,
	}

	var err error
	if v := os.Getenv("LABRAT_HTTP_TIMEOUT"); v != "" {
		if c.HTTPTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("config: LABRAT_HTTP_TIMEOUT: %w", err)
		}
	}
	if c.Insecure, err = envBool("LABRAT_INSECURE"); err != nil {
		return nil, err
	}
	if c.Debug, err = envBool("LABRAT_DEBUG"); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return errors.New("config: http timeout must be positive")
	}
	for name, u := range map[string]string{
		"identity url": c.IdentityURL,
		"token url":    c.TokenURL,
		"scoring url":  c.ScoringURL,
	} {
		if u == "" {
			continue
		}
		if err := c.checkURL(name, u); err != nil {
			return err
		}
	}
	switch c.ProfileStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("config: postgres profile store needs LABRAT_DATABASE_DSN")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("config: redis profile store needs LABRAT_REDIS_URL")
		}
	default:
		return fmt.Errorf("config: unknown profile store %q", c.ProfileStore)
	}
	return nil
}

// RequireIdentity reports whether the identity provider is configured.
func (c *Config) RequireIdentity() error {
	if c.APIKey == "" {
		return errors.New("config: LABRAT_API_KEY is required")
	}
	return nil
}

// RequireScoring reports whether the scoring endpoint is configured.
func (c *Config) RequireScoring() error {
	if c.ScoringURL == "" {
		return errors.New("config: LABRAT_SCORING_URL is required")
	}
	return nil
}

// RequireGoogle reports whether the Google OAuth client is configured.
func (c *Config) RequireGoogle() error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		return errors.New("config: LABRAT_GOOGLE_CLIENT_ID and LABRAT_GOOGLE_CLIENT_SECRET are required")
	}
	return nil
}

// checkURL requires https unless Insecure is set.
func (c *Config) checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	if u.Host == "" {
		return fmt.Errorf("config: %s %q has no host", name, raw)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if c.Insecure {
			return nil
		}
		return fmt.Errorf("config: %s must use https (set --insecure for local testing)", name)
	default:
		return fmt.Errorf("config: %s has unsupported scheme %q", name, u.Scheme)
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
