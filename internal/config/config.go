// Package config loads server configuration from environment variables and
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// IMAPConfig is the connection configuration for the IMAP server.
type IMAPConfig struct {
	// Host is the IMAP server hostname.
	Host string

	// Port is the IMAPS port.
	Port int

	// Username is the account to authenticate as.
	Username string

	// Password is the account password for password auth.
	Password string

	// AccessToken is the OAuth access token for oauthbearer auth.
	AccessToken string

	// Auth selects the mechanism: "password" or "oauthbearer".
	Auth string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// QueryConfig bounds the query operations.
type QueryConfig struct {
	// MaxPageSize is the hard cap on any page size.
	MaxPageSize int

	// DefaultPageSize is used when a caller leaves the limit unset.
	DefaultPageSize int

	// SnippetLength bounds snippet text in runes.
	SnippetLength int
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string

	// Development switches to a human-readable console encoder.
	Development bool

	// File is an optional log file path; empty logs to stderr. Logging
	// to stdout would corrupt the stdio MCP transport.
	File string
}

// Config is the root configuration.
type Config struct {
	IMAP  IMAPConfig
	Query QueryConfig
	Log   LogConfig
}

// Load reads configuration from the environment, with an optional .env
// file as fallback. Environment variables use the IMAPMCP_ prefix, e.g.
// IMAPMCP_IMAP_HOST and IMAPMCP_IMAP_PASSWORD.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("imapmcp")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("imap.host", "")
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.access_token", "")
	v.SetDefault("imap.auth", "password")
	v.SetDefault("imap.insecure_skip_verify", false)

	v.SetDefault("query.max_page_size", 200)
	v.SetDefault("query.default_page_size", 50)
	v.SetDefault("query.snippet_length", 200)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")

	cfg := &Config{
		IMAP: IMAPConfig{
			Host:               v.GetString("imap.host"),
			Port:               v.GetInt("imap.port"),
			Username:           v.GetString("imap.username"),
			Password:           v.GetString("imap.password"),
			AccessToken:        v.GetString("imap.access_token"),
			Auth:               v.GetString("imap.auth"),
			InsecureSkipVerify: v.GetBool("imap.insecure_skip_verify"),
		},
		Query: QueryConfig{
			MaxPageSize:     v.GetInt("query.max_page_size"),
			DefaultPageSize: v.GetInt("query.default_page_size"),
			SnippetLength:   v.GetInt("query.snippet_length"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations that cannot produce a working server.
func (c *Config) validate() error {
	if c.IMAP.Host == "" {
		return fmt.Errorf("imap.host is required (IMAPMCP_IMAP_HOST)")
	}
	if c.IMAP.Username == "" {
		return fmt.Errorf(
			"imap.username is required (IMAPMCP_IMAP_USERNAME)",
		)
	}
	if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
		return fmt.Errorf("imap.port %d is out of range", c.IMAP.Port)
	}

	switch c.IMAP.Auth {
	case "password":
		if c.IMAP.Password == "" {
			return fmt.Errorf(
				"imap.password is required for password auth",
			)
		}
	case "oauthbearer":
		if c.IMAP.AccessToken == "" {
			return fmt.Errorf(
				"imap.access_token is required for oauthbearer auth",
			)
		}
	default:
		return fmt.Errorf("imap.auth %q is not supported", c.IMAP.Auth)
	}

	if c.Query.MaxPageSize < 1 {
		return fmt.Errorf("query.max_page_size must be positive")
	}
	if c.Query.DefaultPageSize < 1 ||
		c.Query.DefaultPageSize > c.Query.MaxPageSize {

		return fmt.Errorf(
			"query.default_page_size must be in [1, %d]",
			c.Query.MaxPageSize,
		)
	}
	return nil
}

// loadEnvFile loads a .env file from the working directory or its parent.
// Missing files are fine; the environment simply wins.
func loadEnvFile() {
	for _, path := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}
