// Package imapstore implements the mail.Store capability set against a
// remote IMAP server using emersion/go-imap. Each operation gets its own
// connection: dial, authenticate, select read-only, work, logout. No
// connection is shared or pooled across operations.
package imapstore

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"go.uber.org/zap"
)

// AuthMethod selects how the IMAP session authenticates.
type AuthMethod string

const (
	// AuthPassword uses LOGIN with a username and password.
	AuthPassword AuthMethod = "password"

	// AuthOAuthBearer uses the SASL OAUTHBEARER mechanism with an
	// access token.
	AuthOAuthBearer AuthMethod = "oauthbearer"
)

// Config holds the IMAP endpoint and credentials.
type Config struct {
	// Host is the IMAP server hostname.
	Host string

	// Port is the IMAPS port, usually 993.
	Port int

	// Username is the account name.
	Username string

	// Password authenticates AuthPassword sessions.
	Password string

	// AccessToken authenticates AuthOAuthBearer sessions.
	AccessToken string

	// Auth selects the authentication mechanism.
	Auth AuthMethod

	// InsecureSkipVerify disables TLS certificate verification. Only
	// for test servers.
	InsecureSkipVerify bool
}

// Addr returns the dial address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the config for completeness.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("imap host is required")
	}
	if c.Username == "" {
		return fmt.Errorf("imap username is required")
	}
	switch c.Auth {
	case AuthPassword:
		if c.Password == "" {
			return fmt.Errorf("imap password is required")
		}
	case AuthOAuthBearer:
		if c.AccessToken == "" {
			return fmt.Errorf("imap access token is required")
		}
	default:
		return fmt.Errorf("unknown auth method %q", c.Auth)
	}
	return nil
}

// dial opens and authenticates one IMAP connection. The context only gates
// the call itself; go-imap v1 manages its own I/O deadlines.
func dial(ctx context.Context, cfg Config,
	log *zap.Logger) (*client.Client, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	c, err := client.DialTLS(cfg.Addr(), tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr(), err)
	}

	if err := authenticate(c, cfg); err != nil {
		c.Logout()
		return nil, err
	}

	log.Debug("imap connection established",
		zap.String("host", cfg.Host),
		zap.String("auth", string(cfg.Auth)),
	)
	return c, nil
}

// authenticate logs the connection in using the configured mechanism.
func authenticate(c *client.Client, cfg Config) error {
	switch cfg.Auth {
	case AuthOAuthBearer:
		sc := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
			Username: cfg.Username,
			Token:    cfg.AccessToken,
			Host:     cfg.Host,
			Port:     cfg.Port,
		})
		if err := c.Authenticate(sc); err != nil {
			return fmt.Errorf("oauth authentication: %w", err)
		}
	default:
		if err := c.Login(cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	return nil
}
