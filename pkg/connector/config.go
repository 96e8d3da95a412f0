// Package connector implements connector configuration resolution for the
// Stratus platform: which endpoint, credentials and session a unit of work
// uses, chosen from multiple sources with a fixed precedence, and carried to
// downstream calls on the request context.
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultAPIVersion is used when no configuration source specifies one.
const DefaultAPIVersion = "v1"

// RenewFunc re-establishes a platform session after the platform signals
// expiration. It returns the new session id. Implementations must not retry
// internally; the API client retries the failed operation exactly once.
type RenewFunc func(ctx context.Context, cfg *Config) (string, error)

// Config is the bundle of endpoint, credentials/session and behaviour hooks
// needed to open a connection to the platform. It is assembled by a caller
// and treated as immutable once handed to a connection attempt.
type Config struct {
	// Endpoint is the base URL of the platform instance, e.g.
	// https://login.stratus.example.
	Endpoint string
	// Username and Password authenticate via login when no session is held.
	Username string
	Password string
	// SessionID is an already established platform session. When set it is
	// used directly and no login is performed.
	SessionID string
	// APIVersion selects the platform API version, e.g. "v1".
	APIVersion string
	// Timeout bounds individual platform calls. Zero means the HTTP
	// client's default.
	Timeout time.Duration
	// SessionRenewer, when non-nil, is invoked on session expiration.
	SessionRenewer RenewFunc
}

// Validate reports whether the configuration is complete enough to attempt a
// connection: an endpoint plus either a session id or a full credential pair.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config: %w", ErrConfigInvalid)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("missing endpoint: %w", ErrConfigInvalid)
	}
	if c.SessionID != "" {
		return nil
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("missing credentials: %w", ErrConfigInvalid)
	}
	return nil
}

// Clone returns a copy detached from the caller so that a configuration
// handed to a connection attempt stays stable even if the source mutates.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
