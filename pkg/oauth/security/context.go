// Package security holds the client-side authentication state for the OAuth
// flow: the SecurityContext issued after a successful handshake and the
// stores that persist it between requests (encrypted cookie, Redis-backed
// server session, in-memory).
package security

import (
	"net/http"
	"time"
)

// SecurityContext is the server-issued proof of authentication cached
// client-side between requests.
type SecurityContext struct {
	SessionID string    `json:"sessionId"`
	Endpoint  string    `json:"endpoint"`
	UserName  string    `json:"userName,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the context can still authenticate a request.
func (sc *SecurityContext) Valid() bool {
	if sc == nil || sc.SessionID == "" || sc.Endpoint == "" {
		return false
	}
	return sc.ExpiresAt.IsZero() || time.Now().Before(sc.ExpiresAt)
}

// Store persists a SecurityContext between requests, keyed by a
// request-supplied identifier (a cookie).
type Store interface {
	// Save persists sc for the requesting client.
	Save(w http.ResponseWriter, r *http.Request, sc *SecurityContext) error
	// Load retrieves the stored context, or (nil, nil) when none exists.
	Load(r *http.Request) (*SecurityContext, error)
	// Clear discards the stored context.
	Clear(w http.ResponseWriter, r *http.Request) error
}
