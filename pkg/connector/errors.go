package connector

import "errors"

// Typed errors returned by configuration resolution. Callers should rely on
// errors.Is with the exported variables rather than string comparison; the
// resolver additionally wraps them in app error categories for transport.

var (
	// ErrConfigMissing is returned when no configuration source yields a
	// usable connector configuration.
	ErrConfigMissing = errors.New("no connector configuration available")

	// ErrConfigInvalid is returned when the winning configuration source is
	// present but malformed. Resolution never falls through to a lower
	// precedence source in this case.
	ErrConfigInvalid = errors.New("connector configuration invalid")

	// ErrSessionExpired is returned when the platform rejects the session id
	// and no renewal succeeded.
	ErrSessionExpired = errors.New("platform session expired")

	// ErrAuthorizationDenied is returned when the platform rejects the
	// authenticated user for the requested operation.
	ErrAuthorizationDenied = errors.New("authorization denied")
)
