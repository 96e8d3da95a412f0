package connector

import (
	"fmt"
	"os"
	"strings"
	"sync"

	apperrors "github.com/stratushq/stratus-go-sdk/pkg/app/errors"
)

// Named connections let deployments refer to a connection by a symbolic name
// instead of carrying a URL around. Lookup order: the environment variable
// STRATUS_CONNECTION_<NAME>, then connections registered at startup (usually
// from the "connections" section of the config file).

var (
	namedMu sync.RWMutex
	named   = map[string]string{}
)

// RegisterNamed associates a connection URL with a name. URL syntax is
// checked eagerly so misconfiguration surfaces at startup; the credential
// shape is checked at use, since the same name can serve both the
// user/password and OAuth key/secret forms.
func RegisterNamed(name, rawURL string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty connection name: %w", ErrConfigInvalid)
	}
	if _, _, err := ParseURLParams(rawURL); err != nil {
		return fmt.Errorf("named connection %q: %w", name, err)
	}
	namedMu.Lock()
	named[strings.ToLower(name)] = rawURL
	namedMu.Unlock()
	return nil
}

// LookupNamed resolves a named connection to a configuration.
func LookupNamed(name string) (*Config, error) {
	raw, err := LookupNamedURL(name)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseURL(raw)
	if err != nil {
		return nil, apperrors.ConfigInvalidError(err, fmt.Sprintf("connection url for %q is malformed", name))
	}
	return cfg, nil
}

// LookupNamedURL resolves a named connection to its raw URL.
func LookupNamedURL(name string) (string, error) {
	if raw := os.Getenv(envVarName(name)); raw != "" {
		return raw, nil
	}

	namedMu.RLock()
	raw, ok := named[strings.ToLower(name)]
	namedMu.RUnlock()
	if !ok {
		return "", apperrors.ConfigMissingError(ErrConfigMissing, fmt.Sprintf("no connection named %q", name))
	}
	return raw, nil
}

func envVarName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	return "STRATUS_CONNECTION_" + mapped
}
