package connector

import (
	"context"
	"time"

	apperrors "github.com/stratushq/stratus-go-sdk/pkg/app/errors"
)

// Property keys recognised in a static property source.
const (
	PropURL        = "url"
	PropEndpoint   = "endpoint"
	PropUser       = "user"
	PropPassword   = "password"
	PropAPIVersion = "api_version"
	PropTimeout    = "timeout"
)

// Properties is a static key/value configuration source, typically loaded
// from the application config file.
type Properties map[string]string

// Source identifies which configuration source won a resolution.
type Source string

const (
	// SourceContext means the context-bound configuration was used verbatim.
	SourceContext Source = "context"
	// SourceURL means the connection-URL property was parsed and used.
	SourceURL Source = "connection_url"
	// SourceProperties means separate endpoint/user/password properties
	// were combined.
	SourceProperties Source = "properties"
)

// Resolver produces exactly one effective configuration per connection
// attempt. Sources are consulted in fixed precedence:
//
//  1. a context-bound Config, if present;
//  2. a connection-URL property;
//  3. separate endpoint/user/password properties.
//
// Exactly one source wins; partial configurations from different sources are
// never merged. A higher precedence source that is present but malformed
// fails the attempt rather than silently falling through.
type Resolver struct {
	Props Properties
}

// NewResolver creates a resolver over the given static properties. A nil map
// is treated as empty.
func NewResolver(props Properties) *Resolver {
	return &Resolver{Props: props}
}

// Resolve returns the effective configuration for this attempt along with
// the source that produced it. The returned Config is detached from the
// winning source.
func (r *Resolver) Resolve(ctx context.Context) (*Config, Source, error) {
	if cfg, ok := ConfigFromContext(ctx); ok {
		if err := cfg.Validate(); err != nil {
			return nil, SourceContext, apperrors.ConfigInvalidError(err, "context-bound configuration is malformed")
		}
		return cfg.Clone(), SourceContext, nil
	}

	props := r.Props
	if props == nil {
		props = Properties{}
	}

	if raw := props[PropURL]; raw != "" {
		cfg, err := ParseURL(raw)
		if err != nil {
			return nil, SourceURL, apperrors.ConfigInvalidError(err, "connection url property is malformed")
		}
		return cfg, SourceURL, nil
	}

	if props[PropEndpoint] == "" && props[PropUser] == "" && props[PropPassword] == "" {
		return nil, "", apperrors.ConfigMissingError(ErrConfigMissing, "no configuration source available")
	}

	cfg := &Config{
		Endpoint:   props[PropEndpoint],
		Username:   props[PropUser],
		Password:   props[PropPassword],
		APIVersion: props[PropAPIVersion],
	}
	if t := props[PropTimeout]; t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, SourceProperties, apperrors.ConfigInvalidError(ErrConfigInvalid, "timeout property is malformed")
		}
		cfg.Timeout = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, SourceProperties, apperrors.ConfigInvalidError(err, "connection properties are incomplete")
	}
	return cfg, SourceProperties, nil
}
