package connector

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Scheme is the connection URL scheme identifying the Stratus connector.
const Scheme = "stratus"

// ParseURL parses a connection URL of either form:
//
//	stratus://login.stratus.example;user=dev@acme.com;password=secret
//	stratus://login.stratus.example?user=dev@acme.com&password=secret
//
// The host (and optional path) identify the platform endpoint; parameters
// supply credentials or a session id plus optional api/timeout overrides.
// The endpoint defaults to https unless insecure=true is given.
func ParseURL(raw string) (*Config, error) {
	endpoint, params, err := ParseURLParams(raw)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Endpoint:   endpoint,
		Username:   params["user"],
		Password:   params["password"],
		SessionID:  params["sessionid"],
		APIVersion: params["api"],
	}

	if t := params["timeout"]; t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("connection url timeout %q: %w", t, ErrConfigInvalid)
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseURLParams splits a connection URL into its endpoint and raw parameter
// map without imposing a credential shape. Callers that accept other
// parameter sets (such as the OAuth key/secret form) build on this.
func ParseURLParams(raw string) (string, map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, fmt.Errorf("empty connection url: %w", ErrConfigInvalid)
	}

	rest, ok := strings.CutPrefix(raw, Scheme+"://")
	if !ok {
		return "", nil, fmt.Errorf("connection url %q must use scheme %q: %w", raw, Scheme, ErrConfigInvalid)
	}

	// Split off semicolon parameters first; the remainder may still carry a
	// query string.
	segments := strings.Split(rest, ";")
	hostPart := segments[0]

	params := map[string]string{}
	for _, seg := range segments[1:] {
		if seg == "" {
			continue
		}
		k, v, found := strings.Cut(seg, "=")
		if !found || k == "" {
			return "", nil, fmt.Errorf("malformed parameter %q in connection url: %w", seg, ErrConfigInvalid)
		}
		params[strings.ToLower(k)] = v
	}

	if hostPart == "" {
		return "", nil, fmt.Errorf("connection url %q has no host: %w", raw, ErrConfigInvalid)
	}

	u, err := url.Parse("https://" + hostPart)
	if err != nil {
		return "", nil, fmt.Errorf("connection url %q: %v: %w", raw, err, ErrConfigInvalid)
	}
	if u.Host == "" {
		return "", nil, fmt.Errorf("connection url %q has no host: %w", raw, ErrConfigInvalid)
	}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			params[strings.ToLower(k)] = vs[0]
		}
	}

	scheme := "https"
	if params["insecure"] == "true" {
		scheme = "http"
	}
	endpoint := scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/")
	return endpoint, params, nil
}
