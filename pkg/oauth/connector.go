// Package oauth implements web authentication against the Stratus platform:
// the OAuth handshake connector and the HTTP filter that gates application
// routes behind it.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	apperrors "github.com/stratushq/stratus-go-sdk/pkg/app/errors"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth/security"
)

const (
	authorizePath = "/services/oauth2/authorize"
	tokenPath     = "/services/oauth2/token"
)

// ConnectionInfo identifies the OAuth client registration on the platform.
type ConnectionInfo struct {
	Endpoint string
	Key      string
	Secret   string
}

// Validate reports whether the registration is complete.
func (ci *ConnectionInfo) Validate() error {
	if ci.Endpoint == "" || ci.Key == "" || ci.Secret == "" {
		return fmt.Errorf("oauth connection requires endpoint, key and secret: %w", connector.ErrConfigInvalid)
	}
	return nil
}

// ParseConnectionInfo parses an OAuth connection URL of the form
//
//	stratus://login.stratus.example?oauth_key=K&oauth_secret=S
//
// (semicolon parameters are accepted as with connector URLs).
func ParseConnectionInfo(raw string) (*ConnectionInfo, error) {
	endpoint, params, err := connector.ParseURLParams(raw)
	if err != nil {
		return nil, err
	}
	info := &ConnectionInfo{
		Endpoint: endpoint,
		Key:      params["oauth_key"],
		Secret:   params["oauth_secret"],
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

// LookupNamedConnectionInfo resolves a named connection carrying OAuth
// key/secret parameters.
func LookupNamedConnectionInfo(name string) (*ConnectionInfo, error) {
	raw, err := connector.LookupNamedURL(name)
	if err != nil {
		return nil, err
	}
	info, err := ParseConnectionInfo(raw)
	if err != nil {
		return nil, apperrors.ConfigInvalidError(err, fmt.Sprintf("oauth connection url for %q is malformed", name))
	}
	return info, nil
}

// Connector drives the OAuth handshake: building the login redirect,
// exchanging the authorization code and assembling the SecurityContext.
type Connector struct {
	info          ConnectionInfo
	callbackPath  string
	retriever     UserDataRetriever
	verifier      *IDTokenVerifier
	storeUsername bool
	sessionTTL    time.Duration
	httpClient    *http.Client
	logger        *zap.Logger
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithCallbackPath overrides the handshake callback path (default /_auth).
func WithCallbackPath(p string) ConnectorOption {
	return func(c *Connector) { c.callbackPath = p }
}

// WithUserDataRetriever overrides how user data is fetched after the
// handshake. The default retriever queries the platform identity endpoint.
func WithUserDataRetriever(r UserDataRetriever) ConnectorOption {
	return func(c *Connector) { c.retriever = r }
}

// WithIDTokenVerifier enables verification of the identity token returned
// with the access token.
func WithIDTokenVerifier(v *IDTokenVerifier) ConnectorOption {
	return func(c *Connector) { c.verifier = v }
}

// WithoutUsernameStorage keeps the username out of the persisted context.
func WithoutUsernameStorage() ConnectorOption {
	return func(c *Connector) { c.storeUsername = false }
}

// WithSessionTTL bounds the lifetime of issued security contexts.
func WithSessionTTL(ttl time.Duration) ConnectorOption {
	return func(c *Connector) { c.sessionTTL = ttl }
}

// WithHTTPClient sets the HTTP client used for the token exchange.
func WithHTTPClient(hc *http.Client) ConnectorOption {
	return func(c *Connector) { c.httpClient = hc }
}

// WithLogger sets the connector logger.
func WithLogger(l *zap.Logger) ConnectorOption {
	return func(c *Connector) { c.logger = l }
}

// NewConnector creates an OAuth connector for the given client registration.
func NewConnector(info ConnectionInfo, opts ...ConnectorOption) (*Connector, error) {
	if err := info.Validate(); err != nil {
		return nil, apperrors.ConfigInvalidError(err, "oauth connection info is incomplete")
	}
	c := &Connector{
		info:          info,
		callbackPath:  "/_auth",
		storeUsername: true,
		sessionTTL:    12 * time.Hour,
		httpClient:    http.DefaultClient,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retriever == nil {
		c.retriever = &IdentityRetriever{}
	}
	return c, nil
}

// CallbackPath returns the handshake callback path.
func (c *Connector) CallbackPath() string { return c.callbackPath }

// RedirectURI derives the absolute callback URI for the requesting host.
func (c *Connector) RedirectURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + c.callbackPath
}

// LoginRedirectURL builds the platform authorize URL for the request. The
// state parameter carries the originally requested URL so the callback can
// resume it.
func (c *Connector) LoginRedirectURL(r *http.Request) string {
	state := r.URL.RequestURI()
	if r.URL.Path == c.callbackPath {
		state = "/"
	}
	return c.oauthConfig(c.RedirectURI(r)).AuthCodeURL(state)
}

// ExchangeCode swaps an authorization code for an access token and builds
// the SecurityContext for it.
func (c *Connector) ExchangeCode(ctx context.Context, code, redirectURI string) (*security.SecurityContext, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauthConfig(redirectURI).Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.UnAuthorizedError(err, "authorization code exchange failed")
	}

	endpoint := c.info.Endpoint
	if inst, ok := token.Extra("instance_url").(string); ok && inst != "" {
		endpoint = inst
	}

	sc := &security.SecurityContext{
		SessionID: token.AccessToken,
		Endpoint:  endpoint,
		ExpiresAt: time.Now().Add(c.sessionTTL),
	}
	if !token.Expiry.IsZero() && token.Expiry.Before(sc.ExpiresAt) {
		sc.ExpiresAt = token.Expiry
	}

	if c.verifier != nil {
		idToken, _ := token.Extra("id_token").(string)
		if idToken == "" {
			return nil, apperrors.UnAuthorizedError(nil, "platform returned no identity token")
		}
		if _, err := c.verifier.Verify(ctx, idToken); err != nil {
			return nil, apperrors.UnAuthorizedError(err, "identity token verification failed")
		}
	}

	info, err := c.retriever.Retrieve(ctx, sc)
	if err != nil {
		return nil, err
	}
	if c.storeUsername {
		sc.UserName = info.UserName
	}
	sc.Role = info.Role

	c.logger.Debug("oauth handshake completed",
		zap.String("endpoint", sc.Endpoint),
		zap.String("role", sc.Role))
	return sc, nil
}

func (c *Connector) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.info.Key,
		ClientSecret: c.info.Secret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.info.Endpoint + authorizePath,
			TokenURL:  c.info.Endpoint + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
