// Package api implements the HTTP client for the Stratus platform API:
// login, query, record creation, schema describes and the identity endpoint.
// It consumes a resolved connector configuration and applies the session
// renewal contract when the platform signals an expired session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/internal/metrics"
	apperrors "github.com/stratushq/stratus-go-sdk/pkg/app/errors"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
)

// Connection is an authenticated handle to one platform instance. It is safe
// for concurrent use; the session id is refreshed under a lock when renewed.
type Connection struct {
	cfg        *connector.Config
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	sessionID string
	serverURL string
}

// NewConnection opens a connection using the given configuration. When the
// configuration carries no session id, a credential login is performed
// immediately so that an unusable configuration fails here and not on first
// use.
func NewConnection(ctx context.Context, cfg *connector.Config, opts ...Option) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.ConfigInvalidError(err, "connection configuration is malformed")
	}
	s := applyOptions(opts)

	c := &Connection{
		cfg:        cfg,
		httpClient: s.httpClient,
		logger:     s.logger,
		sessionID:  cfg.SessionID,
		serverURL:  strings.TrimSuffix(cfg.Endpoint, "/"),
	}

	if c.sessionID == "" {
		res, err := Login(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		c.setSession(res.SessionID, res.ServerURL)
	}
	return c, nil
}

// Login authenticates with the platform using the configuration's
// credentials and returns the resulting session.
func Login(ctx context.Context, cfg *connector.Config, opts ...Option) (*LoginResult, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, apperrors.ConfigInvalidError(connector.ErrConfigInvalid, "login requires an endpoint")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, apperrors.ConfigInvalidError(connector.ErrConfigInvalid, "login requires username and password")
	}
	s := applyOptions(opts)

	body, _ := json.Marshal(map[string]string{
		"username": cfg.Username,
		"password": cfg.Password,
	})
	u := strings.TrimSuffix(cfg.Endpoint, "/") + servicePath(cfg) + "/login"

	var out LoginResult
	err := send(ctx, s.httpClient, cfg.Timeout, http.MethodPost, u, "", bytes.NewReader(body), &out)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Debug("platform login succeeded",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("user", cfg.Username))
	return &out, nil
}

// RenewSession re-establishes a session for a credential-bearing
// configuration and returns the new session id. Configurations without
// credentials cannot renew and surface a session-expired error.
func RenewSession(ctx context.Context, cfg *connector.Config, opts ...Option) (string, error) {
	if cfg == nil || cfg.Username == "" || cfg.Password == "" {
		return "", apperrors.SessionExpiredError(connector.ErrSessionExpired, "no credentials available for renewal")
	}
	res, err := Login(ctx, cfg, opts...)
	if err != nil {
		return "", apperrors.SessionExpiredError(err, "session renewal failed")
	}
	return res.SessionID, nil
}

// Config returns the configuration this connection was opened with.
func (c *Connection) Config() *connector.Config { return c.cfg }

// SessionID returns the current session id.
func (c *Connection) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Query runs a platform query and returns the first page of records.
func (c *Connection) Query(ctx context.Context, q string) (*QueryResult, error) {
	var out QueryResult
	path := "/query?" + url.Values{"q": {q}}.Encode()
	if err := c.do(ctx, "query", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create inserts a record of the given object type.
func (c *Connection) Create(ctx context.Context, objectType string, fields map[string]any) (*SaveResult, error) {
	var out SaveResult
	if err := c.do(ctx, "create", http.MethodPost, "/sobjects/"+url.PathEscape(objectType), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DescribeGlobal lists the objects visible to the session.
func (c *Connection) DescribeGlobal(ctx context.Context) (*DescribeGlobalResult, error) {
	var out DescribeGlobalResult
	if err := c.do(ctx, "describe_global", http.MethodGet, "/sobjects", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DescribeObject fetches the full schema metadata for one object.
func (c *Connection) DescribeObject(ctx context.Context, name string) (*ObjectDescribe, error) {
	var out ObjectDescribe
	if err := c.do(ctx, "describe_object", http.MethodGet, "/sobjects/"+url.PathEscape(name)+"/describe", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserInfo retrieves the identity of the session's user.
func (c *Connection) UserInfo(ctx context.Context) (*UserInfo, error) {
	var out UserInfo
	if err := c.do(ctx, "userinfo", http.MethodGet, "/userinfo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one API call with the session header, applying the renewal
// contract: an expired session is renewed via the configuration's renewer
// and the call retried exactly once; a second expiration is terminal.
func (c *Connection) do(ctx context.Context, op, method, path string, body, out any) error {
	timer := time.Now()
	defer func() {
		metrics.APICallDuration.WithLabelValues(op).Observe(time.Since(timer).Seconds())
	}()

	err := c.send(ctx, method, path, body, out)
	if err == nil || !apperrors.Is(err, apperrors.CategorySessionExpired) {
		return err
	}

	renewer := c.cfg.SessionRenewer
	if renewer == nil {
		metrics.SessionRenewalsTotal.WithLabelValues("unavailable").Inc()
		return err
	}

	c.logger.Info("platform session expired, attempting renewal", zap.String("operation", op))
	sid, rerr := renewer(ctx, c.cfg)
	if rerr != nil {
		metrics.SessionRenewalsTotal.WithLabelValues("error").Inc()
		return rerr
	}
	metrics.SessionRenewalsTotal.WithLabelValues("success").Inc()
	c.setSession(sid, "")

	// A second INVALID_SESSION_ID here surfaces as a terminal error.
	return c.send(ctx, method, path, body, out)
}

func (c *Connection) send(ctx context.Context, method, path string, body, out any) error {
	c.mu.Lock()
	sid := c.sessionID
	base := c.serverURL
	c.mu.Unlock()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperrors.BadRequestError(err, "request payload is not serialisable")
		}
		rd = bytes.NewReader(raw)
	}

	u := base + servicePath(c.cfg) + path
	return send(ctx, c.httpClient, c.cfg.Timeout, method, u, sid, rd, out)
}

func (c *Connection) setSession(sessionID, serverURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sessionID != "" {
		c.sessionID = sessionID
	}
	if serverURL != "" {
		c.serverURL = strings.TrimSuffix(serverURL, "/")
	}
}

func servicePath(cfg *connector.Config) string {
	v := cfg.APIVersion
	if v == "" {
		v = connector.DefaultAPIVersion
	}
	return "/services/" + v
}

// send issues a single HTTP request and decodes the JSON response or fault.
func send(ctx context.Context, client *http.Client, timeout time.Duration, method, rawURL, sessionID string, body io.Reader, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return apperrors.GeneralError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperrors.DependencyFailureError(err, "platform request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeFault(resp)
	}
	if out == nil {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return apperrors.DependencyFailureError(err, "platform response is not valid JSON")
	}
	return nil
}

func decodeFault(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var fault apiFault
	_ = json.Unmarshal(raw, &fault)

	switch {
	case fault.Code == faultInvalidSession:
		return apperrors.SessionExpiredError(connector.ErrSessionExpired, fault.Message)
	case fault.Code == faultAccessDenied, resp.StatusCode == http.StatusForbidden:
		return apperrors.ForbiddenError(connector.ErrAuthorizationDenied, fault.Message)
	case fault.Code == faultInvalidLogin, resp.StatusCode == http.StatusUnauthorized:
		return apperrors.UnAuthorizedError(errors.New(fault.Code), fault.Message)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.ResourceNotFoundError(errors.New(fault.Code), fault.Message)
	default:
		return apperrors.DependencyFailureError(
			fmt.Errorf("platform returned status %d: %s", resp.StatusCode, fault.Code), fault.Message)
	}
}
