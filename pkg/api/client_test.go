package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stratushq/stratus-go-sdk/pkg/app/errors"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
)

// fakePlatform is an in-process platform instance. Sessions issued by login
// can be revoked to drive the renewal paths.
type fakePlatform struct {
	t *testing.T

	mu       sync.Mutex
	username string
	password string
	next     int
	valid    map[string]bool
	logins   int
	queries  int

	server *httptest.Server
}

func newFakePlatform(t *testing.T) *fakePlatform {
	f := &fakePlatform{
		t:        t,
		username: "dev@acme.com",
		password: "s3cret",
		valid:    map[string]bool{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /services/v1/login", f.handleLogin)
	mux.HandleFunc("GET /services/v1/query", f.handleQuery)
	mux.HandleFunc("GET /services/v1/userinfo", f.handleUserInfo)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakePlatform) config() *connector.Config {
	return &connector.Config{
		Endpoint: f.server.URL,
		Username: f.username,
		Password: f.password,
	}
}

func (f *fakePlatform) issueSession() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	sid := fmt.Sprintf("sess-%03d", f.next)
	f.valid[sid] = true
	return sid
}

func (f *fakePlatform) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *fakePlatform) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

func (f *fakePlatform) revoke(sid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.valid, sid)
}

func (f *fakePlatform) revokeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = map[string]bool{}
}

func (f *fakePlatform) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds map[string]string
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&creds))

	f.mu.Lock()
	f.logins++
	f.mu.Unlock()

	if creds["username"] != f.username || creds["password"] != f.password {
		writeFault(w, http.StatusUnauthorized, "INVALID_LOGIN", "bad credentials")
		return
	}
	sid := f.issueSession()
	_ = json.NewEncoder(w).Encode(map[string]string{
		"sessionId": sid,
		"serverUrl": f.server.URL,
		"userId":    "005x0000001",
		"userName":  f.username,
	})
}

func (f *fakePlatform) sessionOK(r *http.Request) bool {
	sid := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid[sid]
}

func (f *fakePlatform) handleQuery(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()

	if !f.sessionOK(r) {
		writeFault(w, http.StatusUnauthorized, "INVALID_SESSION_ID", "session expired")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"totalSize": 1,
		"done":      true,
		"records": []map[string]any{
			{"Id": "001x000001", "Name": "Acme", "AnnualRevenue": 1234.56},
		},
	})
}

func (f *fakePlatform) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if !f.sessionOK(r) {
		writeFault(w, http.StatusUnauthorized, "INVALID_SESSION_ID", "session expired")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{
		"user_id":  "005x0000001",
		"username": f.username,
		"role":     "admin",
	})
}

func writeFault(w http.ResponseWriter, status int, code, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}

func TestLogin(t *testing.T) {
	f := newFakePlatform(t)

	res, err := Login(context.Background(), f.config())
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, f.server.URL, res.ServerURL)
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFakePlatform(t)
	cfg := f.config()
	cfg.Password = "wrong"

	_, err := Login(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryUnauthorized))
}

func TestNewConnectionLogsInEagerly(t *testing.T) {
	f := newFakePlatform(t)

	conn, err := NewConnection(context.Background(), f.config())
	require.NoError(t, err)
	assert.NotEmpty(t, conn.SessionID())
	assert.Equal(t, 1, f.loginCount())
}

func TestNewConnectionWithSessionSkipsLogin(t *testing.T) {
	f := newFakePlatform(t)
	sid := f.issueSession()

	conn, err := NewConnection(context.Background(), &connector.Config{
		Endpoint:  f.server.URL,
		SessionID: sid,
	})
	require.NoError(t, err)
	assert.Equal(t, sid, conn.SessionID())
	assert.Zero(t, f.loginCount())

	res, err := conn.Query(context.Background(), "SELECT Name FROM Account")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalSize)
}

func TestQueryRenewsExpiredSessionOnce(t *testing.T) {
	f := newFakePlatform(t)
	sid := f.issueSession()

	renewals := 0
	cfg := f.config()
	cfg.SessionID = sid
	cfg.SessionRenewer = func(ctx context.Context, c *connector.Config) (string, error) {
		renewals++
		return RenewSession(ctx, c)
	}

	conn, err := NewConnection(context.Background(), cfg)
	require.NoError(t, err)

	f.revoke(sid)

	res, err := conn.Query(context.Background(), "SELECT Name FROM Account")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalSize)
	assert.Equal(t, 1, renewals)
	assert.NotEqual(t, sid, conn.SessionID())
	// Failed attempt plus the retried one.
	assert.Equal(t, 2, f.queryCount())
}

func TestQuerySecondExpirationIsTerminal(t *testing.T) {
	f := newFakePlatform(t)
	sid := f.issueSession()

	cfg := f.config()
	cfg.SessionID = sid
	cfg.SessionRenewer = func(ctx context.Context, c *connector.Config) (string, error) {
		// Renewal "succeeds" but the platform rejects the new session too.
		return "still-dead", nil
	}

	conn, err := NewConnection(context.Background(), cfg)
	require.NoError(t, err)

	f.revokeAll()

	_, err = conn.Query(context.Background(), "SELECT Name FROM Account")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategorySessionExpired))
	assert.True(t, errors.Is(err, connector.ErrSessionExpired))
	assert.Equal(t, 2, f.queryCount())
}

func TestQueryWithoutRenewerSurfacesExpiry(t *testing.T) {
	f := newFakePlatform(t)
	sid := f.issueSession()

	conn, err := NewConnection(context.Background(), &connector.Config{
		Endpoint:  f.server.URL,
		SessionID: sid,
	})
	require.NoError(t, err)

	f.revoke(sid)

	_, err = conn.Query(context.Background(), "SELECT Name FROM Account")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategorySessionExpired))
	assert.Equal(t, 1, f.queryCount())
}

func TestRenewSessionWithoutCredentials(t *testing.T) {
	_, err := RenewSession(context.Background(), &connector.Config{
		Endpoint:  "https://login.stratus.example",
		SessionID: "expired",
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategorySessionExpired))
}

func TestUserInfo(t *testing.T) {
	f := newFakePlatform(t)
	sid := f.issueSession()

	conn, err := NewConnection(context.Background(), &connector.Config{
		Endpoint:  f.server.URL,
		SessionID: sid,
	})
	require.NoError(t, err)

	info, err := conn.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev@acme.com", info.UserName)
	assert.Equal(t, "admin", info.Role)
}

func TestConnectorResolvesContextBinding(t *testing.T) {
	f := newFakePlatform(t)
	sid := f.issueSession()

	ctx := connector.WithConfig(context.Background(), &connector.Config{
		Endpoint:  f.server.URL,
		SessionID: sid,
	})

	sc := NewConnector(connector.NewResolver(nil))
	conn, err := sc.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, sid, conn.SessionID())
}

func TestConnectorInstallsDefaultRenewer(t *testing.T) {
	f := newFakePlatform(t)

	sc := NewConnector(connector.NewResolver(connector.Properties{
		connector.PropEndpoint: f.server.URL,
		connector.PropUser:     f.username,
		connector.PropPassword: f.password,
	}))
	conn, err := sc.Connect(context.Background())
	require.NoError(t, err)

	first := conn.SessionID()
	f.revoke(first)

	res, err := conn.Query(context.Background(), "SELECT Name FROM Account")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalSize)
	assert.NotEqual(t, first, conn.SessionID())
}

func TestConnectorNoSource(t *testing.T) {
	sc := NewConnector(connector.NewResolver(nil))
	_, err := sc.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryConfigMissing))
}
