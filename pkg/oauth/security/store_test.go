package security

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *SecurityContext {
	return &SecurityContext{
		SessionID: "sess-001",
		Endpoint:  "https://na1.stratus.example",
		UserName:  "dev@acme.com",
		Role:      "admin",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// carryCookies replays the cookies set by a recorded response onto a fresh
// request, like a browser would.
func carryCookies(t *testing.T, rec *httptest.ResponseRecorder, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}

func TestSecurityContextValid(t *testing.T) {
	assert.False(t, (*SecurityContext)(nil).Valid())
	assert.False(t, (&SecurityContext{}).Valid())
	assert.False(t, (&SecurityContext{SessionID: "s"}).Valid())

	expired := testContext()
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	assert.False(t, expired.Valid())

	assert.True(t, testContext().Valid())
}

func TestCookieStoreRoundTrip(t *testing.T) {
	store, err := NewCookieStore("sc", "", time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), testContext()))

	loaded, err := store.Load(carryCookies(t, rec, "/"))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "sess-001", loaded.SessionID)
	assert.Equal(t, "https://na1.stratus.example", loaded.Endpoint)
	assert.Equal(t, "dev@acme.com", loaded.UserName)
}

func TestCookieStoreSharedKeyFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "cookie.key")

	first, err := NewCookieStore("sc", keyFile, time.Hour)
	require.NoError(t, err)
	second, err := NewCookieStore("sc", keyFile, time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, first.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), testContext()))

	loaded, err := second.Load(carryCookies(t, rec, "/"))
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "sess-001", loaded.SessionID)
}

func TestCookieStoreTamperedCookieIsAbsent(t *testing.T) {
	store, err := NewCookieStore("sc", "", time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), testContext()))

	cookie := rec.Result().Cookies()[0]
	sealed, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sc", Value: base64.RawURLEncoding.EncodeToString(sealed)})

	loaded, err := store.Load(req)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCookieStoreGarbageCookieIsAbsent(t *testing.T) {
	store, err := NewCookieStore("sc", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sc", Value: "not base64!"})

	loaded, err := store.Load(req)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCookieStoreClear(t *testing.T) {
	store, err := NewCookieStore("sc", "", time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Clear(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("sc", time.Hour)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), testContext()))

	req := carryCookies(t, rec, "/")
	loaded, err := store.Load(req)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "sess-001", loaded.SessionID)

	require.NoError(t, store.Clear(httptest.NewRecorder(), req))
	loaded, err = store.Load(req)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore("sc", -time.Second)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodGet, "/", nil), testContext()))

	loaded, err := store.Load(carryCookies(t, rec, "/"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStoreUnknownCookie(t *testing.T) {
	store := NewMemoryStore("sc", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sc", Value: "never-issued"})

	loaded, err := store.Load(req)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
