package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9999
oauth:
  endpoint: https://login.stratus.example
  key: K
  secret: S
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "v1", cfg.Connection.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Connection.Timeout)
	assert.Equal(t, "/_auth", cfg.OAuth.CallbackPath)
	assert.Equal(t, "identity", cfg.OAuth.UserDataRetriever)
	assert.True(t, cfg.OAuth.StoreUsername)
	assert.Equal(t, "cookie", cfg.Session.StorageMethod)
	assert.Equal(t, "stratus_security_context", cfg.Session.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
connection:
  url: stratus://login.stratus.example;user=svc@acme.com;password=p
connections:
  reporting: stratus://reports.stratus.example;user=r@acme.com;password=p
oauth:
  connection_name: reporting
session:
  storage_method: redis
  redis_url: redis://localhost:6379/0
  ttl: 2h
`))
	require.NoError(t, err)

	assert.Equal(t, "stratus://login.stratus.example;user=svc@acme.com;password=p", cfg.Connection.URL)
	assert.Equal(t, "reporting", cfg.OAuth.ConnectionName)
	assert.Len(t, cfg.Connections, 1)
	assert.Equal(t, "redis", cfg.Session.StorageMethod)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Run("invalid port", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 70000\n"))
		assert.Error(t, err)
	})

	t.Run("invalid storage method", func(t *testing.T) {
		_, err := Load(writeConfig(t, "session:\n  storage_method: etcd\n"))
		assert.Error(t, err)
	})

	t.Run("redis without url", func(t *testing.T) {
		_, err := Load(writeConfig(t, "session:\n  storage_method: redis\n"))
		assert.Error(t, err)
	})

	t.Run("id token verification without jwks url", func(t *testing.T) {
		_, err := Load(writeConfig(t, "oauth:\n  verify_id_token: true\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
