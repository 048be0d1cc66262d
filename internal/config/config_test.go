package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
storage:
  path: storage/players.db
http_server:
  address: localhost:8082
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "storage/players.db", cfg.Storage.Path)
	assert.Equal(t, 25, cfg.Storage.MaxOpenConns)
	assert.Equal(t, "localhost:8082", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTPServer.ShutdownTimeout)
	assert.False(t, cfg.Cache.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_REDIS_URL", "redis://localhost:6379/0")

	path := writeConfig(t, `
env: prod
http_server:
  address: ":8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.True(t, cfg.Cache.Enabled())
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown env",
			body: "env: qa\nstorage:\n  path: x.db\nhttp_server:\n  address: :1\n",
		},
		{
			name: "unknown driver",
			body: "env: dev\nstorage:\n  driver: mongo\nhttp_server:\n  address: :1\n",
		},
		{
			name: "sqlite without path",
			body: "env: dev\nstorage:\n  driver: sqlite\nhttp_server:\n  address: :1\n",
		},
		{
			name: "postgres without dsn",
			body: "env: dev\nstorage:\n  driver: postgres\nhttp_server:\n  address: :1\n",
		},
		{
			name: "negative cache ttl",
			body: "env: dev\nstorage:\n  path: x.db\nhttp_server:\n  address: :1\ncache:\n  ttl: -1m\n",
		},
		{
			name: "missing address",
			body: "env: dev\nstorage:\n  path: x.db\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "local.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.Addr)
}

func TestLoad_RejectsZeroCacheTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "0s")

	_, err := Load(writeConfig(t, "env: dev\nstorage:\n  path: x.db\nhttp_server:\n  address: :1\n"))
	assert.ErrorContains(t, err, "TTL")
}
