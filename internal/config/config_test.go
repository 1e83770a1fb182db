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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  host: db
  user: root
  password: pw
  dbname: bloodbank
admins:
  - username: admin
    password: secret
`))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.Addr)
	assert.Equal(t, StoreMySQL, cfg.Store.Driver)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 30*time.Second, cfg.Redis.KeyTTL)
	assert.False(t, cfg.Redis.Enabled)
	require.Len(t, cfg.Admins, 1)
}

func TestLoad_SQLite(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
store:
  driver: sqlite
database:
  path: bloodbank.db
  max_open_conns: 8
redis:
  enabled: true
  addr: redis:6379
  key_ttl: 5s
`))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.Redis.KeyTTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown store", "store:\n  driver: oracle\n"},
		{"driver mismatch", "store:\n  driver: sqlite\ndatabase:\n  driver: mysql\n"},
		{"admin without password", "admins:\n  - username: admin\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BLOODBANK_DB_PASSWORD", "from-env")
	t.Setenv("BLOODBANK_STORE_DRIVER", "memory")

	cfg, err := Load(writeConfig(t, "database:\n  password: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
}
