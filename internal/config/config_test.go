package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPC.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.GRPC.KeepaliveTime)
	assert.True(t, cfg.Server.WebSocket.Enabled)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/kingdom.db", cfg.Store.SQLitePath)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  grpc:
    address: ":6000"
    keepalive_time: 5s
store:
  driver: memory
game:
  replay_dir: /tmp/replays
logging:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Server.GRPC.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.GRPC.KeepaliveTime)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "/tmp/replays", cfg.Game.ReplayDir)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address, "unset keys keep defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KINGDOM_STORE_DRIVER", "postgres")
	t.Setenv("KINGDOM_STORE_POSTGRES_URL", "postgres://localhost/kingdom")
	t.Setenv("KINGDOM_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/kingdom", cfg.Store.PostgresURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"KINGDOM_STORE_DRIVER": "redis"}},
		{name: "postgres without url", env: map[string]string{"KINGDOM_STORE_DRIVER": "postgres"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
