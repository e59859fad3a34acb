package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
redis:
  addr: localhost:6379
  ttl: 5m
race:
  autoAdvance: 3s
ws:
  burst: 10
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Bind)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.WS.Burst)
	assert.Equal(t, float64(20), cfg.WS.RateLimit)
	assert.Equal(t, 5, cfg.Content.DefaultCount)
	assert.Equal(t, 3*time.Second, TTLDuration(cfg.Race.AutoAdvance, 0))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("content:\n  defaultCount: -1\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	for _, body := range []string{
		"race:\n  autoAdvance: \"3\"\n",
		"redis:\n  ttl: tomorrow\n",
		"content:\n  ttl: -5m\n",
		"ws:\n  pingInterval: 30\n",
	} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := Load(path)
		assert.Error(t, err, body)
	}

	require.NoError(t, os.WriteFile(path, []byte("race:\n  autoAdvance: 0s\n"), 0o600))
	_, err := Load(path)
	assert.NoError(t, err)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("1m30s", time.Minute))
}
