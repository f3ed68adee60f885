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
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerAddr)
	assert.Equal(t, "chorsync.db", c.DatabaseDSN)
	assert.Equal(t, "127.0.0.1:8873", c.GatewayAddr)
	assert.Equal(t, "1", c.CacheVersion)
	assert.Equal(t, 3*time.Second, c.PrefetchDelay)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerAddr)
	assert.Equal(t, 3*time.Second, cfg.PrefetchDelay)
}

func TestParseJson_OverlaysValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"server_addr": "https://chor.example.org",
		"database_dsn": "/tmp/replica.db",
		"choir_id": "kantorei",
		"gateway_addr": "127.0.0.1:9000",
		"cache_version": "7",
		"prefetch_delay": "10s"
	}`), 0o600))

	origArgs := os.Args
	os.Args = []string{"client", "-c", file}
	t.Cleanup(func() { os.Args = origArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "https://chor.example.org", cfg.ServerAddr)
	assert.Equal(t, "/tmp/replica.db", cfg.DatabaseDSN)
	assert.Equal(t, "kantorei", cfg.ChoirID)
	assert.Equal(t, "127.0.0.1:9000", cfg.GatewayAddr)
	assert.Equal(t, "7", cfg.CacheVersion)
	assert.Equal(t, 10*time.Second, cfg.PrefetchDelay)
}
