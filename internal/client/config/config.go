package config

import "time"

// Config holds runtime settings for the ChorSync client.
//
// Fields:
//   - ServerAddr: base URL of the chorsync backend.
//   - DatabaseDSN: sqlite file holding the local replica.
//   - ChoirID: default choir the client works against.
//   - GatewayAddr: listen address of the local offline gateway.
//   - CacheVersion: gateway cache generation tag; bump to evict old caches.
//   - PrefetchDelay: how long the background prefetch waits after startup.
type Config struct {
	ServerAddr    string
	DatabaseDSN   string
	ChoirID       string
	GatewayAddr   string
	CacheVersion  string
	PrefetchDelay time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DatabaseDSN = "chorsync.db"
	c.GatewayAddr = "127.0.0.1:8873"
	c.CacheVersion = "1"
	c.PrefetchDelay = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
