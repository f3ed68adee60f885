package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/kantorei/chorsync/internal/flagx"
	"github.com/kantorei/chorsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerAddr    string         `json:"server_addr"`
	DatabaseDSN   string         `json:"database_dsn"`
	ChoirID       string         `json:"choir_id"`
	GatewayAddr   string         `json:"gateway_addr"`
	CacheVersion  string         `json:"cache_version"`
	PrefetchDelay timex.Duration `json:"prefetch_delay"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c or -config flags (see flagx.JsonConfigFlags). Missing file
// selection means no JSON is loaded. Read or unmarshal errors panic; the
// configuration is unusable and startup should not continue.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerAddr = jc.ServerAddr
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.ChoirID = jc.ChoirID
	cfg.GatewayAddr = jc.GatewayAddr
	cfg.CacheVersion = jc.CacheVersion
	cfg.PrefetchDelay = time.Duration(jc.PrefetchDelay.Duration)
}
