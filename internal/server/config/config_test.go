package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 720*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, "sheets", c.S3Bucket)
	assert.NotEmpty(t, c.AllowedProxyOrigins)
}

func TestParseEnv_OverridesOnlySetVariables(t *testing.T) {
	t.Setenv("CHORSYNC_ADDR", ":9999")
	t.Setenv("CHORSYNC_PROXY_ORIGINS", "https://a.example,https://b.example")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedProxyOrigins)
	require.Equal(t, "secretKey", c.SecretKey, "unset variables keep defaults")
}
