package config

import (
	"os"
	"strings"
)

// parseEnv overlays Config with values from environment variables. Only
// variables that are actually set override earlier sources.
//
// Supported variables:
//
//	CHORSYNC_ADDR            HTTP bind address
//	CHORSYNC_DATABASE_DSN    PostgreSQL DSN
//	CHORSYNC_SECRET_KEY      JWT HMAC secret
//	CHORSYNC_S3_USER         S3 root user
//	CHORSYNC_S3_PASSWORD     S3 root password
//	CHORSYNC_S3_BUCKET       S3 bucket
//	CHORSYNC_S3_REGION       S3 region
//	CHORSYNC_S3_ENDPOINT     S3 base endpoint
//	CHORSYNC_PROXY_ORIGINS   comma-separated PDF proxy origins
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("CHORSYNC_ADDR"); ok {
		config.EndpointAddr = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_S3_USER"); ok {
		config.S3RootUser = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_S3_PASSWORD"); ok {
		config.S3RootPassword = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_S3_BUCKET"); ok {
		config.S3Bucket = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_S3_REGION"); ok {
		config.S3Region = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_S3_ENDPOINT"); ok {
		config.S3BaseEndpoint = v
	}
	if v, ok := os.LookupEnv("CHORSYNC_PROXY_ORIGINS"); ok {
		config.AllowedProxyOrigins = strings.Split(v, ",")
	}
}
