package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/kantorei/chorsync/internal/server/config"
)

func TestGetRandomStorageKey_Format(t *testing.T) {
	key := GetRandomStorageKey()

	assert.True(t, strings.HasPrefix(key, "sheets/"))
	assert.Len(t, strings.Split(key, "/"), 5)
	assert.NotEqual(t, key, GetRandomStorageKey())
}

func TestGetPresignedGetURL_PointsAtConfiguredEndpoint(t *testing.T) {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	cfg.S3BaseEndpoint = "http://minio.local:9000/"

	svc := NewStorageService(cfg)

	url, err := svc.GetPresignedGetURL(context.Background(), "sheets/2026/3/1/abc")
	require.NoError(t, err)
	assert.Contains(t, url, "minio.local:9000")
	assert.Contains(t, url, "sheets/2026/3/1/abc")
	assert.Contains(t, url, "X-Amz-Signature")
}
