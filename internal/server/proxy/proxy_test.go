package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantorei/chorsync/internal/logging"
)

func newProxy(allowed []string) *Proxy {
	return New(allowed, nil, logging.NewNopLogger())
}

func TestProxy_StreamsAllowedOrigin(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer upstream.Close()

	p := newProxy([]string{upstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pdf-proxy?url="+upstream.URL+"/sheets/a.pdf", nil)
	p.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "%PDF-1.4 fake", string(body))
}

func TestProxy_MissingURLParameter(t *testing.T) {
	p := newProxy([]string{"http://minio.local:9000"})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pdf-proxy", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing url parameter")
}

func TestProxy_DisallowedOrigin(t *testing.T) {
	p := newProxy([]string{"http://minio.local:9000"})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/pdf-proxy?url=http%3A%2F%2Fevil.example%2Fa.pdf", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProxy_OriginIsNotAPrefixMatch(t *testing.T) {
	p := newProxy([]string{"http://minio.local:9000"})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/pdf-proxy?url=http%3A%2F%2Fminio.local%3A9000.evil.example%2Fa.pdf", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProxy_UpstreamStatusPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	p := newProxy([]string{upstream.URL})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pdf-proxy?url="+upstream.URL+"/gone.pdf", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxy_UpstreamUnreachableIs502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	p := newProxy([]string{url})

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pdf-proxy?url="+url+"/a.pdf", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
