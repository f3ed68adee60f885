// Package proxy streams sheet PDFs from the storage origin through the
// server, so clients never talk to the storage backend directly. Only origins
// on the configured allow-list are fetched.
package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/logging"
)

// cacheMaxAge lets intermediaries and the client-side gateway hold fetched
// sheets for a day; sheet objects are immutable once uploaded.
const cacheMaxAge = "public, max-age=86400"

type Proxy struct {
	client         *http.Client
	allowedOrigins []string
	log            logging.Logger
}

func New(allowedOrigins []string, httpClient *http.Client, log logging.Logger) *Proxy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Proxy{
		client:         httpClient,
		allowedOrigins: allowedOrigins,
		log:            log.With("component", "pdf_proxy"),
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}

	target, err := url.Parse(rawURL)
	if err != nil || !p.originAllowed(target) {
		writeError(w, http.StatusForbidden, "origin not allowed")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn(r.Context(), "upstream fetch failed", "url", target.String(), "error", err)
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// pass the upstream status through so the client can tell a
		// missing sheet from a broken proxy
		writeError(w, resp.StatusCode, "upstream returned an error")
		return
	}

	w.Header().Set("Content-Type", common.PDFContentType)
	w.Header().Set("Cache-Control", cacheMaxAge)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		p.log.Warn(r.Context(), "streaming to client failed", "url", target.String(), "error", err)
	}
}

// originAllowed matches scheme and host against the allow-list. Entries are
// origins, not prefixes, so path tricks cannot widen the list.
func (p *Proxy) originAllowed(target *url.URL) bool {
	if target.Scheme != "http" && target.Scheme != "https" {
		return false
	}
	origin := target.Scheme + "://" + target.Host
	for _, allowed := range p.allowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
