// Package remote is the HTTP client for the chorsync server API. It holds
// the session token pair and transparently retries a request once after
// refreshing an expired access token.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/logging"
)

const userAgent = "ChorSync-Client/1.0"

type Client struct {
	client  *http.Client
	log     logging.Logger
	baseURL string

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func New(baseURL string, httpClient *http.Client, log logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		}
	}
	return &Client{client: httpClient, log: log, baseURL: baseURL}
}

// SetTokens restores a previously persisted session.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

// AccessToken returns the current access token, "" when logged out.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// RefreshToken returns the current refresh token, "" when logged out.
func (c *Client) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates and installs the returned token pair.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var pair tokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/login", body, &pair, false); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.SetTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

// ForceRefresh exchanges the refresh token for a fresh pair, discarding the
// current access token even if it has not expired yet.
func (c *Client) ForceRefresh(ctx context.Context) error {
	refresh := c.RefreshToken()
	if refresh == "" {
		return common.ErrorUnauthorized
	}

	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refresh}

	var pair tokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh", body, &pair, false); err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	c.SetTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

// ResyncClaims asks the server to rebuild the choir membership claims for
// the authenticated user. The rebuilt claims take effect on the next token
// refresh.
func (c *Client) ResyncClaims(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/resync-claims", nil, nil, true); err != nil {
		return fmt.Errorf("claim resync failed: %w", err)
	}
	return nil
}

// ListUpdatedSince returns the choir's songs changed after since, plus the
// server clock reading to use as the next sync watermark.
func (c *Client) ListUpdatedSince(ctx context.Context, choirID string, since int64) ([]models.Song, int64, error) {
	var out struct {
		Songs      []models.Song `json:"songs"`
		ServerTime int64         `json:"serverTime"`
	}
	path := "/api/v1/choirs/" + url.PathEscape(choirID) + "/songs/updated?since=" + strconv.FormatInt(since, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, 0, fmt.Errorf("failed to list updated songs: %w", err)
	}
	return out.Songs, out.ServerTime, nil
}

// ListDeletedSince returns the ids of the choir's songs deleted after since.
func (c *Client) ListDeletedSince(ctx context.Context, choirID string, since int64) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	path := "/api/v1/choirs/" + url.PathEscape(choirID) + "/songs/deleted?since=" + strconv.FormatInt(since, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, fmt.Errorf("failed to list deleted songs: %w", err)
	}
	return out.IDs, nil
}

// ListUpcomingServices returns up to limit services ordered soonest first.
func (c *Client) ListUpcomingServices(ctx context.Context, choirID string, limit int) ([]models.ChoirService, error) {
	var out struct {
		Services []models.ChoirService `json:"services"`
	}
	path := "/api/v1/choirs/" + url.PathEscape(choirID) + "/services/upcoming?limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, fmt.Errorf("failed to list upcoming services: %w", err)
	}
	return out.Services, nil
}

// GetSongsByIDs fetches full song records for the given ids in one round
// trip. Unknown ids are silently omitted from the result.
func (c *Client) GetSongsByIDs(ctx context.Context, choirID string, ids []string) ([]models.Song, error) {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	var out struct {
		Songs []models.Song `json:"songs"`
	}
	path := "/api/v1/choirs/" + url.PathEscape(choirID) + "/songs/batch"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out, true); err != nil {
		return nil, fmt.Errorf("failed to fetch songs by ids: %w", err)
	}
	return out.Songs, nil
}

// GetMemberAbsenceHistory returns the member's recorded absences, newest
// first.
func (c *Client) GetMemberAbsenceHistory(ctx context.Context, choirID, memberID string) ([]models.Absence, error) {
	var out struct {
		Absences []models.Absence `json:"absences"`
	}
	path := "/api/v1/choirs/" + url.PathEscape(choirID) + "/members/" + url.PathEscape(memberID) + "/absences"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, fmt.Errorf("failed to fetch absence history: %w", err)
	}
	return out.Absences, nil
}

// FetchPDF retrieves a sheet document through the server-side proxy and
// returns it base64-encoded. The document URL itself may point at an
// external storage origin; it is never fetched directly.
func (c *Client) FetchPDF(ctx context.Context, docURL string) (string, error) {
	path := "/api/pdf-proxy?url=" + url.QueryEscape(docURL)

	resp, err := c.doAuthorized(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document fetch returned status %d: %w", resp.StatusCode, statusError(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// doJSON performs a JSON request and decodes the response into result.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any, authorized bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var resp *http.Response
	var err error
	if authorized {
		resp, err = c.doAuthorized(ctx, method, path, payload)
	} else {
		resp, err = c.do(ctx, method, path, payload)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s: %w", errResp.Error, statusError(resp.StatusCode))
		}
		return fmt.Errorf("server returned status %d: %w", resp.StatusCode, statusError(resp.StatusCode))
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// doAuthorized sends an authorized request, refreshing the token pair and
// retrying exactly once when the server answers 401.
func (c *Client) doAuthorized(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.RefreshToken() == "" {
		return resp, nil
	}
	_ = resp.Body.Close()

	c.log.Debug(ctx, "access token rejected, refreshing", "path", path)
	if err := c.ForceRefresh(ctx); err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.AccessToken(); token != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrorUnauthorized
	case http.StatusNotFound:
		return common.ErrorNotFound
	default:
		return common.ErrorInternal
	}
}
