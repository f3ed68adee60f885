package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/logging"
)

func newClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), logging.NewNopLogger())
}

func TestLogin_InstallsTokenPair(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		var body struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "anna@example.org", body.Email)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"accessToken": "acc1", "refreshToken": "ref1",
		})
	}))

	require.NoError(t, c.Login(context.Background(), "anna@example.org", "secret"))
	assert.Equal(t, "acc1", c.AccessToken())
	assert.Equal(t, "ref1", c.RefreshToken())
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))

	err := c.Login(context.Background(), "anna@example.org", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestListUpdatedSince_SendsWatermarkAndToken(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/choirs/c1/songs/updated", r.URL.Path)
		assert.Equal(t, "12345", r.URL.Query().Get("since"))
		assert.Equal(t, "Bearer acc1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"songs":      []map[string]string{{"id": "s1", "title": "Abendlied"}},
			"serverTime": 99999,
		})
	}))
	c.SetTokens("acc1", "ref1")

	songs, serverTime, err := c.ListUpdatedSince(context.Background(), "c1", 12345)
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "Abendlied", songs[0].Title)
	assert.EqualValues(t, 99999, serverTime)
}

func TestDoAuthorized_RefreshesExactlyOnceOn401(t *testing.T) {
	var refreshes, attempts int
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			refreshes++
			_ = json.NewEncoder(w).Encode(map[string]string{
				"accessToken": "acc2", "refreshToken": "ref2",
			})
			return
		}
		attempts++
		if r.Header.Get("Authorization") != "Bearer acc2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ids": []string{"gone"}})
	}))
	c.SetTokens("expired", "ref1")

	ids, err := c.ListDeletedSince(context.Background(), "c1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, ids)
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, 2, attempts, "original attempt plus exactly one retry")
	assert.Equal(t, "acc2", c.AccessToken())
}

func TestDoAuthorized_SecondRejectionIsNotRetried(t *testing.T) {
	var attempts int
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"accessToken": "still-bad", "refreshToken": "ref2",
			})
			return
		}
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	c.SetTokens("expired", "ref1")

	_, err := c.ListDeletedSince(context.Background(), "c1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, 2, attempts)
}

func TestGetSongsByIDs_Batches(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/choirs/c1/songs/batch", r.URL.Path)
		var body struct {
			IDs []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"s1", "s2"}, body.IDs)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"songs": []map[string]string{{"id": "s1"}},
		})
	}))
	c.SetTokens("acc", "ref")

	songs, err := c.GetSongsByIDs(context.Background(), "c1", []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Len(t, songs, 1, "unknown ids are omitted, not errors")
}

func TestFetchPDF_GoesThroughProxyAndEncodes(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pdf-proxy", r.URL.Path)
		assert.Equal(t, "https://files.example.org/sheet.pdf", r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", common.PDFContentType)
		_, _ = w.Write(pdf)
	}))
	c.SetTokens("acc", "ref")

	data, err := c.FetchPDF(context.Background(), "https://files.example.org/sheet.pdf")
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), data)
}

func TestFetchPDF_UpstreamFailure(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	c.SetTokens("acc", "ref")

	_, err := c.FetchPDF(context.Background(), "https://files.example.org/sheet.pdf")
	require.Error(t, err)
}
