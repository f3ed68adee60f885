package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantorei/chorsync/internal/logging"
	srvauth "github.com/kantorei/chorsync/internal/server/auth"
)

const testSecret = "test-secret"

type whoamiOutput struct {
	Body struct {
		UserID string `json:"userId"`
	}
}

// newTestAPI registers one guarded route that echoes the user id from the
// verified claims.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()

	mux := chi.NewMux()
	api := humachi.New(mux, huma.DefaultConfig("test", "0.0.1"))

	mw := New([]byte(testSecret), logging.NewNopLogger())

	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Middlewares: huma.Middlewares{mw.Middleware()},
	}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		claims, ok := GetClaims(ctx)
		if !ok {
			return nil, huma.Error500InternalServerError("claims missing")
		}
		out := &whoamiOutput{}
		out.Body.UserID = claims.UserID
		return out, nil
	})

	return mux
}

func TestMiddleware_ValidToken(t *testing.T) {
	handler := newTestAPI(t)

	token, err := srvauth.GenerateToken("u1", []string{"c1"}, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"u1"`)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	handler := newTestAPI(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	handler := newTestAPI(t)

	token, err := srvauth.GenerateToken("u1", nil, []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_WrongSecret(t *testing.T) {
	handler := newTestAPI(t)

	token, err := srvauth.GenerateToken("u1", nil, []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
