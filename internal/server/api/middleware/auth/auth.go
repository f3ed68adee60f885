// Package auth provides the huma middleware that verifies bearer tokens and
// places the parsed claims into the request context.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kantorei/chorsync/internal/logging"
	srvauth "github.com/kantorei/chorsync/internal/server/auth"
)

type Auth struct {
	secretKey []byte
	log       logging.Logger
}

func New(secretKey []byte, log logging.Logger) *Auth {
	return &Auth{
		secretKey: secretKey,
		log:       log.With("component", "auth_middleware"),
	}
}

type contextKey string

const claimsKey contextKey = "claims"

// Middleware rejects requests without a valid bearer token and otherwise
// stores the token claims in the context for handlers to read.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")

		if !strings.HasPrefix(header, "Bearer ") {
			a.reject(ctx)
			return
		}

		claims, err := srvauth.ParseToken(strings.TrimPrefix(header, "Bearer "), a.secretKey)
		if err != nil {
			a.log.Debug(ctx.Context(), "token rejected", "error", err)
			a.reject(ctx)
			return
		}

		next(huma.WithContext(ctx, WithClaims(ctx.Context(), claims)))
	}
}

func (a *Auth) reject(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "unauthorized",
	})
}

// WithClaims returns a context carrying the given claims.
func WithClaims(ctx context.Context, claims *srvauth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the verified token claims placed by the middleware.
func GetClaims(ctx context.Context) (*srvauth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*srvauth.Claims)
	return claims, ok
}
