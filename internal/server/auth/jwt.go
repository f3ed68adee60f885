// Package auth issues and verifies the HS256 tokens carrying a user's choir
// membership claims.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kantorei/chorsync/internal/common"
)

// Claims extends the registered claims with the user id and the choir
// membership snapshot taken when the token was minted. Clients inspect
// ChoirIDs to decide whether a claim resync is needed before syncing.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	ChoirIDs []string `json:"choir_ids"`
}

// GenerateToken mints a signed access token for the user.
func GenerateToken(userID string, choirIDs []string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:   userID,
		ChoirIDs: choirIDs,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry and returns the claims.
// Expired tokens map to common.ErrTokenExpired so callers can distinguish
// "refresh" from "reject".
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// HasChoir reports whether the claims list the given choir.
func (c *Claims) HasChoir(choirID string) bool {
	for _, id := range c.ChoirIDs {
		if id == choirID {
			return true
		}
	}
	return false
}
