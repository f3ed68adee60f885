// Package refreshtokens stores long-lived refresh tokens. Tokens are single
// use: Consume removes the row while returning its owner, which is what makes
// rotation safe.
package refreshtokens

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Consume deletes the token and returns the owning user id. Unknown and
	// expired tokens yield common.ErrorNotFound.
	Consume(ctx context.Context, token string) (string, error)
}
