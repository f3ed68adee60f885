// Package users stores accounts together with the claim snapshot minted into
// access tokens. The choir_members table is the membership source of truth;
// user_claims lags behind it until a claim resync copies members over.
package users

import (
	"context"

	"github.com/kantorei/chorsync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByEmail returns the account with its current claim snapshot loaded
	// into ChoirIDs.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetClaimChoirIDs returns the claim snapshot for the user.
	GetClaimChoirIDs(ctx context.Context, userID string) ([]string, error)
	// ResyncClaims replaces the claim snapshot with the current membership.
	ResyncClaims(ctx context.Context, userID string) error
}
