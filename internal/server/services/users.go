// Package services implements the server's business logic on top of the
// repositories.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/server/auth"
	"github.com/kantorei/chorsync/internal/server/config"
	"github.com/kantorei/chorsync/internal/server/repositories/refreshtokens"
	"github.com/kantorei/chorsync/internal/server/repositories/users"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	users                        users.Repository
	tokens                       refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(u users.Repository, t refreshtokens.Repository, cfg *config.Config) *UserService {
	return &UserService{
		users:                        u,
		tokens:                       t,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, user.ID, user.ChoirIDs)
}

// Refresh rotates the refresh token and mints a fresh access token from the
// current claim snapshot. A resync followed by a refresh therefore yields a
// token with the updated choir claims.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	choirIDs, err := s.users.GetClaimChoirIDs(ctx, userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return s.generateTokenPair(ctx, userID, choirIDs)
}

// ResyncClaims rebuilds the user's claim snapshot from the membership table.
func (s *UserService) ResyncClaims(ctx context.Context, userID string) error {
	if err := s.users.ResyncClaims(ctx, userID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, choirIDs []string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, choirIDs, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.tokens.Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
