// Package authapi exposes login, token refresh and claim resync over HTTP.
package authapi

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/logging"
	authmw "github.com/kantorei/chorsync/internal/server/api/middleware/auth"
	"github.com/kantorei/chorsync/internal/server/services"
)

type Handler struct {
	service    *services.UserService
	log        logging.Logger
	middleware huma.Middlewares
	authorized huma.Middlewares
}

func NewHandler(service *services.UserService, log logging.Logger, public, authorized huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: public,
		authorized: authorized,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.refreshOp(), h.refresh)
	huma.Register(api, h.resyncClaimsOp(), h.resyncClaims)
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*tokenPairOutput, error) {
	pair, err := h.service.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, huma.Error401Unauthorized("invalid credentials")
		}
		return nil, huma.Error500InternalServerError("login failed")
	}

	return &tokenPairOutput{
		Body: TokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	}, nil
}

func (h *Handler) refresh(ctx context.Context, input *refreshInput) (*tokenPairOutput, error) {
	pair, err := h.service.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, huma.Error401Unauthorized("invalid refresh token")
		}
		return nil, huma.Error500InternalServerError("token refresh failed")
	}

	return &tokenPairOutput{
		Body: TokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		},
	}, nil
}

func (h *Handler) resyncClaims(ctx context.Context, _ *struct{}) (*resyncOutput, error) {
	claims, ok := authmw.GetClaims(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.service.ResyncClaims(ctx, claims.UserID); err != nil {
		return nil, huma.Error500InternalServerError("claim resync failed")
	}

	h.log.Info(ctx, "claims resynced", "user", claims.UserID)
	return &resyncOutput{Body: ResyncResponse{Status: "ok"}}, nil
}
