package authapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Authenticate and receive a token pair",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) refreshOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Rotate the refresh token and mint a fresh access token",
		Tags:        []string{"auth"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) resyncClaimsOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-resync-claims",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/resync-claims",
		Summary:     "Rebuild the choir claims from the membership table",
		Tags:        []string{"auth"},
		Middlewares: h.authorized,
	}
}
