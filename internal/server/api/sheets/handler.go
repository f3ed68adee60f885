// Package sheets hands out presigned download URLs for sheet objects in the
// S3-compatible backend.
package sheets

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kantorei/chorsync/internal/logging"
	"github.com/kantorei/chorsync/internal/server/services"
)

type Handler struct {
	service    *services.StorageService
	log        logging.Logger
	middleware huma.Middlewares
}

func NewHandler(service *services.StorageService, log logging.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.presignOp(), h.presign)
}

type presignInput struct {
	Key string `query:"key" required:"true"`
}

type presignOutput struct {
	Body PresignResponse
}

type PresignResponse struct {
	URL string `json:"url"`
}

func (h *Handler) presign(ctx context.Context, input *presignInput) (*presignOutput, error) {
	url, err := h.service.GetPresignedGetURL(ctx, input.Key)
	if err != nil {
		h.log.Error(ctx, "presign failed", "key", input.Key, "error", err)
		return nil, huma.Error500InternalServerError("failed to presign sheet URL")
	}

	return &presignOutput{Body: PresignResponse{URL: url}}, nil
}
