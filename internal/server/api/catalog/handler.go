// Package catalog exposes the repertoire and schedule reads the clients sync
// from. Every route is scoped to a choir and checked against the caller's
// choir claims.
package catalog

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kantorei/chorsync/internal/logging"
	authmw "github.com/kantorei/chorsync/internal/server/api/middleware/auth"
	"github.com/kantorei/chorsync/internal/server/auth"
	"github.com/kantorei/chorsync/internal/server/models"
	"github.com/kantorei/chorsync/internal/server/services"
)

const defaultUpcomingLimit = 5

type Handler struct {
	service    *services.CatalogService
	log        logging.Logger
	middleware huma.Middlewares
}

func NewHandler(service *services.CatalogService, log logging.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.updatedOp(), h.updated)
	huma.Register(api, h.deletedOp(), h.deleted)
	huma.Register(api, h.batchOp(), h.batch)
	huma.Register(api, h.upcomingOp(), h.upcoming)
	huma.Register(api, h.absencesOp(), h.absences)
}

// requireChoir resolves the caller's claims and checks the requested choir is
// among them. A valid token for the wrong choir yields 403, not 401, so
// clients know a resync rather than a login is due.
func requireChoir(ctx context.Context, choirID string) (*auth.Claims, error) {
	claims, ok := authmw.GetClaims(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}
	if !claims.HasChoir(choirID) {
		return nil, huma.Error403Forbidden("not a member of this choir")
	}
	return claims, nil
}

func (h *Handler) updated(ctx context.Context, input *updatedInput) (*updatedOutput, error) {
	if _, err := requireChoir(ctx, input.ChoirID); err != nil {
		return nil, err
	}

	songs, serverTime, err := h.service.UpdatedSince(ctx, input.ChoirID, input.Since)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list updated songs")
	}
	if songs == nil {
		songs = []models.Song{}
	}

	return &updatedOutput{Body: UpdatedResponse{Songs: songs, ServerTime: serverTime}}, nil
}

func (h *Handler) deleted(ctx context.Context, input *deletedInput) (*deletedOutput, error) {
	if _, err := requireChoir(ctx, input.ChoirID); err != nil {
		return nil, err
	}

	ids, err := h.service.DeletedSince(ctx, input.ChoirID, input.Since)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list deleted songs")
	}
	if ids == nil {
		ids = []string{}
	}

	return &deletedOutput{Body: DeletedResponse{IDs: ids}}, nil
}

func (h *Handler) batch(ctx context.Context, input *batchInput) (*batchOutput, error) {
	if _, err := requireChoir(ctx, input.ChoirID); err != nil {
		return nil, err
	}

	songs, err := h.service.SongsByIDs(ctx, input.ChoirID, input.Body.IDs)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to fetch songs")
	}
	if songs == nil {
		songs = []models.Song{}
	}

	return &batchOutput{Body: BatchResponse{Songs: songs}}, nil
}

func (h *Handler) upcoming(ctx context.Context, input *upcomingInput) (*upcomingOutput, error) {
	if _, err := requireChoir(ctx, input.ChoirID); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}

	upcoming, err := h.service.UpcomingServices(ctx, input.ChoirID, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list upcoming services")
	}
	if upcoming == nil {
		upcoming = []models.ChoirService{}
	}

	return &upcomingOutput{Body: UpcomingResponse{Services: upcoming}}, nil
}

func (h *Handler) absences(ctx context.Context, input *absencesInput) (*absencesOutput, error) {
	if _, err := requireChoir(ctx, input.ChoirID); err != nil {
		return nil, err
	}

	absences, err := h.service.MemberAbsences(ctx, input.ChoirID, input.MemberID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to fetch absences")
	}
	if absences == nil {
		absences = []models.Absence{}
	}

	return &absencesOutput{Body: AbsencesResponse{Absences: absences}}, nil
}
