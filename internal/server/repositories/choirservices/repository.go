// Package choirservices stores the per-choir schedule of services and
// rehearsals, including confirmations and absences.
package choirservices

import (
	"context"

	"github.com/kantorei/chorsync/internal/server/models"
)

type Repository interface {
	// SelectUpcoming returns at most limit live services with date >= fromDate,
	// nearest first.
	SelectUpcoming(ctx context.Context, choirID, fromDate string, limit int) ([]models.ChoirService, error)
	// SelectMemberAbsences returns the services where the member is listed
	// absent, newest first.
	SelectMemberAbsences(ctx context.Context, choirID, memberID string) ([]models.Absence, error)
	// Upsert creates or fully overwrites a service.
	Upsert(ctx context.Context, svc *models.ChoirService) error
}
