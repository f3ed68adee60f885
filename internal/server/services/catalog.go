package services

import (
	"context"
	"time"

	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/server/models"
	"github.com/kantorei/chorsync/internal/server/repositories/choirservices"
	"github.com/kantorei/chorsync/internal/server/repositories/songs"
)

// CatalogService serves the repertoire and schedule reads the clients sync
// from. The serverTime it returns with every delta is the watermark clients
// persist, which keeps the clock authority on one side.
type CatalogService struct {
	songs    songs.Repository
	services choirservices.Repository
	now      func() time.Time
}

func NewCatalogService(s songs.Repository, cs choirservices.Repository) *CatalogService {
	return &CatalogService{songs: s, services: cs, now: time.Now}
}

func (s *CatalogService) UpdatedSince(ctx context.Context, choirID string, since int64) ([]models.Song, int64, error) {
	serverTime := s.now().UnixMilli()

	updated, err := s.songs.SelectUpdatedSince(ctx, choirID, since)
	if err != nil {
		return nil, 0, common.ErrorInternal
	}
	return updated, serverTime, nil
}

func (s *CatalogService) DeletedSince(ctx context.Context, choirID string, since int64) ([]string, error) {
	ids, err := s.songs.SelectDeletedSince(ctx, choirID, since)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return ids, nil
}

func (s *CatalogService) SongsByIDs(ctx context.Context, choirID string, ids []string) ([]models.Song, error) {
	found, err := s.songs.SelectByIDs(ctx, choirID, ids)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return found, nil
}

func (s *CatalogService) UpcomingServices(ctx context.Context, choirID string, limit int) ([]models.ChoirService, error) {
	fromDate := s.now().Format("2006-01-02")

	upcoming, err := s.services.SelectUpcoming(ctx, choirID, fromDate, limit)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return upcoming, nil
}

func (s *CatalogService) MemberAbsences(ctx context.Context, choirID, memberID string) ([]models.Absence, error) {
	absences, err := s.services.SelectMemberAbsences(ctx, choirID, memberID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return absences, nil
}
