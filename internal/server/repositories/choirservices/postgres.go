package choirservices

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kantorei/chorsync/internal/dbx"
	"github.com/kantorei/chorsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SelectUpcoming(ctx context.Context, choirID, fromDate string, limit int) ([]models.ChoirService, error) {
	query :=
		`SELECT id, choir_id, title, date, time, song_ids, confirmed, absent, updated_at
		 FROM services
		 WHERE choir_id = $1 AND date >= $2 AND NOT deleted
		 ORDER BY date, time
		 LIMIT $3
		 `

	rows, err := r.db.QueryContext(ctx, query, choirID, fromDate, limit)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var services []models.ChoirService
	for rows.Next() {
		var s models.ChoirService
		var songIDs, confirmed, absent []byte
		if err := rows.Scan(&s.ID, &s.ChoirID, &s.Title, &s.Date, &s.Time,
			&songIDs, &confirmed, &absent, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		for _, col := range []struct {
			raw []byte
			dst *[]string
		}{{songIDs, &s.SongIDs}, {confirmed, &s.Confirmed}, {absent, &s.Absent}} {
			if err := json.Unmarshal(col.raw, col.dst); err != nil {
				return nil, fmt.Errorf("error decoding member list: %v", err)
			}
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *PostgresRepository) SelectMemberAbsences(ctx context.Context, choirID, memberID string) ([]models.Absence, error) {
	// the ? jsonb operator collides with placeholder syntax, @> does not
	query :=
		`SELECT id, date, title FROM services
		 WHERE choir_id = $1 AND absent @> to_jsonb($2::text) AND NOT deleted
		 ORDER BY date DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, choirID, memberID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var absences []models.Absence
	for rows.Next() {
		var a models.Absence
		if err := rows.Scan(&a.ServiceID, &a.Date, &a.Title); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

func (r *PostgresRepository) Upsert(ctx context.Context, svc *models.ChoirService) error {
	songIDs, err := json.Marshal(emptyIfNil(svc.SongIDs))
	if err != nil {
		return fmt.Errorf("error encoding song ids: %v", err)
	}
	confirmed, err := json.Marshal(emptyIfNil(svc.Confirmed))
	if err != nil {
		return fmt.Errorf("error encoding confirmations: %v", err)
	}
	absent, err := json.Marshal(emptyIfNil(svc.Absent))
	if err != nil {
		return fmt.Errorf("error encoding absences: %v", err)
	}

	query :=
		`INSERT INTO services (id, choir_id, title, date, time, song_ids, confirmed, absent, updated_at, deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, date = EXCLUDED.date, time = EXCLUDED.time,
		   song_ids = EXCLUDED.song_ids, confirmed = EXCLUDED.confirmed,
		   absent = EXCLUDED.absent, updated_at = EXCLUDED.updated_at,
		   deleted = FALSE
		 `

	_, err = r.db.ExecContext(ctx, query,
		svc.ID, svc.ChoirID, svc.Title, svc.Date, svc.Time,
		songIDs, confirmed, absent, svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
