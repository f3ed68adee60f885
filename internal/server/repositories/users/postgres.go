package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kantorei/chorsync/internal/common"
	"github.com/kantorei/chorsync/internal/dbx"
	"github.com/kantorei/chorsync/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the account with its memberships. The claim snapshot is
// seeded to match so freshly created users get working tokens immediately.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`INSERT INTO users (email, password_hash, member_id)
			 VALUES ($1, $2, $3)
			 RETURNING id
			 `

		if err := tx.QueryRowContext(ctx, query,
			user.Email, user.PasswordHash, user.MemberID).Scan(&user.ID); err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}

		for _, choirID := range user.ChoirIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO choir_members (choir_id, user_id) VALUES ($1, $2)`,
				choirID, user.ID)
			if err != nil {
				return fmt.Errorf("error performing sql request: %v", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO user_claims (user_id, choir_id) VALUES ($1, $2)`,
				user.ID, choirID)
			if err != nil {
				return fmt.Errorf("error performing sql request: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, password_hash, member_id FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	user.ChoirIDs, err = r.GetClaimChoirIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) GetClaimChoirIDs(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT choir_id FROM user_claims
		 WHERE user_id = $1
		 ORDER BY choir_id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResyncClaims rebuilds the claim snapshot from choir_members atomically, so
// a concurrent token refresh sees either the old or the new snapshot, never
// an empty one.
func (r *PostgresRepository) ResyncClaims(ctx context.Context, userID string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM user_claims WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_claims (user_id, choir_id)
			 SELECT user_id, choir_id FROM choir_members WHERE user_id = $1`,
			userID)
		if err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}
		return nil
	})
}
