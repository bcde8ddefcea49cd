package pushendpoints

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ttychat/internal/dbx"
	"github.com/dmitrijs2005/ttychat/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, sessionID, url string) (*models.PushEndpoint, error) {
	query := `
		INSERT INTO push_endpoints (id, session_id, url)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING id, created_at
	`
	e := &models.PushEndpoint{SessionID: sessionID, URL: url}
	if err := r.db.QueryRowContext(ctx, query, uuid.NewString(), sessionID, url).Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM push_endpoints
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListExcept(ctx context.Context, sessionID string) ([]*models.PushEndpoint, error) {
	query := `
		SELECT id, session_id, url, created_at
		FROM push_endpoints
		WHERE session_id <> $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error selecting push endpoints: %w", err)
	}
	defer rows.Close()

	var result []*models.PushEndpoint
	for rows.Next() {
		e := &models.PushEndpoint{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.URL, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
