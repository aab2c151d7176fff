package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context, server string) (*models.Session, error) {
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT server, login, access_token, refresh_token, updated_at FROM sessions WHERE server = ?`, server).
		Scan(&s.Server, &s.Login, &s.AccessToken, &s.RefreshToken, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", server, err)
	}
	return s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = r.now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (server, login, access_token, refresh_token, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET
			login = excluded.login,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`, s.Server, s.Login, s.AccessToken, s.RefreshToken, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", s.Server, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateAccessToken(ctx context.Context, server, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET access_token = ?, updated_at = ? WHERE server = ?`, token, r.now().UTC(), server)
	if err != nil {
		return fmt.Errorf("failed to update session[%s]: %w", server, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, server string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, server)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", server, err)
	}
	return nil
}
