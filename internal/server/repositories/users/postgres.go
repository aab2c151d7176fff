package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

const userColumns = `id, email, username, hashed_password, is_active, is_verified,
		refresh_token, bio, avatar_url, avatar_key, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.IsVerified,
		&u.RefreshToken, &u.Bio, &u.AvatarURL, &u.AvatarKey, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// mapError translates driver errors into common sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case "users_email_key":
			return fmt.Errorf("%w: email already registered", common.ErrorConflict)
		case "users_username_key":
			return fmt.Errorf("%w: username already taken", common.ErrorConflict)
		default:
			return common.ErrorConflict
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, username, hashed_password, is_active, is_verified)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.IsActive, user.IsVerified).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// exec runs an UPDATE and reports ErrorNotFound when no row matched.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET hashed_password = $2 WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id int64, token *string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, token)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
}

func (r *PostgresRepository) SetAvatarKey(ctx context.Context, id int64, key string) error {
	return r.exec(ctx, `UPDATE users SET avatar_key = $2 WHERE id = $1`, id, key)
}

// UpdateProfile applies the non-nil fields of upd and returns the updated row.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error) {
	query :=
		`UPDATE users SET
		    username   = COALESCE($2, username),
		    bio        = COALESCE($3, bio),
		    avatar_url = COALESCE($4, avatar_url)
		 WHERE id = $1
		 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, upd.Username, upd.Bio, upd.AvatarURL))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
