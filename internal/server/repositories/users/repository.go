// Package users persists user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

// Repository is the credential store. Lookups return common.ErrorNotFound for
// missing rows; writes that hit the email or username constraint return
// common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error)
	SetRefreshToken(ctx context.Context, id int64, token *string) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetAvatarKey(ctx context.Context, id int64, key string) error
}
