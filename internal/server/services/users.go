package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nestdevhive/internal/server/security/password"
)

// UserService covers account reads and profile management.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher password.Hasher, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, hasher: hasher, log: log.With("module", "users")}
}

// Create adds a user with the same rules as registration.
func (s *UserService) Create(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return createUser(ctx, s.repomanager.Users(s.db), s.hasher, in)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// Get returns common.ErrorNotFound for unknown ids.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfile applies in to user; a taken username yields common.ErrorConflict.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, user.ID, in.toModel())
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "profile updated", "user_id", user.ID)
	return u, nil
}

// Deactivate switches the account off and drops its stored refresh token.
// Afterwards the user can neither log in nor use issued tokens.
func (s *UserService) Deactivate(ctx context.Context, user *models.User) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := repo.SetActive(ctx, user.ID, false); err != nil {
			return fmt.Errorf("error deactivating user: %w", err)
		}
		return repo.SetRefreshToken(ctx, user.ID, nil)
	})
	if err != nil {
		return err
	}
	user.IsActive = false
	user.RefreshToken = nil
	s.log.Info(ctx, "user deactivated", "user_id", user.ID)
	return nil
}
