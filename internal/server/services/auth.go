// Package services contains server-side business logic. This file implements
// AuthService: registration, credential checks, token issuance and refresh,
// password change and logout.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/auth"
	"github.com/dmitrijs2005/nestdevhive/internal/server/config"
	"github.com/dmitrijs2005/nestdevhive/internal/server/metrics"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/users"
	"github.com/dmitrijs2005/nestdevhive/internal/server/security/password"
)

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      password.Hasher
	codec       *auth.Codec
	accessTTL   time.Duration
	refreshTTL  time.Duration
	bindRefresh bool
	metrics     *metrics.Metrics
	log         logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires an AuthService. met may be nil.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher password.Hasher, codec *auth.Codec,
	cfg *config.Config, met *metrics.Metrics, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		accessTTL:   cfg.AccessTokenValidityDuration,
		refreshTTL:  cfg.RefreshTokenValidityDuration,
		bindRefresh: cfg.RefreshTokenBinding,
		metrics:     met,
		log:         log.With("module", "auth"),
	}
}

// Register creates an active, unverified user. An email or username that is
// already taken yields common.ErrorConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (u *models.User, err error) {
	defer func() { s.metrics.AuthEvent("register", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err = createUser(ctx, s.repomanager.Users(s.db), s.hasher, in)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// createUser is shared by registration and the user admin endpoint.
func createUser(ctx context.Context, repo users.Repository, hasher password.Hasher, in RegisterInput) (*models.User, error) {
	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", common.ErrorConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up email: %w", err)
	}
	if _, err := repo.GetByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("%w: username already taken", common.ErrorConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up username: %w", err)
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, invalid(err)
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// a concurrent insert can still win the race; the repository reports it as a conflict
	return repo.Create(ctx, &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   false,
	})
}

// Authenticate checks a password against the user with the given email.
// Unknown email, wrong password and inactive user all yield common.ErrorUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, email, plain string) (*models.User, error) {
	return s.authenticate(ctx, plain, func(r users.Repository) (*models.User, error) {
		return r.GetByEmail(ctx, email)
	})
}

// AuthenticateByUsername is Authenticate keyed by username.
func (s *AuthService) AuthenticateByUsername(ctx context.Context, username, plain string) (*models.User, error) {
	return s.authenticate(ctx, plain, func(r users.Repository) (*models.User, error) {
		return r.GetByUsername(ctx, username)
	})
}

func (s *AuthService) authenticate(ctx context.Context, plain string, lookup func(users.Repository) (*models.User, error)) (*models.User, error) {
	user, err := lookup(s.repomanager.Users(s.db))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// a miss costs one verify, same as a wrong password
			s.hasher.Verify(plain, s.dummy())
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if !s.hasher.Verify(plain, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		plain, err := common.MakeRandHexString(16)
		if err != nil {
			plain = "nestdevhive-dummy-password"
		}
		s.dummyHash, _ = s.hasher.Hash(plain)
	})
	return s.dummyHash
}

// IssueTokenPair mints an access and a refresh token for user and stores the
// refresh token on the user row.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	access, err := s.codec.Encode(auth.NewClaims(user.ID, auth.KindAccess), s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := s.codec.Encode(auth.NewClaims(user.ID, auth.KindRefresh), s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	user.RefreshToken = &refresh

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: common.TokenTypeBearer}, nil
}

// Login authenticates by email, or by username when no email is given, and
// issues a token pair.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (pair *models.TokenPair, err error) {
	defer func() { s.metrics.AuthEvent("login", err) }()

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var user *models.User
	if creds.Email != "" {
		user, err = s.Authenticate(ctx, creds.Email, creds.Password)
	} else {
		user, err = s.AuthenticateByUsername(ctx, creds.Username, creds.Password)
	}
	if err != nil {
		return nil, err
	}

	pair, err = s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is returned unchanged.
//
// Unless refresh-token binding is enabled, the presented token is not compared
// with the one stored at login, so logout does not stop it from being used
// until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *models.TokenPair, err error) {
	defer func() { s.metrics.AuthEvent("refresh", err) }()

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	if claims.Kind != auth.KindRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", common.ErrorUnauthorized)
	}
	userID, ok := claims.UserID()
	if !ok {
		return nil, fmt.Errorf("%w: bad subject", common.ErrorUnauthorized)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}
	if s.bindRefresh {
		if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
			return nil, fmt.Errorf("%w: refresh token revoked", common.ErrorUnauthorized)
		}
	}

	access, err := s.codec.Encode(auth.NewClaims(user.ID, auth.KindAccess), s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refreshToken, TokenType: common.TokenTypeBearer}, nil
}

// ChangePassword replaces user's password when old verifies. On a wrong old
// password it returns common.ErrorUnauthorized and leaves the stored hash as is.
// The stored refresh token and issued tokens are left alone.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, in PasswordChange) (u *models.User, err error) {
	defer func() { s.metrics.AuthEvent("change_password", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !s.hasher.Verify(in.OldPassword, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, invalid(err)
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.PasswordHash = hash
	s.log.Info(ctx, "password changed", "user_id", user.ID)
	return user, nil
}

// Logout forgets the stored refresh token. Tokens already handed out stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, user *models.User) (err error) {
	defer func() { s.metrics.AuthEvent("logout", err) }()

	if err := s.repomanager.Users(s.db).SetRefreshToken(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("error clearing refresh token: %w", err)
	}
	user.RefreshToken = nil
	s.log.Info(ctx, "user logged out", "user_id", user.ID)
	return nil
}
