// Package services contains the CLI's application services. The auth service
// keeps the login session in the local database so it survives restarts.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/nestdevhive/internal/client/client"
	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
	"github.com/dmitrijs2005/nestdevhive/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/nestdevhive/internal/filex"
	"github.com/dmitrijs2005/nestdevhive/internal/netx"
)

// MaxAvatarBytes bounds avatar uploads.
const MaxAvatarBytes = 5 << 20

// AuthService defines the account operations of the CLI. All methods honor
// context cancellation.
type AuthService interface {
	// Restore reinstalls the stored session, returning its login or "" if none.
	Restore(ctx context.Context) (string, error)
	Register(ctx context.Context, email, username string, password []byte) (*models.User, error)
	Login(ctx context.Context, login string, password []byte) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error
	UploadAvatar(ctx context.Context, path string) (string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	server string
}

// NewAuthService binds the API client to the session store for server.
func NewAuthService(c client.Client, db *sql.DB, server string) AuthService {
	a := &authService{client: c, db: db, server: server}
	c.OnRefresh(func(p models.TokenPair) {
		_ = a.getSessionRepo().UpdateAccessToken(context.Background(), a.server, p.AccessToken)
	})
	return a
}

func (a *authService) getSessionRepo() sessions.Repository {
	return sessions.NewSQLiteRepository(a.db)
}

func (a *authService) Restore(ctx context.Context) (string, error) {
	s, err := a.getSessionRepo().Get(ctx, a.server)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	a.client.SetTokens(models.TokenPair{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken})
	return s.Login, nil
}

func (a *authService) Register(ctx context.Context, email, username string, password []byte) (*models.User, error) {
	return a.client.Register(ctx, email, username, password)
}

// Login authenticates and persists the issued tokens.
func (a *authService) Login(ctx context.Context, login string, password []byte) error {
	p, err := a.client.Login(ctx, login, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	s := &models.Session{Server: a.server, Login: login, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
	if err := a.getSessionRepo().Save(ctx, s); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

func (a *authService) Refresh(ctx context.Context) error {
	if _, err := a.client.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh error: %w", err)
	}
	return nil
}

// Logout ends the session on the server and forgets it locally. The local
// session is dropped even when the server is unreachable or already rejects it.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if cerr := a.clearSession(ctx); cerr != nil {
		return cerr
	}
	if err != nil && !errors.Is(err, client.ErrUnauthorized) && !errors.Is(err, client.ErrUnavailable) {
		return err
	}
	return nil
}

func (a *authService) clearSession(ctx context.Context) error {
	a.client.SetTokens(models.TokenPair{})
	return a.getSessionRepo().Delete(ctx, a.server)
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	return a.client.Me(ctx)
}

// ChangePassword changes the password; the server revokes the refresh token,
// so the local session is dropped as well.
func (a *authService) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	if _, err := a.client.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	return a.clearSession(ctx)
}

// UploadAvatar sends the image at path to a presigned URL and returns its key.
func (a *authService) UploadAvatar(ctx context.Context, path string) (string, error) {
	data, err := filex.ReadLimited(path, MaxAvatarBytes)
	if err != nil {
		return "", err
	}

	up, err := a.client.AvatarUploadURL(ctx)
	if err != nil {
		return "", err
	}

	if err := netx.UploadToS3PresignedURL(ctx, up.UploadURL, data, http.DetectContentType(data)); err != nil {
		return "", err
	}
	return up.Key, nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
