package client

import (
	"context"

	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, username string, password []byte) (*models.User, error)
	Login(ctx context.Context, login string, password []byte) (*models.TokenPair, error)
	Refresh(ctx context.Context) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	AvatarUploadURL(ctx context.Context) (*models.AvatarUpload, error)
	CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	JoinProject(ctx context.Context, id int64) (*models.Member, error)

	// SetTokens installs the tokens used for subsequent calls.
	SetTokens(p models.TokenPair)
	Tokens() models.TokenPair
	// OnRefresh registers fn to be called after a transparent token refresh.
	OnRefresh(fn func(models.TokenPair))
}
