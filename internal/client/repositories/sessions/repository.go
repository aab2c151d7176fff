package sessions

import (
	"context"

	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
)

type Repository interface {
	// Get returns (nil, nil) when no session is stored for server.
	Get(ctx context.Context, server string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	UpdateAccessToken(ctx context.Context, server, token string) error
	Delete(ctx context.Context, server string) error
}
