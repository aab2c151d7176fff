package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/server/auth"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/repomanager"
)

// SessionResolver turns a presented access token into the user it belongs to.
// It keeps no state between calls.
type SessionResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
}

func NewSessionResolver(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec) *SessionResolver {
	return &SessionResolver{db: db, repomanager: m, codec: codec}
}

// Resolve authenticates an Authorization header value. Every failure is
// common.ErrorUnauthorized; an expired token also matches common.ErrTokenExpired.
func (r *SessionResolver) Resolve(ctx context.Context, header string) (*models.User, error) {
	token, ok := auth.BearerToken(header)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", common.ErrorUnauthorized)
	}
	return r.ResolveToken(ctx, token)
}

// ResolveToken is Resolve for a bare token.
func (r *SessionResolver) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := r.codec.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	if claims.Kind != auth.KindAccess {
		return nil, fmt.Errorf("%w: not an access token", common.ErrorUnauthorized)
	}
	userID, ok := claims.UserID()
	if !ok {
		return nil, fmt.Errorf("%w: bad subject", common.ErrorUnauthorized)
	}

	user, err := r.repomanager.Users(r.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: inactive user", common.ErrorUnauthorized)
	}
	return user, nil
}
