// Package members persists project memberships.
package members

import (
	"context"

	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

type Repository interface {
	// Add inserts a membership; an existing (user, project) pair yields common.ErrorConflict.
	Add(ctx context.Context, m *models.ProjectMember) (*models.ProjectMember, error)
	Get(ctx context.Context, userID, projectID int64) (*models.ProjectMember, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.ProjectMember, error)
}
