// Package projects persists collaboration projects.
package projects

import (
	"context"

	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
}
