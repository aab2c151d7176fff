package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/nestdevhive/internal/client/client"
	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
)

type ProjectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, in models.ProjectInput) (*models.Project, error)
	Join(ctx context.Context, id int64) (*models.Member, error)
}

type projectService struct {
	client client.Client
}

func NewProjectService(c client.Client) ProjectService {
	return &projectService{client: c}
}

func (p *projectService) List(ctx context.Context) ([]models.Project, error) {
	return p.client.ListProjects(ctx)
}

func (p *projectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	return p.client.GetProject(ctx, id)
}

// Create trims the free-text fields and drops empty tags before sending.
func (p *projectService) Create(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
	in.Tags = compact(in.Tags)
	in.TechStack = compact(in.TechStack)
	return p.client.CreateProject(ctx, in)
}

func (p *projectService) Join(ctx context.Context, id int64) (*models.Member, error) {
	return p.client.JoinProject(ctx, id)
}

// compact trims items and removes empty ones; it returns nil for no items.
func compact(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
