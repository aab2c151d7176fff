package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/cache"
	"github.com/dmitrijs2005/nestdevhive/internal/server/metrics"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/repomanager"
	"golang.org/x/sync/singleflight"
)

const projectListKey = "projects:list"

func projectKey(id int64) string { return "projects:" + strconv.FormatInt(id, 10) }

// ProjectService manages projects and their memberships. Reads go through a
// cache; concurrent misses for the same key share one database query.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.Cache
	ttl         time.Duration
	group       singleflight.Group
	metrics     *metrics.Metrics
	log         logging.Logger
}

// NewProjectService wires a ProjectService. c may be nil (no caching); met may be nil.
func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache, ttl time.Duration,
	met *metrics.Metrics, log logging.Logger) *ProjectService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ProjectService{
		db:          db,
		repomanager: m,
		cache:       c,
		ttl:         ttl,
		metrics:     met,
		log:         log.With("module", "projects"),
	}
}

// Create stores a project owned by owner together with the owner's membership.
func (s *ProjectService) Create(ctx context.Context, owner *models.User, in ProjectInput) (*models.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var project *models.Project
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := s.repomanager.Projects(tx).Create(ctx, in.toModel(owner.ID))
		if err != nil {
			return fmt.Errorf("error creating project: %w", err)
		}
		_, err = s.repomanager.Members(tx).Add(ctx, &models.ProjectMember{
			UserID:    owner.ID,
			ProjectID: p.ID,
			Role:      models.RoleOwner,
		})
		if err != nil {
			return fmt.Errorf("error adding owner: %w", err)
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, projectListKey)
	s.log.Info(ctx, "project created", "project_id", project.ID, "owner_id", owner.ID)
	return project, nil
}

// List returns all projects ordered by id.
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return cached(ctx, s, projectListKey, func(ctx context.Context) ([]*models.Project, error) {
		return s.repomanager.Projects(s.db).List(ctx)
	})
}

// Get returns common.ErrorNotFound for unknown ids.
func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	return cached(ctx, s, projectKey(id), func(ctx context.Context) (*models.Project, error) {
		return s.repomanager.Projects(s.db).GetByID(ctx, id)
	})
}

// Join makes user a member of the project. Joining twice returns the existing
// membership.
func (s *ProjectService) Join(ctx context.Context, user *models.User, projectID int64) (*models.ProjectMember, error) {
	var member *models.ProjectMember
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Projects(tx).GetByID(ctx, projectID); err != nil {
			return err
		}

		repo := s.repomanager.Members(tx)
		m, err := repo.Get(ctx, user.ID, projectID)
		if err == nil {
			member = m
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error looking up membership: %w", err)
		}

		member, err = repo.Add(ctx, &models.ProjectMember{UserID: user.ID, ProjectID: projectID, Role: models.RoleMember})
		return err
	})
	if errors.Is(err, common.ErrorConflict) {
		// lost a race with a concurrent join of the same user
		return s.repomanager.Members(s.db).Get(ctx, user.ID, projectID)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "project joined", "project_id", projectID, "user_id", user.ID, "role", member.Role)
	return member, nil
}

// Members lists the memberships of a project.
func (s *ProjectService) Members(ctx context.Context, projectID int64) ([]*models.ProjectMember, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repomanager.Members(s.db).ListByProject(ctx, projectID)
}

func cached[T any](ctx context.Context, s *ProjectService, key string, load func(context.Context) (T, error)) (T, error) {
	if b, ok := s.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			s.metrics.CacheLookup(true)
			return v, nil
		}
		s.log.Warn(ctx, "dropping undecodable cache entry", "key", key)
		s.cache.Delete(ctx, key)
	}
	s.metrics.CacheLookup(false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(v); err == nil {
			s.cache.Set(ctx, key, b, s.ttl)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
