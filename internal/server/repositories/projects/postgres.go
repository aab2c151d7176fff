package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

const projectColumns = `id, title, short_description, detailed_description, difficulty, status,
		max_team_members, tags, tech_stack, repository_url, live_demo_url, owner_id, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	p := &models.Project{}
	var tags, stack []byte
	err := row.Scan(&p.ID, &p.Title, &p.ShortDescription, &p.DetailedDescription, &p.Difficulty, &p.Status,
		&p.MaxTeamMembers, &tags, &stack, &p.RepositoryURL, &p.LiveDemoURL, &p.OwnerID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if p.TechStack, err = decodeList(stack); err != nil {
		return nil, err
	}
	return p, nil
}

// Lists are stored as JSONB arrays.
func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(b []byte) ([]string, error) {
	list := []string{}
	if len(b) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	tags, err := encodeList(p.Tags)
	if err != nil {
		return nil, err
	}
	stack, err := encodeList(p.TechStack)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO projects (title, short_description, detailed_description, difficulty, status,
		    max_team_members, tags, tech_stack, repository_url, live_demo_url, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11)
		 RETURNING id, created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		p.Title, p.ShortDescription, p.DetailedDescription, p.Difficulty, p.Status,
		p.MaxTeamMembers, tags, stack, p.RepositoryURL, p.LiveDemoURL, p.OwnerID).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
