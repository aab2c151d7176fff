package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, m *models.ProjectMember) (*models.ProjectMember, error) {
	query :=
		`INSERT INTO project_members (user_id, project_id, role)
		 VALUES ($1, $2, $3)
		 RETURNING id, joined_at
		 `

	err := r.db.QueryRowContext(ctx, query, m.UserID, m.ProjectID, m.Role).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: already a member", common.ErrorConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, projectID int64) (*models.ProjectMember, error) {
	query :=
		`SELECT id, user_id, project_id, role, joined_at FROM project_members
		 WHERE user_id = $1 AND project_id = $2
		 `

	m := &models.ProjectMember{}
	err := r.db.QueryRowContext(ctx, query, userID, projectID).
		Scan(&m.ID, &m.UserID, &m.ProjectID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.ProjectMember, error) {
	query :=
		`SELECT id, user_id, project_id, role, joined_at FROM project_members
		 WHERE project_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.ProjectMember{}
	for rows.Next() {
		m := &models.ProjectMember{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.ProjectID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
