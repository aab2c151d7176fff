package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/members"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/projects"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code path
// works on the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository
	Members(db dbx.DBTX) members.Repository
}
