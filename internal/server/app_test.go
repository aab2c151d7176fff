package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/server/config"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/members"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/projects"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	migrateErr error
	migrated   int
}

func (f *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	f.migrated++
	return f.migrateErr
}
func (f *fakeManager) Users(db dbx.DBTX) users.Repository { return users.NewPostgresRepository(db) }
func (f *fakeManager) Projects(db dbx.DBTX) projects.Repository {
	return projects.NewPostgresRepository(db)
}
func (f *fakeManager) Members(db dbx.DBTX) members.Repository {
	return members.NewPostgresRepository(db)
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.CacheDriver = "none"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	return c
}

func mockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := openDB
	openDB = func(string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })
	return mock
}

func TestNewApp_WiresComponents(t *testing.T) {
	mockDB(t)

	app, err := NewApp(testConfig())
	require.NoError(t, err)
	require.NotNil(t, app.authService)
	require.NotNil(t, app.sessions)
	require.NotNil(t, app.userService)
	require.NotNil(t, app.projectService)
	require.NotNil(t, app.avatarService)
	require.NotNil(t, app.metrics)
	require.NotNil(t, app.httpServer())
	require.NotNil(t, app.grpcServer())
}

func TestNewApp_BadAlgorithm(t *testing.T) {
	mock := mockDB(t)
	mock.ExpectClose()

	c := testConfig()
	c.JWTAlgorithm = "RS256"

	_, err := NewApp(c)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_OpenError(t *testing.T) {
	orig := openDB
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("no driver") }
	t.Cleanup(func() { openDB = orig })

	_, err := NewApp(testConfig())
	require.ErrorContains(t, err, "db init error")
}

func TestApp_Migrate(t *testing.T) {
	mockDB(t)
	app, err := NewApp(testConfig())
	require.NoError(t, err)

	fm := &fakeManager{}
	app.repomanager = fm
	require.NoError(t, app.Migrate(context.Background()))
	require.Equal(t, 1, fm.migrated)

	fm.migrateErr = errors.New("dirty")
	require.ErrorContains(t, app.Migrate(context.Background()), "migrations: dirty")
}

func TestApp_Run_StopsOnMigrationError(t *testing.T) {
	mock := mockDB(t)
	mock.ExpectClose()

	app, err := NewApp(testConfig())
	require.NoError(t, err)
	app.repomanager = &fakeManager{migrateErr: errors.New("dirty")}

	require.Error(t, app.Run(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_Run_GracefulShutdown(t *testing.T) {
	mock := mockDB(t)
	mock.ExpectClose()

	app, err := NewApp(testConfig())
	require.NoError(t, err)
	app.repomanager = &fakeManager{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, mock.ExpectationsWereMet())
}
