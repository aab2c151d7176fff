package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/nestdevhive/internal/client/client"
	"github.com/dmitrijs2005/nestdevhive/internal/client/models"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	tokens    models.TokenPair
	onRefresh func(models.TokenPair)

	loginErr  error
	logoutErr error
	changeErr error
	upload    *models.AvatarUpload

	lastLogin   string
	lastProject models.ProjectInput
	closed      bool
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error                 { f.closed = true; return nil }
func (f *fakeClient) Ping(context.Context) error   { return nil }
func (f *fakeClient) SetTokens(p models.TokenPair) { f.tokens = p }
func (f *fakeClient) Tokens() models.TokenPair     { return f.tokens }
func (f *fakeClient) OnRefresh(fn func(models.TokenPair)) {
	f.onRefresh = fn
}

func (f *fakeClient) Register(_ context.Context, email, username string, _ []byte) (*models.User, error) {
	return &models.User{ID: 1, Email: email, Username: username}, nil
}

func (f *fakeClient) Login(_ context.Context, login string, _ []byte) (*models.TokenPair, error) {
	f.lastLogin = login
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.tokens = models.TokenPair{AccessToken: "at", RefreshToken: "rt", TokenType: "bearer"}
	return &f.tokens, nil
}

func (f *fakeClient) Refresh(context.Context) (*models.TokenPair, error) {
	f.tokens.AccessToken = "at2"
	if f.onRefresh != nil {
		f.onRefresh(f.tokens)
	}
	return &f.tokens, nil
}

func (f *fakeClient) ChangePassword(context.Context, []byte, []byte) (*models.User, error) {
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return &models.User{ID: 1}, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.tokens = models.TokenPair{}
	return f.logoutErr
}

func (f *fakeClient) Me(context.Context) (*models.User, error) {
	return &models.User{ID: 1, Username: "alice"}, nil
}

func (f *fakeClient) AvatarUploadURL(context.Context) (*models.AvatarUpload, error) {
	return f.upload, nil
}

func (f *fakeClient) CreateProject(_ context.Context, in models.ProjectInput) (*models.Project, error) {
	f.lastProject = in
	return &models.Project{ID: 1, Title: in.Title}, nil
}

func (f *fakeClient) ListProjects(context.Context) ([]models.Project, error) {
	return []models.Project{{ID: 1, Title: "Hive"}}, nil
}

func (f *fakeClient) GetProject(_ context.Context, id int64) (*models.Project, error) {
	if id != 1 {
		return nil, client.ErrNotFound
	}
	return &models.Project{ID: 1, Title: "Hive"}, nil
}

func (f *fakeClient) JoinProject(_ context.Context, id int64) (*models.Member, error) {
	return &models.Member{ID: 2, ProjectID: id, Role: "member"}, nil
}
