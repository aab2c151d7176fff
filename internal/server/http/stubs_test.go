package http

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/services"
)

var errNotStubbed = errors.New("not stubbed")

type stubAuth struct {
	register       func(context.Context, services.RegisterInput) (*models.User, error)
	login          func(context.Context, services.Credentials) (*models.TokenPair, error)
	refresh        func(context.Context, string) (*models.TokenPair, error)
	changePassword func(context.Context, *models.User, services.PasswordChange) (*models.User, error)
	logouts        int
}

func (s *stubAuth) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if s.register == nil {
		return nil, errNotStubbed
	}
	return s.register(ctx, in)
}

func (s *stubAuth) Login(ctx context.Context, c services.Credentials) (*models.TokenPair, error) {
	if s.login == nil {
		return nil, errNotStubbed
	}
	return s.login(ctx, c)
}

func (s *stubAuth) Refresh(ctx context.Context, t string) (*models.TokenPair, error) {
	if s.refresh == nil {
		return nil, errNotStubbed
	}
	return s.refresh(ctx, t)
}

func (s *stubAuth) ChangePassword(ctx context.Context, u *models.User, in services.PasswordChange) (*models.User, error) {
	if s.changePassword == nil {
		return nil, errNotStubbed
	}
	return s.changePassword(ctx, u, in)
}

func (s *stubAuth) Logout(context.Context, *models.User) error {
	s.logouts++
	return nil
}

// stubSessions accepts exactly "Bearer good" and "Bearer expired".
type stubSessions struct {
	user *models.User
}

func (s stubSessions) Resolve(_ context.Context, header string) (*models.User, error) {
	switch header {
	case "Bearer good":
		return s.user, nil
	case "Bearer expired":
		return nil, errors.Join(common.ErrorUnauthorized, common.ErrTokenExpired)
	}
	return nil, common.ErrorUnauthorized
}

type stubUsers struct {
	users       map[int64]*models.User
	deactivated bool
	update      func(*models.User, services.ProfileInput) (*models.User, error)
}

func (s *stubUsers) Create(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &models.User{ID: 9, Email: in.Email, Username: in.Username, IsActive: true}, nil
}

func (s *stubUsers) List(context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUsers) Get(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (s *stubUsers) UpdateProfile(_ context.Context, u *models.User, in services.ProfileInput) (*models.User, error) {
	if s.update == nil {
		return nil, errNotStubbed
	}
	return s.update(u, in)
}

func (s *stubUsers) Deactivate(context.Context, *models.User) error {
	s.deactivated = true
	return nil
}

type stubProjects struct {
	projects map[int64]*models.Project
	joined   []int64
	fail     error
}

func (s *stubProjects) Create(_ context.Context, owner *models.User, in services.ProjectInput) (*models.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := &models.Project{ID: 1, Title: in.Title, ShortDescription: in.ShortDescription,
		Difficulty: in.Difficulty, Status: models.StatusOpen, MaxTeamMembers: models.DefaultMaxTeamMembers, OwnerID: owner.ID}
	return p, nil
}

func (s *stubProjects) List(context.Context) ([]*models.Project, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProjects) Get(_ context.Context, id int64) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (s *stubProjects) Join(_ context.Context, u *models.User, id int64) (*models.ProjectMember, error) {
	if _, ok := s.projects[id]; !ok {
		return nil, common.ErrorNotFound
	}
	s.joined = append(s.joined, id)
	return &models.ProjectMember{ID: 3, UserID: u.ID, ProjectID: id, Role: models.RoleMember}, nil
}

func (s *stubProjects) Members(_ context.Context, id int64) ([]*models.ProjectMember, error) {
	if _, ok := s.projects[id]; !ok {
		return nil, common.ErrorNotFound
	}
	return []*models.ProjectMember{{ID: 1, UserID: 1, ProjectID: id, Role: models.RoleOwner}}, nil
}

type stubAvatars struct{}

func (stubAvatars) PresignUpload(_ context.Context, u *models.User) (string, string, error) {
	return "avatars/key", "https://s3.example/upload", nil
}

func (stubAvatars) PresignDownload(_ context.Context, id int64) (string, error) {
	if id != 1 {
		return "", common.ErrorNotFound
	}
	return "https://s3.example/avatars/key", nil
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }
