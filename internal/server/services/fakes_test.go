package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/dbx"
	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/auth"
	"github.com/dmitrijs2005/nestdevhive/internal/server/config"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/members"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/projects"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/users"
	"github.com/dmitrijs2005/nestdevhive/internal/server/security/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory stand-in for the three repositories. It enforces
// the same uniqueness rules as the schema.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	projects map[int64]*models.Project
	members  map[int64]*models.ProjectMember

	err          error // returned by every call when set
	projectReads int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*models.User{},
		projects: map[int64]*models.Project{},
		members:  map[int64]*models.ProjectMember{},
	}
}

func (s *memStore) id() int64 { s.nextID++; return s.nextID }

type memManager struct{ s *memStore }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository              { return (*memUsers)(m.s) }
func (m *memManager) Projects(dbx.DBTX) projects.Repository        { return (*memProjects)(m.s) }
func (m *memManager) Members(dbx.DBTX) members.Repository          { return (*memMembers)(m.s) }

func clone(u *models.User) *models.User { c := *u; return &c }

type memUsers memStore

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, e := range r.users {
		if e.Email == u.Email {
			return nil, fmt.Errorf("%w: email already registered", common.ErrorConflict)
		}
		if e.Username == u.Username {
			return nil, fmt.Errorf("%w: username already taken", common.ErrorConflict)
		}
	}
	u.ID = (*memStore)(r).id()
	u.CreatedAt = time.Now()
	r.users[u.ID] = clone(u)
	return u, nil
}

func (r *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *memUsers) List(context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*models.User{}
	for _, u := range r.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUsers) update(id int64, fn func(*models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	return fn(u)
}

func (r *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.update(id, func(u *models.User) error { u.PasswordHash = hash; return nil })
}

func (r *memUsers) SetRefreshToken(_ context.Context, id int64, token *string) error {
	return r.update(id, func(u *models.User) error { u.RefreshToken = token; return nil })
}

func (r *memUsers) SetActive(_ context.Context, id int64, active bool) error {
	return r.update(id, func(u *models.User) error { u.IsActive = active; return nil })
}

func (r *memUsers) SetAvatarKey(_ context.Context, id int64, key string) error {
	return r.update(id, func(u *models.User) error { u.AvatarKey = &key; return nil })
}

func (r *memUsers) UpdateProfile(_ context.Context, id int64, upd models.ProfileUpdate) (*models.User, error) {
	var out *models.User
	err := r.update(id, func(u *models.User) error {
		if upd.Username != nil {
			for _, e := range r.users {
				if e.ID != id && e.Username == *upd.Username {
					return fmt.Errorf("%w: username already taken", common.ErrorConflict)
				}
			}
			u.Username = *upd.Username
		}
		if upd.Bio != nil {
			u.Bio = upd.Bio
		}
		if upd.AvatarURL != nil {
			u.AvatarURL = upd.AvatarURL
		}
		out = clone(u)
		return nil
	})
	return out, err
}

type memProjects memStore

func (r *memProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p.ID = (*memStore)(r).id()
	p.CreatedAt = time.Now()
	c := *p
	r.projects[p.ID] = &c
	return p, nil
}

func (r *memProjects) GetByID(_ context.Context, id int64) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectReads++
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r *memProjects) List(context.Context) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectReads++
	if r.err != nil {
		return nil, r.err
	}
	out := []*models.Project{}
	for _, p := range r.projects {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memMembers memStore

func (r *memMembers) Add(_ context.Context, m *models.ProjectMember) (*models.ProjectMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, e := range r.members {
		if e.UserID == m.UserID && e.ProjectID == m.ProjectID {
			return nil, fmt.Errorf("%w: already a member", common.ErrorConflict)
		}
	}
	m.ID = (*memStore)(r).id()
	m.JoinedAt = time.Now()
	c := *m
	r.members[m.ID] = &c
	return m, nil
}

func (r *memMembers) Get(_ context.Context, userID, projectID int64) (*models.ProjectMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, e := range r.members {
		if e.UserID == userID && e.ProjectID == projectID {
			c := *e
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memMembers) ListByProject(_ context.Context, projectID int64) ([]*models.ProjectMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []*models.ProjectMember{}
	for _, e := range r.members {
		if e.ProjectID == projectID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- wiring helpers ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.AccessTokenValidityDuration = 15 * time.Minute
	cfg.RefreshTokenValidityDuration = 24 * time.Hour
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

// newTxDB returns a sqlmock database that accepts any number of transactions.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

type fixture struct {
	store    *memStore
	db       *sql.DB
	mock     sqlmock.Sqlmock
	cfg      *config.Config
	codec    *auth.Codec
	hasher   password.Hasher
	auth     *AuthService
	resolver *SessionResolver
	users    *UserService
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	codec, err := auth.NewCodec([]byte(cfg.SecretKey), cfg.JWTAlgorithm)
	require.NoError(t, err)

	store := newMemStore()
	rm := &memManager{s: store}
	db, mock := newTxDB(t)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)

	return &fixture{
		store:    store,
		db:       db,
		mock:     mock,
		cfg:      cfg,
		codec:    codec,
		hasher:   hasher,
		auth:     NewAuthService(db, rm, hasher, codec, cfg, nil, logging.Nop{}),
		resolver: NewSessionResolver(db, rm, codec),
		users:    NewUserService(db, rm, hasher, logging.Nop{}),
	}
}

func (f *fixture) register(t *testing.T, email, username, pw string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Username: username, Password: pw})
	require.NoError(t, err)
	return u
}
