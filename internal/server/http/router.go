// Package http exposes the server's services as a JSON API on a chi router.
package http

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/metrics"
	"github.com/dmitrijs2005/nestdevhive/internal/server/models"
	"github.com/dmitrijs2005/nestdevhive/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, creds services.Credentials) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, user *models.User, in services.PasswordChange) (*models.User, error)
	Logout(ctx context.Context, user *models.User) error
}

type Sessions interface {
	Resolve(ctx context.Context, header string) (*models.User, error)
}

type UsersAPI interface {
	Create(ctx context.Context, in services.RegisterInput) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, in services.ProfileInput) (*models.User, error)
	Deactivate(ctx context.Context, user *models.User) error
}

type ProjectsAPI interface {
	Create(ctx context.Context, owner *models.User, in services.ProjectInput) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Join(ctx context.Context, user *models.User, projectID int64) (*models.ProjectMember, error)
	Members(ctx context.Context, projectID int64) ([]*models.ProjectMember, error)
}

type AvatarsAPI interface {
	PresignUpload(ctx context.Context, user *models.User) (string, string, error)
	PresignDownload(ctx context.Context, userID int64) (string, error)
}

// Pinger reports database readiness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router dispatches to. Metrics may be nil.
type Deps struct {
	Auth        AuthAPI
	Sessions    Sessions
	Users       UsersAPI
	Projects    ProjectsAPI
	Avatars     AvatarsAPI
	DB          Pinger
	Metrics     *metrics.Metrics
	Logger      logging.Logger
	CORSOrigins []string
}

type handler struct {
	Deps
	log logging.Logger
}

// NewRouter builds the full HTTP surface: /api/v1 plus health, readiness and metrics.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	h := &handler{Deps: d, log: d.Logger.With("module", "http")}

	r := chi.NewRouter()
	r.Use(withRequestID, withRecover(h.log), withLogging(h.log, d.Metrics), withSecurityHeaders, withCORS(d.CORSOrigins))

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	auth := requireAuth(d.Sessions, h.log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/change-password", h.changePassword)
				r.Post("/logout", h.logout)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Get("/", h.listUsers)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/me", h.me)
				r.Put("/me", h.updateMe)
				r.Post("/me/deactivate", h.deactivateMe)
				r.Post("/me/avatar", h.uploadAvatar)
			})
			r.Get("/{id}", h.getUser)
			r.Get("/{id}/avatar", h.getAvatar)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.listProjects)
			r.Get("/{id}", h.getProject)
			r.Get("/{id}/members", h.listMembers)
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", h.createProject)
				r.Post("/{id}/join", h.joinProject)
			})
		})
	})

	return r
}
