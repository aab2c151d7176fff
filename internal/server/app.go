// Package server assembles the nestdevhive backend: database, cache, services
// and the HTTP and gRPC transports, and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	"github.com/dmitrijs2005/nestdevhive/internal/server/auth"
	"github.com/dmitrijs2005/nestdevhive/internal/server/cache"
	"github.com/dmitrijs2005/nestdevhive/internal/server/config"
	"github.com/dmitrijs2005/nestdevhive/internal/server/metrics"
	"github.com/dmitrijs2005/nestdevhive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/nestdevhive/internal/server/security/password"
	"github.com/dmitrijs2005/nestdevhive/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/nestdevhive/internal/server/grpc"
	hs "github.com/dmitrijs2005/nestdevhive/internal/server/http"
)

// openDB is a seam for tests; the pgx driver is registered by repomanager.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	cache       cache.Cache
	metrics     *metrics.Metrics
	repomanager repomanager.RepositoryManager

	authService    *services.AuthService
	sessions       *services.SessionResolver
	userService    *services.UserService
	projectService *services.ProjectService
	avatarService  *services.AvatarService
}

// NewApp wires every component from c. The database connection is lazy, so
// an unreachable server only surfaces on first use.
func NewApp(c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.JWTAlgorithm)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("token codec: %w", err)
	}

	ch, err := cache.New(cache.Options{
		Driver:     c.CacheDriver,
		RedisAddr:  c.RedisAddr,
		RedisDB:    c.RedisDB,
		DefaultTTL: c.CacheTTL,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	met := metrics.New()
	rm := repomanager.NewPostgresRepositoryManager()
	hasher := password.NewBcryptHasher(c.BcryptCost)

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		cache:          ch,
		metrics:        met,
		repomanager:    rm,
		authService:    services.NewAuthService(db, rm, hasher, codec, c, met, logger),
		sessions:       services.NewSessionResolver(db, rm, codec),
		userService:    services.NewUserService(db, rm, hasher, logger),
		projectService: services.NewProjectService(db, rm, ch, c.CacheTTL, met, logger),
		avatarService:  services.NewAvatarService(db, rm, c),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	app.logger.Info(ctx, "Applying migrations...")
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

func (app *App) httpServer() *hs.Server {
	router := hs.NewRouter(hs.Deps{
		Auth:        app.authService,
		Sessions:    app.sessions,
		Users:       app.userService,
		Projects:    app.projectService,
		Avatars:     app.avatarService,
		DB:          app.db,
		Metrics:     app.metrics,
		Logger:      app.logger,
		CORSOrigins: app.config.CORSOrigins,
	})
	return hs.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
}

func (app *App) grpcServer() *gs.GRPCServer {
	return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger,
		app.authService, app.sessions, app.projectService, app.avatarService)
}

// Run migrates the schema and serves HTTP and gRPC until ctx is cancelled or
// a termination signal arrives. The first server error stops both.
func (app *App) Run(ctx context.Context) error {
	defer app.Close()

	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...",
		"http", app.config.EndpointAddrHTTP, "grpc", app.config.EndpointAddrGRPC)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer().Run(gctx) })
	g.Go(func() error { return app.grpcServer().Run(gctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	} else {
		app.logger.Info(ctx, "Shutdown complete")
	}
	return err
}

// Close releases the cache and database handles.
func (app *App) Close() {
	if err := app.cache.Close(); err != nil {
		app.logger.Warn(context.Background(), "cache close", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "db close", "error", err)
	}
}
